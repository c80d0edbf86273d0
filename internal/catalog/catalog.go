// Package catalog holds the validated profile, light and scene definitions
// as one explicitly owned object. It is constructed once from configuration
// and handed by reference to whichever component needs lookups; nothing in
// it mutates after construction.
package catalog

import (
	"time"

	"github.com/lightctl/sceneryd/internal/config"
	"github.com/lightctl/sceneryd/internal/entity"
	"github.com/lightctl/sceneryd/internal/light"
	"github.com/lightctl/sceneryd/internal/scene"
)

// Catalog is the read-only registry of configured profiles, per-light
// configurations and scene groups.
type Catalog struct {
	profiles     map[string]*light.Profile
	profileOrder []*light.Profile

	lightConfigs map[string]*light.LightConfig
	lightOrder   []string

	sceneGroups []*scene.Group
}

// Build constructs the catalog from validated configuration. Scene profile
// tags are resolved here, exactly once.
func Build(cfg *config.Config) *Catalog {
	c := &Catalog{
		profiles:     make(map[string]*light.Profile, len(cfg.Profiles)),
		lightConfigs: make(map[string]*light.LightConfig),
	}

	for _, item := range cfg.Profiles {
		profile := buildProfile(item)
		c.profiles[profile.Name] = profile
		c.profileOrder = append(c.profileOrder, profile)
	}

	for _, item := range cfg.Lights {
		lightConfig := buildLightConfig(item, c.profiles)
		for _, entityID := range item.EntityIDs {
			c.lightConfigs[entityID] = lightConfig
			c.lightOrder = append(c.lightOrder, entityID)
		}
	}

	for _, item := range cfg.SceneGroups {
		scenes := make([]*scene.Scene, 0, len(item.Scenes))
		for _, sceneCfg := range item.Scenes {
			scenes = append(scenes, buildScene(sceneCfg, c.Profile))
		}
		c.sceneGroups = append(c.sceneGroups, scene.NewGroup(item.Name, scenes, buildSelect(item.SceneSelect)))
	}

	return c
}

func buildProfile(cfg config.ProfileConfig) *light.Profile {
	profile := &light.Profile{
		Name:       cfg.Name,
		Color:      light.ExtractColor(cfg.Color),
		Brightness: cfg.Brightness,
	}
	if cfg.Transition != nil {
		transition := cfg.Transition.Duration()
		profile.Transition = &transition
	}
	return profile
}

func buildLightConfig(cfg config.LightConfig, profiles map[string]*light.Profile) *light.LightConfig {
	lightConfig := &light.LightConfig{
		ProfileSelect: buildSelect(cfg.ProfileSelect),
	}
	for _, name := range cfg.Profiles {
		lightConfig.Profiles = append(lightConfig.Profiles, profiles[name])
	}
	for _, attrs := range cfg.FavoriteColors {
		lightConfig.FavoriteColors = append(lightConfig.FavoriteColors, light.Color(attrs))
	}
	return lightConfig
}

func buildScene(cfg config.SceneConfig, profiles scene.ProfileLookup) *scene.Scene {
	states := make([]*entity.State, 0, len(cfg.Entities))
	for _, member := range cfg.Entities {
		states = append(states, &entity.State{
			EntityID:   member.EntityID,
			State:      member.State,
			Attributes: member.Attributes,
		})
	}
	var transition *time.Duration
	if cfg.Transition != nil {
		d := cfg.Transition.Duration()
		transition = &d
	}
	return scene.New(cfg.Name, cfg.UniqueID, transition, states, profiles)
}

func buildSelect(cfg *config.SelectConfig) *light.SelectConfig {
	if cfg == nil {
		return nil
	}
	return &light.SelectConfig{
		OffOption: cfg.OffOption,
		UniqueID:  cfg.UniqueID,
	}
}

// Profile returns the profile with the given name, or nil.
func (c *Catalog) Profile(name string) *light.Profile {
	return c.profiles[name]
}

// Profiles returns all profiles in configuration order.
func (c *Catalog) Profiles() []*light.Profile {
	return c.profileOrder
}

// LightConfig returns the light configuration for an entity, or nil.
func (c *Catalog) LightConfig(entityID string) *light.LightConfig {
	return c.lightConfigs[entityID]
}

// LightEntityIDs returns all configured light entity IDs in configuration
// order.
func (c *Catalog) LightEntityIDs() []string {
	return c.lightOrder
}

// ProfilesFor returns the profiles configured for an entity, or nil. The
// signature matches match.ProfilesFunc.
func (c *Catalog) ProfilesFor(entityID string) []*light.Profile {
	if lightConfig := c.lightConfigs[entityID]; lightConfig != nil {
		return lightConfig.Profiles
	}
	return nil
}

// SceneGroups returns all scene groups in configuration order.
func (c *Catalog) SceneGroups() []*scene.Group {
	return c.sceneGroups
}

// SceneGroup returns the scene group with the given name, or nil.
func (c *Catalog) SceneGroup(name string) *scene.Group {
	for _, group := range c.sceneGroups {
		if group.Name == name {
			return group
		}
	}
	return nil
}
