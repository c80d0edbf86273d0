// Package scene models named target configurations across multiple
// entities and the per-member matching criteria derived from them.
package scene

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lightctl/sceneryd/internal/entity"
	"github.com/lightctl/sceneryd/internal/light"
)

// ProfileLookup resolves a profile name to its definition. A nil result
// means the name is unknown.
type ProfileLookup func(name string) *light.Profile

// Scene is a named collection of target states across multiple entities.
// Entities keeps configuration order; States and Criteria always share the
// same key set. Immutable after construction.
type Scene struct {
	Name       string
	UniqueID   string
	Transition *time.Duration

	Entities []string
	States   map[string]*entity.State
	Criteria map[string]*Criterion
}

// New builds a scene from its configured member states.
//
// Profile tags embedded in member attributes are resolved exactly once,
// here: the tagged profile is merged into the stored attributes (color and
// brightness only when the target state is "on") and the tag is stripped,
// since the downstream state reproduction does not understand profile tags.
// A tag naming an unknown profile is logged and stripped with nothing
// substituted. The matching Criterion is derived from the state as
// configured, so it keeps the profile tag and stays free of baked-in
// attributes.
func New(name, uniqueID string, transition *time.Duration, states []*entity.State, profiles ProfileLookup) *Scene {
	s := &Scene{
		Name:       name,
		UniqueID:   uniqueID,
		Transition: transition,
		Entities:   make([]string, 0, len(states)),
		States:     make(map[string]*entity.State, len(states)),
		Criteria:   make(map[string]*Criterion, len(states)),
	}
	for _, target := range states {
		s.Entities = append(s.Entities, target.EntityID)
		s.Criteria[target.EntityID] = NewCriterion(target.State, target.Attributes)
		s.States[target.EntityID] = bakeState(name, target, profiles)
	}
	return s
}

// bakeState resolves a member state's profile tag into concrete attributes.
func bakeState(sceneName string, target *entity.State, profiles ProfileLookup) *entity.State {
	attrs := make(map[string]any, len(target.Attributes))
	for key, value := range target.Attributes {
		attrs[key] = value
	}
	baked := &entity.State{
		EntityID:   target.EntityID,
		State:      target.State,
		Attributes: attrs,
	}

	tag, ok := attrs[AttrProfile].(string)
	if !ok {
		return baked
	}
	delete(attrs, AttrProfile)

	profile := profiles(tag)
	if profile == nil {
		log.Warn().
			Str("scene", sceneName).
			Str("entity_id", target.EntityID).
			Str("profile", tag).
			Msg("Scene references unknown profile, applying nothing")
		return baked
	}
	profile.Apply(attrs, target.State == entity.StateOn)
	return baked
}

// Group is a named ordered collection of scenes plus the union of all
// entity IDs its member scenes reference.
type Group struct {
	Name        string
	Scenes      []*Scene
	Entities    []string
	SceneSelect *light.SelectConfig
}

// NewGroup builds a scene group. Entities are collected in first-reference
// order across member scenes.
func NewGroup(name string, scenes []*Scene, sceneSelect *light.SelectConfig) *Group {
	g := &Group{
		Name:        name,
		Scenes:      scenes,
		SceneSelect: sceneSelect,
	}
	seen := make(map[string]struct{})
	for _, s := range scenes {
		for _, entityID := range s.Entities {
			if _, ok := seen[entityID]; ok {
				continue
			}
			seen[entityID] = struct{}{}
			g.Entities = append(g.Entities, entityID)
		}
	}
	return g
}

// Scene returns the member scene with the given name, or nil.
func (g *Group) Scene(name string) *Scene {
	for _, s := range g.Scenes {
		if s.Name == name {
			return s
		}
	}
	return nil
}
