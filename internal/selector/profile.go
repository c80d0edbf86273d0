// Package selector exposes the inference results as selectable options: one
// profile selector per configured light and one scene selector per scene
// group. Selectors are published over MQTT as retained option states and
// accept option changes back, which they turn into service commands.
package selector

import (
	"fmt"

	"github.com/lightctl/sceneryd/internal/entity"
	"github.com/lightctl/sceneryd/internal/light"
	"github.com/lightctl/sceneryd/internal/match"
)

// ProfileSelector tracks which of a light's profiles is currently active
// and switches profiles on demand.
type ProfileSelector struct {
	entityID string
	config   *light.LightConfig
	tracer   match.Tracer
}

// NewProfileSelector creates a selector for one light entity. The light
// configuration must carry a ProfileSelect block.
func NewProfileSelector(entityID string, config *light.LightConfig, tracer match.Tracer) *ProfileSelector {
	return &ProfileSelector{entityID: entityID, config: config, tracer: tracer}
}

// EntityID returns the light entity this selector watches.
func (s *ProfileSelector) EntityID() string {
	return s.entityID
}

// TopicID returns the identifier the selector is published under. The
// configured unique ID wins over the entity ID.
func (s *ProfileSelector) TopicID() string {
	if s.config.ProfileSelect.UniqueID != "" {
		return s.config.ProfileSelect.UniqueID
	}
	return s.entityID
}

// Options lists the selectable options: the off option when configured,
// then the profile names in configuration order.
func (s *ProfileSelector) Options() []string {
	options := make([]string, 0, len(s.config.Profiles)+1)
	if off := s.config.ProfileSelect.OffOption; off != "" {
		options = append(options, off)
	}
	for _, profile := range s.config.Profiles {
		options = append(options, profile.Name)
	}
	return options
}

// CurrentOption infers the active option from the light's state snapshot.
// A light that is off reports the off option; a lit light reports the
// best-matching profile name, or the empty string when none matches. The
// second return is false when the state gives nothing to infer from.
func (s *ProfileSelector) CurrentOption(state *entity.State) (string, bool) {
	if !state.Retrievable() || entity.Domain(state.EntityID) != entity.LightDomain {
		return "", false
	}
	if state.State == entity.StateOff {
		return s.config.ProfileSelect.OffOption, true
	}
	if profile := match.GuessProfile(state.Attributes, s.config.Profiles, s.tracer); profile != nil {
		return profile.Name, true
	}
	return "", true
}

// Select applies the chosen option: the off option turns the light off, a
// profile name turns it on with that profile.
func (s *ProfileSelector) Select(option string, commander Commander) error {
	if off := s.config.ProfileSelect.OffOption; off != "" && option == off {
		return commander.TurnOff(s.entityID)
	}
	for _, profile := range s.config.Profiles {
		if profile.Name == option {
			return commander.TurnOn(s.entityID, option, nil)
		}
	}
	return fmt.Errorf("light %s has no profile option %q", s.entityID, option)
}
