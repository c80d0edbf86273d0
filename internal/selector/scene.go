package selector

import (
	"fmt"

	"github.com/lightctl/sceneryd/internal/entity"
	"github.com/lightctl/sceneryd/internal/match"
	"github.com/lightctl/sceneryd/internal/scene"
)

// SceneSelector tracks which scene of a group is currently active and
// applies scenes on demand.
type SceneSelector struct {
	group       *scene.Group
	profilesFor match.ProfilesFunc
	tracer      match.Tracer
}

// NewSceneSelector creates a selector for one scene group. The group must
// carry a SceneSelect block. profilesFor resolves the profiles configured
// for member lights, so scene criteria with profile tags can rank.
func NewSceneSelector(group *scene.Group, profilesFor match.ProfilesFunc, tracer match.Tracer) *SceneSelector {
	return &SceneSelector{group: group, profilesFor: profilesFor, tracer: tracer}
}

// Name returns the scene group name.
func (s *SceneSelector) Name() string {
	return s.group.Name
}

// TopicID returns the identifier the selector is published under. The
// configured unique ID wins over the group name.
func (s *SceneSelector) TopicID() string {
	if s.group.SceneSelect.UniqueID != "" {
		return s.group.SceneSelect.UniqueID
	}
	return s.group.Name
}

// Entities returns the union of entities referenced by the group's scenes.
func (s *SceneSelector) Entities() []string {
	return s.group.Entities
}

// Options lists the selectable options: the off option when configured,
// then the scene names in configuration order.
func (s *SceneSelector) Options() []string {
	options := make([]string, 0, len(s.group.Scenes)+1)
	if off := s.group.SceneSelect.OffOption; off != "" {
		options = append(options, off)
	}
	for _, sc := range s.group.Scenes {
		options = append(options, sc.Name)
	}
	return options
}

// CurrentOption infers the active option from the current states of the
// group's entities. When no scene positively matches, the off option is
// reported. The second return is false when none of the group's entities
// have a known state yet.
func (s *SceneSelector) CurrentOption(states map[string]*entity.State) (string, bool) {
	if len(states) == 0 {
		return "", false
	}
	if sc := match.GuessScene(states, s.group.Scenes, s.profilesFor, s.tracer); sc != nil {
		return sc.Name, true
	}
	return s.group.SceneSelect.OffOption, true
}

// Select applies the chosen scene. Choosing the off option is a no-op:
// the off option only reports that no scene matches, there is nothing to
// apply.
func (s *SceneSelector) Select(option string, commander Commander) error {
	if off := s.group.SceneSelect.OffOption; off != "" && option == off {
		return nil
	}
	if sc := s.group.Scene(option); sc != nil {
		return commander.ApplyScene(sc)
	}
	return fmt.Errorf("scene group %s has no scene option %q", s.group.Name, option)
}
