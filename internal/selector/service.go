package selector

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lightctl/sceneryd/internal/catalog"
	"github.com/lightctl/sceneryd/internal/entity"
	"github.com/lightctl/sceneryd/internal/eventbus"
	"github.com/lightctl/sceneryd/internal/light"
	"github.com/lightctl/sceneryd/internal/scene"
)

// Commander issues the service commands selectors translate options into.
type Commander interface {
	TurnOn(entityID, profile string, params map[string]any) error
	TurnOff(entityID string) error
	ApplyScene(sc *scene.Scene) error
}

// StateSource provides current entity state snapshots.
type StateSource interface {
	State(entityID string) *entity.State
	Snapshot(entityIDs []string) map[string]*entity.State
}

// FavoritesSource reads the stored favorite colors of a light entity. A
// nil result means nothing is stored and the configured defaults apply.
type FavoritesSource interface {
	FavoriteColors(entityID string) ([]light.Color, error)
}

// Broker is the MQTT surface the service publishes selector states on and
// receives option changes from.
type Broker interface {
	Publish(topic string, payload []byte, retained bool) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
}

// selectState is the retained payload published per selector.
type selectState struct {
	Option    string   `json:"option"`
	Options   []string `json:"options"`
	Available bool     `json:"available"`
}

// Service keeps the configured selectors in sync with entity state. Every
// state change re-runs the affected selectors and republishes their option
// state; option changes arriving on the set topics are dispatched as
// commands.
type Service struct {
	prefix    string
	broker    Broker
	commander Commander
	states    StateSource
	catalog   *catalog.Catalog
	favorites FavoritesSource

	profileSelectors map[string]*ProfileSelector // keyed by topic ID
	profileByEntity  map[string]*ProfileSelector
	sceneSelectors   map[string]*SceneSelector // keyed by topic ID
	scenesByEntity   map[string][]*SceneSelector
}

// NewService builds selectors for every light with a profile_select block
// and every scene group with a scene_select block.
func NewService(c *catalog.Catalog, broker Broker, commander Commander, states StateSource, favorites FavoritesSource, prefix string) *Service {
	s := &Service{
		prefix:           strings.TrimSuffix(prefix, "/"),
		broker:           broker,
		commander:        commander,
		states:           states,
		catalog:          c,
		favorites:        favorites,
		profileSelectors: make(map[string]*ProfileSelector),
		profileByEntity:  make(map[string]*ProfileSelector),
		sceneSelectors:   make(map[string]*SceneSelector),
		scenesByEntity:   make(map[string][]*SceneSelector),
	}

	for _, entityID := range c.LightEntityIDs() {
		lightConfig := c.LightConfig(entityID)
		if lightConfig.ProfileSelect == nil {
			continue
		}
		sel := NewProfileSelector(entityID, lightConfig, traceRanking)
		s.profileSelectors[sel.TopicID()] = sel
		s.profileByEntity[entityID] = sel
	}

	for _, group := range c.SceneGroups() {
		if group.SceneSelect == nil {
			continue
		}
		sel := NewSceneSelector(group, c.ProfilesFor, traceRanking)
		s.sceneSelectors[sel.TopicID()] = sel
		for _, entityID := range sel.Entities() {
			s.scenesByEntity[entityID] = append(s.scenesByEntity[entityID], sel)
		}
	}

	return s
}

// Start subscribes to the option set topics, hooks into state-change
// events and publishes the initial state of every selector.
func (s *Service) Start(bus *eventbus.Bus) error {
	if err := s.broker.Subscribe(s.prefix+"/profile/+/set", s.handleProfileSet); err != nil {
		return err
	}
	if err := s.broker.Subscribe(s.prefix+"/scene/+/set", s.handleSceneSet); err != nil {
		return err
	}

	bus.Subscribe(eventbus.EventTypeStateChanged, s.handleStateChanged)
	bus.Subscribe(eventbus.EventTypeOptionsUpdated, s.handleOptionsUpdated)

	s.RefreshAll()
	return nil
}

// RefreshAll recomputes and republishes every selector and the favorite
// colors of every configured light.
func (s *Service) RefreshAll() {
	for _, sel := range s.profileSelectors {
		s.publishProfile(sel)
	}
	for _, sel := range s.sceneSelectors {
		s.publishScene(sel)
	}
	for _, entityID := range s.catalog.LightEntityIDs() {
		s.publishFavorites(entityID)
	}
}

func (s *Service) handleStateChanged(event eventbus.Event) {
	if sel, ok := s.profileByEntity[event.EntityID]; ok {
		s.publishProfile(sel)
	}
	for _, sel := range s.scenesByEntity[event.EntityID] {
		s.publishScene(sel)
	}
}

func (s *Service) handleOptionsUpdated(event eventbus.Event) {
	s.publishFavorites(event.EntityID)
}

func (s *Service) publishProfile(sel *ProfileSelector) {
	option, available := sel.CurrentOption(s.states.State(sel.EntityID()))
	s.publish("profile", sel.TopicID(), selectState{
		Option:    option,
		Options:   sel.Options(),
		Available: available,
	})
}

func (s *Service) publishScene(sel *SceneSelector) {
	option, available := sel.CurrentOption(s.states.Snapshot(sel.Entities()))
	s.publish("scene", sel.TopicID(), selectState{
		Option:    option,
		Options:   sel.Options(),
		Available: available,
	})
}

// publishFavorites republishes a light's effective favorite colors, the
// stored list or the configured defaults, as a retained topic for UIs.
func (s *Service) publishFavorites(entityID string) {
	lightConfig := s.catalog.LightConfig(entityID)
	if lightConfig == nil {
		return
	}

	colors, err := s.favorites.FavoriteColors(entityID)
	if err != nil {
		log.Warn().Err(err).Str("entity_id", entityID).Msg("Failed to read favorite colors")
		return
	}
	if colors == nil {
		colors = light.UniqueColors(append(lightConfig.FavoriteColorsFromProfiles(), lightConfig.FavoriteColors...))
	}

	payload, err := json.Marshal(colors)
	if err != nil {
		log.Error().Err(err).Str("entity_id", entityID).Msg("Failed to marshal favorite colors")
		return
	}
	topic := s.prefix + "/favorites/" + entityID
	if err := s.broker.Publish(topic, payload, true); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Failed to publish favorite colors")
	}
}

func (s *Service) publish(kind, topicID string, state selectState) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Error().Err(err).Str("selector", topicID).Msg("Failed to marshal selector state")
		return
	}
	topic := s.prefix + "/" + kind + "/" + topicID
	if err := s.broker.Publish(topic, payload, true); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Failed to publish selector state")
	}
}

func (s *Service) handleProfileSet(topic string, payload []byte) {
	sel, ok := s.profileSelectors[setTopicID(topic)]
	if !ok {
		log.Warn().Str("topic", topic).Msg("Option set for unknown profile selector")
		return
	}
	option := strings.TrimSpace(string(payload))
	if err := sel.Select(option, s.commander); err != nil {
		log.Warn().Err(err).Str("entity_id", sel.EntityID()).Msg("Profile option rejected")
		return
	}
	log.Info().Str("entity_id", sel.EntityID()).Str("option", option).Msg("Profile option selected")
}

func (s *Service) handleSceneSet(topic string, payload []byte) {
	sel, ok := s.sceneSelectors[setTopicID(topic)]
	if !ok {
		log.Warn().Str("topic", topic).Msg("Option set for unknown scene selector")
		return
	}
	option := strings.TrimSpace(string(payload))
	if err := sel.Select(option, s.commander); err != nil {
		log.Warn().Err(err).Str("group", sel.Name()).Msg("Scene option rejected")
		return
	}
	log.Info().Str("group", sel.Name()).Str("option", option).Msg("Scene option selected")
}

// setTopicID extracts the selector topic ID from a .../<id>/set topic.
func setTopicID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// traceRanking logs candidate scores while inferring, for debugging why a
// selector settled on an option.
func traceRanking(kind, candidate string, score int) {
	log.Trace().Str("kind", kind).Str("candidate", candidate).Int("score", score).Msg("Ranked candidate")
}
