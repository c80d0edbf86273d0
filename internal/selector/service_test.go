package selector

import (
	"encoding/json"
	"testing"

	"github.com/lightctl/sceneryd/internal/catalog"
	"github.com/lightctl/sceneryd/internal/config"
	"github.com/lightctl/sceneryd/internal/entity"
	"github.com/lightctl/sceneryd/internal/eventbus"
	"github.com/lightctl/sceneryd/internal/light"
)

type fakeBroker struct {
	published map[string][]byte
	retained  map[string]bool
}

func (f *fakeBroker) Publish(topic string, payload []byte, retained bool) error {
	if f.published == nil {
		f.published = make(map[string][]byte)
		f.retained = make(map[string]bool)
	}
	f.published[topic] = payload
	f.retained[topic] = retained
	return nil
}

func (f *fakeBroker) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	return nil
}

// selectState decodes the selector payload published on a topic.
func (f *fakeBroker) selectState(t *testing.T, topic string) selectState {
	t.Helper()
	payload, ok := f.published[topic]
	if !ok {
		t.Fatalf("nothing published on %q, got %v", topic, topics(f.published))
	}
	var state selectState
	if err := json.Unmarshal(payload, &state); err != nil {
		t.Fatalf("unmarshal %q payload: %v", topic, err)
	}
	return state
}

func topics(published map[string][]byte) []string {
	result := make([]string, 0, len(published))
	for topic := range published {
		result = append(result, topic)
	}
	return result
}

type fakeFavorites struct {
	stored map[string][]light.Color
}

func (f *fakeFavorites) FavoriteColors(entityID string) ([]light.Color, error) {
	return f.stored[entityID], nil
}

type fakeStates struct {
	states map[string]*entity.State
}

func (f *fakeStates) State(entityID string) *entity.State {
	return f.states[entityID]
}

func (f *fakeStates) Snapshot(entityIDs []string) map[string]*entity.State {
	snapshot := make(map[string]*entity.State)
	for _, entityID := range entityIDs {
		if state := f.states[entityID]; state != nil {
			snapshot[entityID] = state
		}
	}
	return snapshot
}

func serviceFixture(t *testing.T) (*Service, *fakeBroker, *fakeStates, *fakeCommander) {
	service, broker, states, commander, _ := serviceFixtureWithFavorites(t)
	return service, broker, states, commander
}

func serviceFixtureWithFavorites(t *testing.T) (*Service, *fakeBroker, *fakeStates, *fakeCommander, *fakeFavorites) {
	t.Helper()
	cfg := &config.Config{
		Profiles: []config.ProfileConfig{
			{Name: "relax", Color: map[string]any{"color_temp_kelvin": 2700}},
		},
		Lights: []config.LightConfig{
			{
				EntityIDs:     config.StringList{"light.sofa"},
				Profiles:      []string{"relax"},
				ProfileSelect: &config.SelectConfig{OffOption: "Off"},
			},
		},
		SceneGroups: []config.SceneGroupConfig{
			{
				Name: "living_room",
				Scenes: []config.SceneConfig{
					{Name: "movie", Entities: config.SceneEntities{
						{EntityID: "light.sofa", State: "on", Attributes: map[string]any{"brightness": 30}},
					}},
				},
				SceneSelect: &config.SelectConfig{OffOption: "None", UniqueID: "living_room_scene"},
			},
		},
	}

	broker := &fakeBroker{}
	states := &fakeStates{states: map[string]*entity.State{}}
	commander := &fakeCommander{}
	favorites := &fakeFavorites{stored: map[string][]light.Color{}}
	service := NewService(catalog.Build(cfg), broker, commander, states, favorites, "sceneryd/select/")
	return service, broker, states, commander, favorites
}

func TestService_RefreshAllPublishesRetainedStates(t *testing.T) {
	service, broker, _, _ := serviceFixture(t)
	service.RefreshAll()

	profile := broker.selectState(t, "sceneryd/select/profile/light.sofa")
	if profile.Available {
		t.Error("selector with no entity state must be unavailable")
	}
	if len(profile.Options) != 2 || profile.Options[0] != "Off" || profile.Options[1] != "relax" {
		t.Errorf("options = %v", profile.Options)
	}
	if !broker.retained["sceneryd/select/profile/light.sofa"] {
		t.Error("selector states must be retained")
	}

	// Scene selector publishes under its unique ID.
	broker.selectState(t, "sceneryd/select/scene/living_room_scene")

	// Favorite colors are published per configured light; with nothing
	// stored the profile-derived defaults apply.
	var colors []map[string]any
	if err := json.Unmarshal(broker.published["sceneryd/select/favorites/light.sofa"], &colors); err != nil {
		t.Fatalf("unmarshal favorites: %v", err)
	}
	if len(colors) != 1 {
		t.Errorf("default favorites = %v, want the relax color", colors)
	}
}

func TestService_StateChangeRepublishesAffectedSelectors(t *testing.T) {
	service, broker, states, _ := serviceFixture(t)

	states.states["light.sofa"] = &entity.State{
		EntityID:   "light.sofa",
		State:      entity.StateOn,
		Attributes: map[string]any{"color_temp_kelvin": float64(2700), "brightness": float64(30)},
	}
	service.handleStateChanged(eventbus.Event{
		Type:     eventbus.EventTypeStateChanged,
		EntityID: "light.sofa",
		State:    states.states["light.sofa"],
	})

	profile := broker.selectState(t, "sceneryd/select/profile/light.sofa")
	if !profile.Available || profile.Option != "relax" {
		t.Errorf("profile selector = %+v, want relax", profile)
	}
	sceneState := broker.selectState(t, "sceneryd/select/scene/living_room_scene")
	if !sceneState.Available || sceneState.Option != "movie" {
		t.Errorf("scene selector = %+v, want movie", sceneState)
	}
}

func TestService_OptionsUpdateRepublishesFavorites(t *testing.T) {
	service, broker, _, _, favorites := serviceFixtureWithFavorites(t)

	favorites.stored["light.sofa"] = []light.Color{
		{"rgb_color": []any{float64(0), float64(255), float64(0)}},
	}
	service.handleOptionsUpdated(eventbus.Event{
		Type:     eventbus.EventTypeOptionsUpdated,
		EntityID: "light.sofa",
	})

	var colors []map[string]any
	if err := json.Unmarshal(broker.published["sceneryd/select/favorites/light.sofa"], &colors); err != nil {
		t.Fatalf("unmarshal favorites: %v", err)
	}
	if len(colors) != 1 {
		t.Fatalf("favorites = %v", colors)
	}
	if _, ok := colors[0]["rgb_color"]; !ok {
		t.Errorf("favorites = %v, want the stored color", colors)
	}
	if !broker.retained["sceneryd/select/favorites/light.sofa"] {
		t.Error("favorite colors must be retained")
	}

	// Updates for unconfigured entities are ignored.
	service.handleOptionsUpdated(eventbus.Event{
		Type:     eventbus.EventTypeOptionsUpdated,
		EntityID: "light.unknown",
	})
	if _, ok := broker.published["sceneryd/select/favorites/light.unknown"]; ok {
		t.Error("unconfigured entity must not be published")
	}
}

func TestService_SetTopicsRouteToCommands(t *testing.T) {
	service, _, _, commander := serviceFixture(t)

	service.handleProfileSet("sceneryd/select/profile/light.sofa/set", []byte("relax"))
	if len(commander.turnedOn) != 1 || commander.turnedOn[0] != "light.sofa/relax" {
		t.Errorf("turnedOn = %v", commander.turnedOn)
	}

	service.handleSceneSet("sceneryd/select/scene/living_room_scene/set", []byte("movie"))
	if len(commander.applied) != 1 || commander.applied[0] != "movie" {
		t.Errorf("applied = %v", commander.applied)
	}

	// Unknown selectors are logged and dropped, not dispatched.
	service.handleProfileSet("sceneryd/select/profile/light.unknown/set", []byte("relax"))
	if len(commander.turnedOn) != 1 {
		t.Errorf("turnedOn = %v", commander.turnedOn)
	}
}
