package statestream

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lightctl/sceneryd/internal/catalog"
	"github.com/lightctl/sceneryd/internal/entity"
	"github.com/lightctl/sceneryd/internal/light"
	"github.com/lightctl/sceneryd/internal/scene"
)

// Publisher is the part of the MQTT client the dispatcher needs.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// StateLookup reports an entity's current snapshot, used to decide whether
// a turn-on request hits a light that is already on.
type StateLookup interface {
	State(entityID string) *entity.State
}

// command is the service call payload published to the host.
type command struct {
	Service  string         `json:"service"`
	EntityID string         `json:"entity_id"`
	Data     map[string]any `json:"data,omitempty"`
}

// Dispatcher issues light service commands, merging profile parameters
// through the applier chain before anything goes on the wire.
type Dispatcher struct {
	client  Publisher
	topic   string
	applier catalog.Applier
	states  StateLookup
}

// NewDispatcher creates a dispatcher publishing to the given command topic.
func NewDispatcher(client Publisher, topic string, applier catalog.Applier, states StateLookup) *Dispatcher {
	return &Dispatcher{
		client:  client,
		topic:   topic,
		applier: applier,
		states:  states,
	}
}

// TurnOn turns a light on. A named profile is applied through the chain;
// without one the entity's default profile fills in, merging color and
// brightness only when the request is bare or the light is off. Explicit
// params always win per key.
func (d *Dispatcher) TurnOn(entityID, profile string, params map[string]any) error {
	data := make(map[string]any, len(params)+2)
	for key, value := range params {
		data[key] = value
	}

	if profile != "" {
		if !d.applier.ApplyProfile(profile, data) {
			log.Warn().Str("entity_id", entityID).Str("profile", profile).Msg("Turn-on names unknown profile, sending params as-is")
		}
	} else {
		stateOn := false
		if current := d.states.State(entityID); current != nil {
			stateOn = current.State == entity.StateOn
		}
		d.applier.ApplyDefault(entityID, stateOn, data)
	}

	return d.publish(command{Service: "turn_on", EntityID: entityID, Data: data})
}

// TurnOff turns a light off.
func (d *Dispatcher) TurnOff(entityID string) error {
	return d.publish(command{Service: "turn_off", EntityID: entityID})
}

// ApplyScene reproduces a scene's baked target states, one service call
// per member entity. The scene transition fills in where a member state
// does not set its own.
func (d *Dispatcher) ApplyScene(sc *scene.Scene) error {
	for _, entityID := range sc.Entities {
		target := sc.States[entityID]

		data := make(map[string]any, len(target.Attributes)+1)
		for key, value := range target.Attributes {
			data[key] = value
		}
		if sc.Transition != nil {
			if _, ok := data[light.AttrTransition]; !ok {
				data[light.AttrTransition] = sc.Transition.Seconds()
			}
		}

		service := "turn_off"
		if target.State == entity.StateOn {
			service = "turn_on"
		}
		if err := d.publish(command{Service: service, EntityID: entityID, Data: data}); err != nil {
			return fmt.Errorf("scene %q: %w", sc.Name, err)
		}
	}
	return nil
}

func (d *Dispatcher) publish(cmd command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}
	log.Debug().Str("service", cmd.Service).Str("entity_id", cmd.EntityID).Msg("Dispatching command")
	return d.client.Publish(d.topic, payload, false)
}
