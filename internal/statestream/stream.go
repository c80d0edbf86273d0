package statestream

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lightctl/sceneryd/internal/entity"
	"github.com/lightctl/sceneryd/internal/eventbus"
)

// Subscriber is the part of the MQTT client the stream needs.
type Subscriber interface {
	Subscribe(topic string, handler func(topic string, payload []byte)) error
}

// Stream maintains the entity state snapshot from statestream messages.
//
// The host publishes <prefix>/<domain>/<object_id>/state with the bare
// state token and .../attributes with an attribute JSON object. Snapshots
// are copy-on-write: a *entity.State handed out is never mutated again, so
// rankers can hold one without locking.
type Stream struct {
	client Subscriber
	prefix string
	bus    *eventbus.Bus

	mu     sync.RWMutex
	states map[string]*entity.State
}

// NewStream creates a stream over a connected client.
func NewStream(client Subscriber, prefix string, bus *eventbus.Bus) *Stream {
	return &Stream{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		bus:    bus,
	}
}

// Start subscribes to the statestream topic tree.
func (s *Stream) Start() error {
	s.mu.Lock()
	s.states = make(map[string]*entity.State)
	s.mu.Unlock()

	return s.client.Subscribe(s.prefix+"/#", s.handleMessage)
}

// handleMessage routes one statestream message into the snapshot.
func (s *Stream) handleMessage(topic string, payload []byte) {
	rest, ok := strings.CutPrefix(topic, s.prefix+"/")
	if !ok {
		return
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return
	}
	domain, objectID, leaf := parts[0], parts[1], parts[2]
	entityID := domain + "." + objectID

	switch leaf {
	case "state":
		s.update(entityID, func(next *entity.State) {
			next.State = strings.TrimSpace(string(payload))
		})
	case "attributes":
		var attrs map[string]any
		if err := json.Unmarshal(payload, &attrs); err != nil {
			log.Warn().Err(err).Str("entity_id", entityID).Msg("Dropping unparsable attributes payload")
			return
		}
		s.update(entityID, func(next *entity.State) {
			next.Attributes = attrs
		})
	}
}

// update replaces an entity's snapshot with a fresh copy and notifies the
// bus.
func (s *Stream) update(entityID string, apply func(next *entity.State)) {
	s.mu.Lock()
	next := &entity.State{EntityID: entityID}
	if prev := s.states[entityID]; prev != nil {
		next.State = prev.State
		next.Attributes = prev.Attributes
	}
	apply(next)
	s.states[entityID] = next
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type:     eventbus.EventTypeStateChanged,
			EntityID: entityID,
			State:    next,
		})
	}
}

// State returns the current snapshot for one entity, or nil.
func (s *Stream) State(entityID string) *entity.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[entityID]
}

// Snapshot returns the current states of the requested entities. Entities
// with no known state are absent from the result.
func (s *Stream) Snapshot(entityIDs []string) map[string]*entity.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]*entity.State, len(entityIDs))
	for _, entityID := range entityIDs {
		if state := s.states[entityID]; state != nil {
			snapshot[entityID] = state
		}
	}
	return snapshot
}
