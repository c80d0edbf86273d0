// Package storage persists per-entity option mappings, most notably the
// favorite colors exposed to frontends.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lightctl/sceneryd/internal/eventbus"
	"github.com/lightctl/sceneryd/internal/light"
)

// lightOptionsDomain is the option domain favorite colors live under.
const lightOptionsDomain = "light"

// favoriteColorsKey is the option key inside the light domain.
const favoriteColorsKey = "favorite_colors"

// EventPublisher receives a notification for every stored option change.
type EventPublisher interface {
	Publish(event eventbus.Event)
}

// OptionsStore reads and writes per-entity option mappings. Unrelated keys
// inside an option domain are preserved across writes.
type OptionsStore struct {
	db     *sql.DB
	events EventPublisher
	mu     sync.Mutex
}

// NewOptionsStore creates a store over an opened database. events may be
// nil when nothing needs to react to option changes.
func NewOptionsStore(db *sql.DB, events EventPublisher) *OptionsStore {
	return &OptionsStore{db: db, events: events}
}

// Options returns the option mapping of one entity and domain. A missing
// row yields nil, not an error.
func (s *OptionsStore) Options(entityID, domain string) (map[string]any, error) {
	var payload string
	err := s.db.QueryRow(`
		SELECT options FROM entity_options
		WHERE entity_id = ? AND domain = ?
	`, entityID, domain).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}

	var options map[string]any
	if err := json.Unmarshal([]byte(payload), &options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return options, nil
}

// SetOptions replaces the option mapping of one entity and domain.
func (s *OptionsStore) SetOptions(entityID, domain string, options map[string]any) error {
	payload, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO entity_options (entity_id, domain, options, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_id, domain) DO UPDATE SET
			options = excluded.options,
			updated_at = excluded.updated_at
	`, entityID, domain, string(payload), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to store options: %w", err)
	}

	if s.events != nil {
		s.events.Publish(eventbus.Event{
			Type:     eventbus.EventTypeOptionsUpdated,
			EntityID: entityID,
		})
	}
	return nil
}

// FavoriteColors returns the favorite colors stored for a light entity.
// Nil means no favorite colors are stored.
func (s *OptionsStore) FavoriteColors(entityID string) ([]light.Color, error) {
	options, err := s.Options(entityID, lightOptionsDomain)
	if err != nil {
		return nil, err
	}
	raw, ok := options[favoriteColorsKey].([]any)
	if !ok {
		return nil, nil
	}

	colors := make([]light.Color, 0, len(raw))
	for _, item := range raw {
		attrs, ok := item.(map[string]any)
		if !ok {
			continue
		}
		colors = append(colors, light.Color(attrs))
	}
	return colors, nil
}

// SetFavoriteColors stores the favorite colors of a light entity,
// preserving the other keys of its light options. A nil color list removes
// the favorite_colors key.
func (s *OptionsStore) SetFavoriteColors(entityID string, colors []light.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.Options(entityID, lightOptionsDomain)
	if err != nil {
		return err
	}
	if old == nil && colors == nil {
		return nil
	}

	options := make(map[string]any, len(old)+1)
	for key, value := range old {
		if key != favoriteColorsKey {
			options[key] = value
		}
	}
	if colors != nil {
		items := make([]any, len(colors))
		for i, color := range colors {
			items[i] = map[string]any(color)
		}
		options[favoriteColorsKey] = items
	}

	return s.SetOptions(entityID, lightOptionsDomain, options)
}
