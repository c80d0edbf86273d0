// Package entity holds the minimal model of a host entity state shared by
// the matching engine and the transport layer.
package entity

import "strings"

// Well-known state tokens.
const (
	StateOn          = "on"
	StateOff         = "off"
	StateUnavailable = "unavailable"
	StateUnknown     = "unknown"
)

// LightDomain is the entity domain of lights.
const LightDomain = "light"

// State is a snapshot of one entity's observed or target state: a state
// token plus an opaque attribute mapping.
type State struct {
	EntityID   string
	State      string
	Attributes map[string]any
}

// Retrievable reports whether the state carries usable information. States
// of unavailable or unknown entities are treated the same as missing ones.
func (s *State) Retrievable() bool {
	return s != nil && s.State != "" && s.State != StateUnavailable && s.State != StateUnknown
}

// Domain extracts the domain prefix of an entity ID ("light.sofa" -> "light").
func Domain(entityID string) string {
	if i := strings.IndexByte(entityID, '.'); i >= 0 {
		return entityID[:i]
	}
	return ""
}
