package scene

import (
	"github.com/lightctl/sceneryd/internal/light"
)

// AttrProfile tags a scene member state with a profile name. The tag is
// consumed at scene construction time and by the scene ranker; it is never
// sent to the host.
const AttrProfile = "profile"

// Criterion is the matching-relevant reduction of one entity's target
// state: the required state token plus the optional fields the scene ranker
// compares. Constructed once when a scene is loaded, never mutated.
type Criterion struct {
	// State is the required state token. Always present.
	State string
	// Color is the target color, nil when the state specifies none.
	Color light.Color
	// Brightness is the target brightness, nil when unspecified.
	Brightness *int
	// Profile is the profile tag, empty when unspecified.
	Profile string
	// Attributes holds the remaining free-form attributes, excluding all
	// color, brightness, profile and transition keys.
	Attributes map[string]any
}

// criterionExcludedAttrs are the attribute keys lifted into dedicated
// Criterion fields, or meaningless for matching (transition is a command
// modifier, never observable on a light).
var criterionExcludedAttrs = func() map[string]struct{} {
	excluded := map[string]struct{}{
		light.AttrBrightness: {},
		light.AttrTransition: {},
		AttrProfile:          {},
	}
	for _, attr := range light.AnyColorAttrs {
		excluded[attr] = struct{}{}
	}
	return excluded
}()

// NewCriterion derives a Criterion from a target state token and its
// attribute mapping.
func NewCriterion(state string, attrs map[string]any) *Criterion {
	c := &Criterion{
		State: state,
		Color: light.ExtractColor(attrs),
	}
	if brightness, ok := intAttr(attrs, light.AttrBrightness); ok {
		c.Brightness = &brightness
	}
	if profile, ok := attrs[AttrProfile].(string); ok {
		c.Profile = profile
	}
	for key, value := range attrs {
		if _, ok := criterionExcludedAttrs[key]; ok {
			continue
		}
		if c.Attributes == nil {
			c.Attributes = make(map[string]any)
		}
		c.Attributes[key] = value
	}
	return c
}

func intAttr(attrs map[string]any, key string) (int, bool) {
	switch v := attrs[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
