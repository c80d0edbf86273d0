package light

import "time"

// Profile is a named preset of color, brightness and transition that fills
// in unspecified parameters when a light is turned on. Immutable after
// construction.
type Profile struct {
	Name       string
	Color      Color // nil if unset
	Brightness *int
	Transition *time.Duration
}

// EffectiveBrightness returns the profile's brightness, falling back to the
// bare white component of its color when brightness is unset.
func (p *Profile) EffectiveBrightness() (int, bool) {
	if p.Brightness != nil {
		return *p.Brightness, true
	}
	if p.Color != nil {
		if white, ok := intValue(p.Color[AttrWhite]); ok {
			return white, true
		}
	}
	return 0, false
}

// Apply merges the profile into a turn-on parameter bag, filling missing
// parameters only: a key already present in params always wins.
//
// Transition is always filled. Color and brightness are filled only when
// mergeColorAndBrightness is set; callers pass false when the light is
// already on with explicit parameters, or when baking an "off" target
// state, so neither acquires stray color or brightness.
func (p *Profile) Apply(params map[string]any, mergeColorAndBrightness bool) {
	if p.Transition != nil {
		if _, ok := params[AttrTransition]; !ok {
			params[AttrTransition] = p.Transition.Seconds()
		}
	}
	if !mergeColorAndBrightness {
		return
	}
	if p.Brightness != nil {
		if _, ok := params[AttrBrightness]; !ok {
			params[AttrBrightness] = *p.Brightness
		}
	}
	if p.Color != nil && !HasColorAttrs(params) {
		for attr, value := range p.Color {
			params[attr] = value
		}
	}
}

// SelectConfig configures an exposed selector for a light or scene group.
type SelectConfig struct {
	// OffOption, when set on a profile selector, is reported as the
	// current option while the light is off and turns the light off when
	// selected.
	OffOption string
	// UniqueID is an optional stable identifier for the selector.
	UniqueID string
}

// LightConfig bundles the profiles and favorite colors configured for one
// light entity.
type LightConfig struct {
	Profiles       []*Profile
	FavoriteColors []Color
	ProfileSelect  *SelectConfig
}

// DefaultProfile returns the first configured profile, or nil when the
// light has none.
func (c *LightConfig) DefaultProfile() *Profile {
	if len(c.Profiles) == 0 {
		return nil
	}
	return c.Profiles[0]
}

// FavoriteColorsFromProfiles returns the colors of member profiles that
// qualify as favorite colors.
func (c *LightConfig) FavoriteColorsFromProfiles() []Color {
	var colors []Color
	for _, profile := range c.Profiles {
		if IsFavoriteColor(profile.Color) {
			colors = append(colors, profile.Color)
		}
	}
	return colors
}
