package light

import (
	"testing"
	"time"
)

func intPtr(v int) *int {
	return &v
}

func durPtr(d time.Duration) *time.Duration {
	return &d
}

func TestProfileApply_FillsMissingOnly(t *testing.T) {
	profile := &Profile{
		Name:       "relax",
		Color:      Color{AttrRGBColor: []int{1, 2, 3}},
		Brightness: intPtr(200),
	}
	params := map[string]any{AttrBrightness: 10}
	profile.Apply(params, true)

	if params[AttrBrightness] != 10 {
		t.Errorf("brightness = %v, caller's value must never be overwritten", params[AttrBrightness])
	}
	if _, ok := params[AttrRGBColor]; !ok {
		t.Error("profile color should be merged into params without color keys")
	}
	if len(params) != 2 {
		t.Errorf("params has %d keys, want 2: %v", len(params), params)
	}
}

func TestProfileApply_ColorSkippedWhenAnyColorKeyPresent(t *testing.T) {
	profile := &Profile{
		Name:  "relax",
		Color: Color{AttrRGBColor: []int{1, 2, 3}},
	}
	params := map[string]any{AttrColorTempKelvin: 2700}
	profile.Apply(params, true)

	if _, ok := params[AttrRGBColor]; ok {
		t.Error("profile color must not merge when params already carry a color encoding")
	}
}

func TestProfileApply_TransitionAlwaysFills(t *testing.T) {
	profile := &Profile{
		Name:       "relax",
		Brightness: intPtr(120),
		Transition: durPtr(2 * time.Second),
	}

	// Even without color/brightness merging, transition fills in.
	params := map[string]any{}
	profile.Apply(params, false)
	if params[AttrTransition] != 2.0 {
		t.Errorf("transition = %v, want 2.0", params[AttrTransition])
	}
	if _, ok := params[AttrBrightness]; ok {
		t.Error("brightness must not merge when mergeColorAndBrightness is false")
	}

	// An explicit transition wins.
	params = map[string]any{AttrTransition: 5.0}
	profile.Apply(params, true)
	if params[AttrTransition] != 5.0 {
		t.Errorf("transition = %v, explicit value must win", params[AttrTransition])
	}
}

func TestEffectiveBrightness(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		expected int
		ok       bool
	}{
		{"brightness_set", Profile{Brightness: intPtr(120)}, 120, true},
		{"white_fallback", Profile{Color: Color{AttrWhite: 80}}, 80, true},
		{"brightness_wins_over_white", Profile{Brightness: intPtr(120), Color: Color{AttrWhite: 80}}, 120, true},
		{"neither", Profile{Color: Color{AttrRGBColor: []int{1, 2, 3}}}, 0, false},
		{"empty", Profile{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.profile.EffectiveBrightness()
			if ok != tt.ok || got != tt.expected {
				t.Errorf("EffectiveBrightness() = %v, %v, want %v, %v", got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestLightConfig_DefaultProfile(t *testing.T) {
	first := &Profile{Name: "relax"}
	config := &LightConfig{Profiles: []*Profile{first, {Name: "focus"}}}
	if config.DefaultProfile() != first {
		t.Error("default profile should be the first configured profile")
	}
	if (&LightConfig{}).DefaultProfile() != nil {
		t.Error("default profile of an empty config should be nil")
	}
}

func TestLightConfig_FavoriteColorsFromProfiles(t *testing.T) {
	config := &LightConfig{Profiles: []*Profile{
		{Name: "relax", Color: Color{AttrRGBColor: []int{1, 2, 3}}},
		{Name: "white", Color: Color{AttrWhite: 255}},
		{Name: "plain"},
		{Name: "warm", Color: Color{AttrColorTempKelvin: 2700}},
	}}
	colors := config.FavoriteColorsFromProfiles()
	if len(colors) != 2 {
		t.Fatalf("got %d favorite colors, want 2 (white and colorless profiles excluded)", len(colors))
	}
	if _, ok := colors[0][AttrRGBColor]; !ok {
		t.Error("first favorite should be the rgb color")
	}
	if _, ok := colors[1][AttrColorTempKelvin]; !ok {
		t.Error("second favorite should be the kelvin color")
	}
}
