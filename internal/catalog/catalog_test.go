package catalog

import (
	"testing"

	"github.com/lightctl/sceneryd/internal/config"
	"github.com/lightctl/sceneryd/internal/light"
)

func intPtr(v int) *int {
	return &v
}

func testConfig() *config.Config {
	return &config.Config{
		Profiles: []config.ProfileConfig{
			{Name: "relax", Brightness: intPtr(120), Color: map[string]any{light.AttrRGBColor: []any{255, 160, 80}}},
			{Name: "focus", Brightness: intPtr(254), Color: map[string]any{light.AttrColorTempKelvin: 4000}},
		},
		Lights: []config.LightConfig{
			{
				EntityIDs:      config.StringList{"light.sofa", "light.chair"},
				Profiles:       []string{"relax", "focus"},
				FavoriteColors: []map[string]any{{light.AttrColorTempKelvin: 2700}},
				ProfileSelect:  &config.SelectConfig{OffOption: "Off"},
			},
		},
		SceneGroups: []config.SceneGroupConfig{
			{
				Name: "living room",
				Scenes: []config.SceneConfig{
					{
						Name: "movie",
						Entities: config.SceneEntities{
							{EntityID: "light.sofa", State: "on", Attributes: map[string]any{"profile": "relax"}},
							{EntityID: "light.tv", State: "off"},
						},
					},
				},
			},
		},
	}
}

func TestBuild_Lookups(t *testing.T) {
	c := Build(testConfig())

	if p := c.Profile("relax"); p == nil || p.Brightness == nil || *p.Brightness != 120 {
		t.Errorf("Profile(relax) = %+v", p)
	}
	if c.Profile("nope") != nil {
		t.Error("unknown profile should be nil")
	}
	if len(c.Profiles()) != 2 || c.Profiles()[0].Name != "relax" {
		t.Errorf("Profiles() order wrong: %v", c.Profiles())
	}

	// Both entity IDs share one light configuration.
	sofa := c.LightConfig("light.sofa")
	if sofa == nil || sofa != c.LightConfig("light.chair") {
		t.Error("entity IDs of one light block should share a LightConfig")
	}
	if sofa.DefaultProfile().Name != "relax" {
		t.Errorf("default profile = %q, want relax (first listed)", sofa.DefaultProfile().Name)
	}
	if got := c.ProfilesFor("light.sofa"); len(got) != 2 {
		t.Errorf("ProfilesFor = %v", got)
	}
	if c.ProfilesFor("light.unknown") != nil {
		t.Error("ProfilesFor of unconfigured entity should be nil")
	}

	group := c.SceneGroup("living room")
	if group == nil || len(group.Scenes) != 1 {
		t.Fatalf("SceneGroup = %+v", group)
	}
	baked := group.Scenes[0].States["light.sofa"]
	if _, ok := baked.Attributes[light.AttrRGBColor]; !ok {
		t.Error("scene profile tag should be baked into the stored state at build time")
	}
}

func TestApplyDefault_MergeContexts(t *testing.T) {
	c := Build(testConfig())

	// Light off: full merge.
	params := map[string]any{}
	if !c.ApplyDefault("light.sofa", false, params) {
		t.Fatal("ApplyDefault should handle a configured light")
	}
	if params[light.AttrBrightness] != 120 {
		t.Errorf("brightness = %v, want 120", params[light.AttrBrightness])
	}

	// Light already on with explicit params: only transition would fill.
	params = map[string]any{light.AttrBrightness: 30}
	c.ApplyDefault("light.sofa", true, params)
	if _, ok := params[light.AttrRGBColor]; ok {
		t.Error("explicit request on a lit light must not acquire profile color")
	}
	if params[light.AttrBrightness] != 30 {
		t.Error("explicit brightness must win")
	}

	// Light on but bare request: merge anyway.
	params = map[string]any{}
	c.ApplyDefault("light.sofa", true, params)
	if params[light.AttrBrightness] != 120 {
		t.Errorf("bare turn-on should fill brightness, got %v", params[light.AttrBrightness])
	}

	if c.ApplyDefault("light.unknown", false, map[string]any{}) {
		t.Error("unconfigured entity should not be handled")
	}
}

func TestApplyProfile(t *testing.T) {
	c := Build(testConfig())

	params := map[string]any{}
	if !c.ApplyProfile("focus", params) {
		t.Fatal("ApplyProfile should handle a known profile")
	}
	if params[light.AttrBrightness] != 254 {
		t.Errorf("brightness = %v, want 254", params[light.AttrBrightness])
	}
	if c.ApplyProfile("nope", map[string]any{}) {
		t.Error("unknown profile should fall through")
	}
}

type recordingApplier struct {
	defaults int
	profiles int
	handled  bool
}

func (r *recordingApplier) ApplyDefault(string, bool, map[string]any) bool {
	r.defaults++
	return r.handled
}

func (r *recordingApplier) ApplyProfile(string, map[string]any) bool {
	r.profiles++
	return r.handled
}

func TestChain_FallsThroughOnNegativeResult(t *testing.T) {
	c := Build(testConfig())
	fallback := &recordingApplier{handled: true}
	chain := NewChain(c, nil, fallback)

	// Handled by the catalog: fallback never sees it.
	if !chain.ApplyProfile("relax", map[string]any{}) {
		t.Fatal("chain should handle a known profile")
	}
	if fallback.profiles != 0 {
		t.Error("fallback should not run when the catalog handled the request")
	}

	// Unknown to the catalog: control falls through.
	if !chain.ApplyProfile("host-profile", map[string]any{}) {
		t.Fatal("chain should delegate unknown profiles to the fallback")
	}
	if fallback.profiles != 1 {
		t.Errorf("fallback saw %d profile requests, want 1", fallback.profiles)
	}

	if !chain.ApplyDefault("light.unknown", false, map[string]any{}) {
		t.Fatal("chain should delegate unknown entities to the fallback")
	}
	if fallback.defaults != 1 {
		t.Errorf("fallback saw %d default requests, want 1", fallback.defaults)
	}
}
