package scene

import (
	"testing"

	"github.com/lightctl/sceneryd/internal/entity"
	"github.com/lightctl/sceneryd/internal/light"
)

func intPtr(v int) *int {
	return &v
}

func testProfiles(name string) *light.Profile {
	if name == "relax" {
		return &light.Profile{
			Name:       "relax",
			Color:      light.Color{light.AttrRGBColor: []int{255, 160, 80}},
			Brightness: intPtr(120),
		}
	}
	return nil
}

func TestNew_BakesProfileIntoOnState(t *testing.T) {
	sc := New("movie", "", nil, []*entity.State{
		{EntityID: "light.sofa", State: "on", Attributes: map[string]any{AttrProfile: "relax"}},
	}, testProfiles)

	baked := sc.States["light.sofa"]
	if baked == nil {
		t.Fatal("baked state missing")
	}
	if _, ok := baked.Attributes[AttrProfile]; ok {
		t.Error("profile tag must be stripped from the stored state")
	}
	if _, ok := baked.Attributes[light.AttrRGBColor]; !ok {
		t.Error("profile color should be baked into the stored state")
	}
	if baked.Attributes[light.AttrBrightness] != 120 {
		t.Errorf("brightness = %v, want 120", baked.Attributes[light.AttrBrightness])
	}
	// The criterion keeps the tag for matching.
	if sc.Criteria["light.sofa"].Profile != "relax" {
		t.Errorf("criterion profile = %q, want relax", sc.Criteria["light.sofa"].Profile)
	}
}

func TestNew_OffStateDoesNotAcquireColorOrBrightness(t *testing.T) {
	sc := New("night", "", nil, []*entity.State{
		{EntityID: "light.sofa", State: "off", Attributes: map[string]any{AttrProfile: "relax"}},
	}, testProfiles)

	baked := sc.States["light.sofa"]
	if _, ok := baked.Attributes[light.AttrRGBColor]; ok {
		t.Error("an off target must not acquire stray color")
	}
	if _, ok := baked.Attributes[light.AttrBrightness]; ok {
		t.Error("an off target must not acquire stray brightness")
	}
	if _, ok := baked.Attributes[AttrProfile]; ok {
		t.Error("profile tag must still be stripped")
	}
}

func TestNew_ExplicitAttributesWinOverProfile(t *testing.T) {
	sc := New("movie", "", nil, []*entity.State{
		{EntityID: "light.sofa", State: "on", Attributes: map[string]any{
			AttrProfile:          "relax",
			light.AttrBrightness: 10,
		}},
	}, testProfiles)

	baked := sc.States["light.sofa"]
	if baked.Attributes[light.AttrBrightness] != 10 {
		t.Errorf("brightness = %v, explicit scene attribute must win", baked.Attributes[light.AttrBrightness])
	}
}

func TestNew_UnknownProfileStrippedWithNothingSubstituted(t *testing.T) {
	sc := New("movie", "", nil, []*entity.State{
		{EntityID: "light.sofa", State: "on", Attributes: map[string]any{AttrProfile: "missing"}},
	}, testProfiles)

	baked := sc.States["light.sofa"]
	if len(baked.Attributes) != 0 {
		t.Errorf("attributes = %v, want empty after stripping an unknown profile", baked.Attributes)
	}
}

func TestNew_DoesNotMutateInput(t *testing.T) {
	attrs := map[string]any{AttrProfile: "relax"}
	New("movie", "", nil, []*entity.State{
		{EntityID: "light.sofa", State: "on", Attributes: attrs},
	}, testProfiles)
	if len(attrs) != 1 {
		t.Errorf("input attributes mutated: %v", attrs)
	}
}

func TestNew_KeySetsMatch(t *testing.T) {
	sc := New("movie", "", nil, []*entity.State{
		{EntityID: "light.sofa", State: "on", Attributes: map[string]any{AttrProfile: "relax"}},
		{EntityID: "light.tv", State: "off", Attributes: nil},
	}, testProfiles)

	if len(sc.Entities) != 2 || len(sc.States) != 2 || len(sc.Criteria) != 2 {
		t.Fatalf("entities/states/criteria sizes diverge: %d/%d/%d", len(sc.Entities), len(sc.States), len(sc.Criteria))
	}
	for _, entityID := range sc.Entities {
		if sc.States[entityID] == nil {
			t.Errorf("no stored state for %s", entityID)
		}
		if sc.Criteria[entityID] == nil {
			t.Errorf("no criterion for %s", entityID)
		}
	}
}

func TestNewGroup_EntityUnionInFirstReferenceOrder(t *testing.T) {
	movie := New("movie", "", nil, []*entity.State{
		{EntityID: "light.sofa", State: "on"},
		{EntityID: "light.tv", State: "off"},
	}, testProfiles)
	bright := New("bright", "", nil, []*entity.State{
		{EntityID: "light.ceiling", State: "on"},
		{EntityID: "light.sofa", State: "on"},
	}, testProfiles)

	group := NewGroup("living room", []*Scene{movie, bright}, nil)
	want := []string{"light.sofa", "light.tv", "light.ceiling"}
	if len(group.Entities) != len(want) {
		t.Fatalf("entities = %v, want %v", group.Entities, want)
	}
	for i := range want {
		if group.Entities[i] != want[i] {
			t.Errorf("entities[%d] = %s, want %s", i, group.Entities[i], want[i])
		}
	}
	if group.Scene("bright") != bright {
		t.Error("Scene lookup by name failed")
	}
	if group.Scene("nope") != nil {
		t.Error("unknown scene name should return nil")
	}
}
