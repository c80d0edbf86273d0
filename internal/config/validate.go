package config

import (
	"fmt"

	"github.com/lightctl/sceneryd/internal/light"
)

// Validate checks the cross-cutting configuration invariants the rest of
// the system assumes: unique profile names, unique light entity IDs, known
// profile references, and well-formed color mappings.
func (c *Config) Validate() error {
	profileNames := make(map[string]struct{}, len(c.Profiles))
	for _, profile := range c.Profiles {
		if profile.Name == "" {
			return fmt.Errorf("profile without a name")
		}
		if _, ok := profileNames[profile.Name]; ok {
			return fmt.Errorf("duplicate profile name %q", profile.Name)
		}
		profileNames[profile.Name] = struct{}{}

		if len(profile.Color) > 0 {
			if err := validateColor(profile.Color); err != nil {
				return fmt.Errorf("profile %q: %w", profile.Name, err)
			}
		}
		if profile.Brightness != nil && (*profile.Brightness < 0 || *profile.Brightness > 255) {
			return fmt.Errorf("profile %q: brightness %d out of range 0-255", profile.Name, *profile.Brightness)
		}
		if profile.Transition != nil && *profile.Transition < 0 {
			return fmt.Errorf("profile %q: transition must not be negative", profile.Name)
		}
	}

	entityIDs := make(map[string]struct{})
	for _, lightCfg := range c.Lights {
		if len(lightCfg.EntityIDs) == 0 {
			return fmt.Errorf("light configuration without entity_id")
		}
		for _, entityID := range lightCfg.EntityIDs {
			if _, ok := entityIDs[entityID]; ok {
				return fmt.Errorf("duplicate light entity ID %q", entityID)
			}
			entityIDs[entityID] = struct{}{}
		}
		for _, name := range lightCfg.Profiles {
			if _, ok := profileNames[name]; !ok {
				return fmt.Errorf("light configuration references unknown profile %q", name)
			}
		}
		for i, colorAttrs := range lightCfg.FavoriteColors {
			if err := validateFavoriteColor(colorAttrs); err != nil {
				return fmt.Errorf("favorite color %d of %v: %w", i, lightCfg.EntityIDs, err)
			}
		}
	}

	return nil
}

// validateColor checks that a color mapping carries exactly one known
// encoding key with a plausible value shape.
func validateColor(attrs map[string]any) error {
	color := light.ExtractColor(attrs)
	if len(color) != len(attrs) {
		return fmt.Errorf("color carries unknown attributes: %v", attrs)
	}
	if len(color) > 1 {
		return fmt.Errorf("color must use a single encoding, got %d", len(color))
	}
	for attr, value := range color {
		if err := validateColorValue(attr, value); err != nil {
			return err
		}
	}
	return nil
}

func validateFavoriteColor(attrs map[string]any) error {
	if err := validateColor(attrs); err != nil {
		return err
	}
	if !light.IsFavoriteColor(light.Color(attrs)) {
		return fmt.Errorf("favorite colors must use one of %v", light.FavoriteColorAttrs)
	}
	return nil
}

func validateColorValue(attr string, value any) error {
	switch attr {
	case light.AttrColorTempKelvin:
		return validateRange(attr, value, 1, 0, 40000)
	case light.AttrWhite:
		return validateRange(attr, value, 1, 0, 255)
	case light.AttrHSColor:
		seq, err := numberSeq(attr, value, 2)
		if err != nil {
			return err
		}
		if seq[0] < 0 || seq[0] > 360 {
			return fmt.Errorf("%s: hue %v out of range 0-360", attr, seq[0])
		}
		if seq[1] < 0 || seq[1] > 100 {
			return fmt.Errorf("%s: saturation %v out of range 0-100", attr, seq[1])
		}
	case light.AttrRGBColor:
		return validateRange(attr, value, 3, 0, 255)
	case light.AttrRGBWColor:
		return validateRange(attr, value, 4, 0, 255)
	case light.AttrRGBWWColor:
		return validateRange(attr, value, 5, 0, 255)
	case light.AttrXYColor:
		return validateRange(attr, value, 2, 0, 1)
	case light.AttrColorName:
		name, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: must be a string", attr)
		}
		if _, ok := light.ResolveColorName(name); !ok {
			return fmt.Errorf("%s: unknown color name %q", attr, name)
		}
	}
	return nil
}

// validateRange checks a scalar (n == 1) or an n-component sequence
// against an inclusive value range.
func validateRange(attr string, value any, n int, min, max float64) error {
	var seq []float64
	if n == 1 {
		f, ok := scalarNumber(value)
		if !ok {
			return fmt.Errorf("%s: must be a number", attr)
		}
		seq = []float64{f}
	} else {
		var err error
		seq, err = numberSeq(attr, value, n)
		if err != nil {
			return err
		}
	}
	for _, f := range seq {
		if f < min || f > max {
			return fmt.Errorf("%s: component %v out of range %v-%v", attr, f, min, max)
		}
	}
	return nil
}

func numberSeq(attr string, value any, n int) ([]float64, error) {
	items, ok := value.([]any)
	if !ok || len(items) != n {
		return nil, fmt.Errorf("%s: must be a sequence of %d numbers", attr, n)
	}
	seq := make([]float64, n)
	for i, item := range items {
		f, ok := scalarNumber(item)
		if !ok {
			return nil, fmt.Errorf("%s: component %d is not a number", attr, i)
		}
		seq[i] = f
	}
	return seq, nil
}

func scalarNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
