// Package light models light attributes: colors across their physical
// encodings, profiles, and the tolerance-based comparators used to decide
// whether an observed light state matches a configured target.
package light

import (
	"strings"

	"golang.org/x/image/colornames"
)

// Light attribute names, matching the statestream wire format.
const (
	AttrBrightness      = "brightness"
	AttrColorMode       = "color_mode"
	AttrColorName       = "color_name"
	AttrColorTempKelvin = "color_temp_kelvin"
	AttrHSColor         = "hs_color"
	AttrRGBColor        = "rgb_color"
	AttrRGBWColor       = "rgbw_color"
	AttrRGBWWColor      = "rgbww_color"
	AttrTransition      = "transition"
	AttrWhite           = "white"
	AttrXYColor         = "xy_color"
)

// ColorModeWhite is the color mode reported by a light running in plain
// white mode.
const ColorModeWhite = "white"

// FavoriteColorAttrs are the encodings a favorite color may use.
// XY, bare white and symbolic names are excluded.
var FavoriteColorAttrs = []string{
	AttrColorTempKelvin,
	AttrHSColor,
	AttrRGBColor,
	AttrRGBWColor,
	AttrRGBWWColor,
}

// AnyColorAttrs are all color encodings the backend understands.
var AnyColorAttrs = []string{
	AttrColorTempKelvin,
	AttrHSColor,
	AttrRGBColor,
	AttrRGBWColor,
	AttrRGBWWColor,
	AttrXYColor,
	AttrWhite,
	AttrColorName,
}

// Color is a sparse mapping from a color encoding attribute to its value.
// A valid color carries at most one encoding key; the schema layer enforces
// mutual exclusivity, this package only assumes it. Values keep the shape
// they had on the wire (numbers, or sequences of numbers).
type Color map[string]any

// ExtractColor pulls the color encoding keys out of a generic attribute
// mapping. Returns nil when no color attribute is present: a color with
// zero keys is normalized to absent, never to an empty mapping.
func ExtractColor(attrs map[string]any) Color {
	var color Color
	for _, attr := range AnyColorAttrs {
		if v, ok := attrs[attr]; ok {
			if color == nil {
				color = make(Color, 1)
			}
			color[attr] = v
		}
	}
	return color
}

// HasColorAttrs reports whether the attribute mapping carries any of the
// recognized color encoding keys.
func HasColorAttrs(attrs map[string]any) bool {
	for _, attr := range AnyColorAttrs {
		if _, ok := attrs[attr]; ok {
			return true
		}
	}
	return false
}

// IsFavoriteColor reports whether the color qualifies for the favorite
// color list: exactly one encoding key, and that key is one of the rich
// encodings (kelvin, hue/sat, RGB, RGBW, RGBWW).
func IsFavoriteColor(color Color) bool {
	if len(color) != 1 {
		return false
	}
	for _, attr := range FavoriteColorAttrs {
		if _, ok := color[attr]; ok {
			return true
		}
	}
	return false
}

// Equal reports whether two colors are attribute-for-attribute identical.
// Numeric values compare by value regardless of the wire type they arrived
// with (YAML ints, JSON floats).
func (c Color) Equal(other Color) bool {
	if len(c) != len(other) {
		return false
	}
	for attr, v := range c {
		ov, ok := other[attr]
		if !ok || !ValueEqual(v, ov) {
			return false
		}
	}
	return true
}

// UniqueColors removes colors that are attribute-for-attribute identical,
// preserving first-occurrence order. Idempotent.
func UniqueColors(colors []Color) []Color {
	result := make([]Color, 0, len(colors))
	for _, color := range colors {
		seen := false
		for _, kept := range result {
			if kept.Equal(color) {
				seen = true
				break
			}
		}
		if !seen {
			result = append(result, color)
		}
	}
	return result
}

// ResolveColorName maps a symbolic CSS color name to an RGB triple.
// Names are case-insensitive and may contain spaces ("light blue").
func ResolveColorName(name string) ([3]int, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	rgba, ok := colornames.Map[normalized]
	if !ok {
		return [3]int{}, false
	}
	return [3]int{int(rgba.R), int(rgba.G), int(rgba.B)}, true
}

// ValueEqual compares two attribute values, normalizing numbers and
// numeric sequences so that YAML- and JSON-decoded values of the same
// attribute compare equal.
func ValueEqual(a, b any) bool {
	if af, ok := floatValue(a); ok {
		bf, ok := floatValue(b)
		return ok && af == bf
	}
	if as, ok := floatSlice(a); ok {
		bs, ok := floatSlice(b)
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
		return true
	}
	return a == b
}

// floatValue coerces a scalar attribute value to float64. JSON decodes
// numbers as float64, YAML as int or float64.
func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	}
	return 0, false
}

// intValue coerces a scalar attribute value to int.
func intValue(v any) (int, bool) {
	f, ok := floatValue(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// floatSlice coerces a sequence attribute value to []float64.
func floatSlice(v any) ([]float64, bool) {
	switch seq := v.(type) {
	case []float64:
		return seq, true
	case []int:
		result := make([]float64, len(seq))
		for i, n := range seq {
			result[i] = float64(n)
		}
		return result, true
	case []any:
		result := make([]float64, len(seq))
		for i, item := range seq {
			f, ok := floatValue(item)
			if !ok {
				return nil, false
			}
			result[i] = f
		}
		return result, true
	}
	return nil, false
}

// floatTuple coerces a sequence attribute value to exactly n components.
func floatTuple(v any, n int) ([]float64, bool) {
	seq, ok := floatSlice(v)
	if !ok || len(seq) != n {
		return nil, false
	}
	return seq, true
}
