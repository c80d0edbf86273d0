package light

import "math"

// Match tolerances. Heuristic, not perceptually calibrated; fixed by the
// matching contract and not configurable.
const (
	ToleranceHue          = 2    // degrees, range 0 to 360
	ToleranceSaturation   = 2    // range 0 to 100
	TolerancePrimary      = 2    // per channel, range 0 to 255
	ToleranceChromaticity = 0.05 // range 0 to 1
	ToleranceKelvin       = 100  // range 2000 to 6800
	ToleranceBrightness   = 2    // range 0 to 255
)

// CompareHue compares two hue angles under circular wraparound, so 359 and
// 1 are 2 degrees apart, not 358.
func CompareHue(a, b float64) bool {
	delta := math.Abs(math.Mod(a-b, 360))
	if delta > 180 {
		delta = 360 - delta
	}
	return delta <= ToleranceHue
}

// CompareSaturation compares two saturation percentages.
func CompareSaturation(a, b float64) bool {
	return math.Abs(a-b) <= ToleranceSaturation
}

// ComparePrimary compares two primary channel values.
func ComparePrimary(a, b float64) bool {
	return math.Abs(float64(int(a)-int(b))) <= TolerancePrimary
}

// CompareChromaticity compares two CIE chromaticity components.
func CompareChromaticity(a, b float64) bool {
	return math.Abs(a-b) <= ToleranceChromaticity
}

// CompareKelvin compares two color temperatures.
func CompareKelvin(a, b int) bool {
	delta := a - b
	if delta < 0 {
		delta = -delta
	}
	return delta <= ToleranceKelvin
}

// CompareBrightness compares two brightness values.
func CompareBrightness(a, b int) bool {
	delta := a - b
	if delta < 0 {
		delta = -delta
	}
	return delta <= ToleranceBrightness
}

// StateMatchesColor compares a light state's attributes to a color for
// approximate equivalence.
//
// The comparison is not symmetric. The observed side is a full attribute
// mapping which may expose several equivalent color representations at
// once; the candidate is a single-encoding Color. The first encoding both
// sides expose decides the outcome; no overlapping encoding means no match.
func StateMatchesColor(observed map[string]any, candidate Color) bool {
	if name, ok := candidate[AttrColorName].(string); ok {
		rgb, ok := ResolveColorName(name)
		if !ok {
			return false
		}
		candidate = Color{AttrRGBColor: []float64{float64(rgb[0]), float64(rgb[1]), float64(rgb[2])}}
	}
	if _, ok := candidate[AttrWhite]; ok {
		// A bare white target only requires the light to run in white
		// mode; the intensity value itself is not compared.
		mode, _ := observed[AttrColorMode].(string)
		return mode == ColorModeWhite
	}

	if aKelvin, ok := intValue(observed[AttrColorTempKelvin]); ok {
		if bKelvin, ok := intValue(candidate[AttrColorTempKelvin]); ok && CompareKelvin(aKelvin, bKelvin) {
			return true
		}
	}
	if matchTuple(observed, candidate, AttrRGBWWColor, 5, ComparePrimary) {
		return true
	}
	if matchTuple(observed, candidate, AttrRGBWColor, 4, ComparePrimary) {
		return true
	}
	if matchTuple(observed, candidate, AttrRGBColor, 3, ComparePrimary) {
		return true
	}
	if aHS, ok := floatTuple(observed[AttrHSColor], 2); ok {
		if bHS, ok := floatTuple(candidate[AttrHSColor], 2); ok &&
			CompareHue(aHS[0], bHS[0]) && CompareSaturation(aHS[1], bHS[1]) {
			return true
		}
	}
	if matchTuple(observed, candidate, AttrXYColor, 2, CompareChromaticity) {
		return true
	}

	return false
}

// StateMatchesBrightness compares a light state's brightness attribute to a
// target brightness. An absent brightness attribute never matches.
func StateMatchesBrightness(observed map[string]any, brightness int) bool {
	observedBri, ok := intValue(observed[AttrBrightness])
	return ok && CompareBrightness(observedBri, brightness)
}

// matchTuple compares one tuple-valued encoding attribute component by
// component. Every component must be within tolerance.
func matchTuple(observed map[string]any, candidate Color, attr string, n int, compare func(a, b float64) bool) bool {
	a, ok := floatTuple(observed[attr], n)
	if !ok {
		return false
	}
	b, ok := floatTuple(candidate[attr], n)
	if !ok {
		return false
	}
	for i := 0; i < n; i++ {
		if !compare(a[i], b[i]) {
			return false
		}
	}
	return true
}
