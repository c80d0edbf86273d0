// Package match infers which profile or scene is currently active from
// observed entity states. Inference is best-effort classification with no
// ground truth: candidates are scored by approximate attribute matching and
// the best positive score wins. All functions are pure and safe for
// concurrent use.
package match

import "github.com/lightctl/sceneryd/internal/light"

// RankProfile scores a candidate profile against a light's observed
// attributes.
//
// Color is load-bearing: a profile that specifies a color scores zero
// unless the observed state matches it, and +2 when it does. Brightness is
// advisory: a matching effective brightness adds +1, while absence or
// mismatch merely forfeits the point, since users dim lights without
// leaving the profile.
func RankProfile(observed map[string]any, profile *light.Profile) int {
	score := 0
	if profile.Color != nil {
		if !light.StateMatchesColor(observed, profile.Color) {
			return 0
		}
		score += 2
	}
	if brightness, ok := profile.EffectiveBrightness(); ok && light.StateMatchesBrightness(observed, brightness) {
		score++
	}
	return score
}

// GuessProfile returns the candidate profile that best matches the
// observed attributes, or nil when no candidate positively matched. Ties
// are broken by input order: the first-listed candidate wins.
func GuessProfile(observed map[string]any, profiles []*light.Profile, tracer Tracer) *light.Profile {
	var best *light.Profile
	bestScore := 0
	for _, profile := range profiles {
		score := RankProfile(observed, profile)
		tracer.trace("profile", profile.Name, score)
		if score > bestScore {
			best = profile
			bestScore = score
		}
	}
	return best
}
