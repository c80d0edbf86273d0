package match

import (
	"github.com/lightctl/sceneryd/internal/entity"
	"github.com/lightctl/sceneryd/internal/light"
	"github.com/lightctl/sceneryd/internal/scene"
)

// ProfilesFunc looks up the profiles configured for a light entity. A nil
// or empty result means the entity has no known light configuration.
type ProfilesFunc func(entityID string) []*light.Profile

// RankScene scores a candidate scene against the current states of its
// member entities.
//
// A scene is a precise target: any field its criteria care about that is
// observably wrong vetoes the whole scene to zero. An entity with no
// retrievable current state is skipped instead, so flaky or unavailable
// entities neither penalize the score nor block the match.
//
// inferredProfiles carries the pre-inferred active profile name per entity;
// criteria with a profile tag compare against it rather than re-ranking.
func RankScene(states map[string]*entity.State, inferredProfiles map[string]string, sc *scene.Scene) int {
	score := 0
	for _, entityID := range sc.Entities {
		criterion := sc.Criteria[entityID]
		current := states[entityID]
		if !current.Retrievable() {
			continue
		}
		if criterion.State != current.State {
			return 0
		}
		score++

		if criterion.Profile != "" {
			if inferredProfiles[entityID] != criterion.Profile {
				return 0
			}
			score++
		}
		if criterion.Color != nil {
			if !light.StateMatchesColor(current.Attributes, criterion.Color) {
				return 0
			}
			score++
		}
		if criterion.Brightness != nil {
			if !light.StateMatchesBrightness(current.Attributes, *criterion.Brightness) {
				return 0
			}
			score++
		}
		for key, want := range criterion.Attributes {
			got, ok := current.Attributes[key]
			if !ok || !light.ValueEqual(want, got) {
				return 0
			}
			score++
		}
	}
	return score
}

// GuessScene returns the candidate scene that best matches the current
// entity states, or nil when none positively matched. Ties are broken by
// input order.
//
// Before scoring, the active profile of every referenced entity with a
// known light configuration is inferred once from its current attributes;
// scene criteria carrying profile tags are matched against these names.
func GuessScene(states map[string]*entity.State, scenes []*scene.Scene, profilesFor ProfilesFunc, tracer Tracer) *scene.Scene {
	inferred := inferProfiles(states, scenes, profilesFor, tracer)

	var best *scene.Scene
	bestScore := 0
	for _, candidate := range scenes {
		score := RankScene(states, inferred, candidate)
		tracer.trace("scene", candidate.Name, score)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best
}

// inferProfiles runs the profile ranker once per distinct entity referenced
// by any candidate scene.
func inferProfiles(states map[string]*entity.State, scenes []*scene.Scene, profilesFor ProfilesFunc, tracer Tracer) map[string]string {
	inferred := make(map[string]string)
	if profilesFor == nil {
		return inferred
	}
	done := make(map[string]struct{})
	for _, candidate := range scenes {
		for _, entityID := range candidate.Entities {
			if _, ok := done[entityID]; ok {
				continue
			}
			done[entityID] = struct{}{}

			current := states[entityID]
			if !current.Retrievable() {
				continue
			}
			profiles := profilesFor(entityID)
			if len(profiles) == 0 {
				continue
			}
			if profile := GuessProfile(current.Attributes, profiles, tracer); profile != nil {
				inferred[entityID] = profile.Name
			}
		}
	}
	return inferred
}
