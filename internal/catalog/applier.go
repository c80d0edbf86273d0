package catalog

// Applier fills missing turn-on parameters from profile data. A false
// return means the applier had nothing to say about the request and the
// next applier in a chain gets its turn.
type Applier interface {
	// ApplyDefault fills params from the default profile of an entity.
	// stateOn reports whether the light is currently on; color and
	// brightness only merge when the light is off or the request carries
	// no explicit parameters.
	ApplyDefault(entityID string, stateOn bool, params map[string]any) bool
	// ApplyProfile fills params from a named profile.
	ApplyProfile(name string, params map[string]any) bool
}

// ApplyDefault applies the entity's configured default profile. Returns
// false when the entity has no light configuration or no profiles.
func (c *Catalog) ApplyDefault(entityID string, stateOn bool, params map[string]any) bool {
	lightConfig := c.lightConfigs[entityID]
	if lightConfig == nil {
		return false
	}
	profile := lightConfig.DefaultProfile()
	if profile == nil {
		return false
	}
	profile.Apply(params, !stateOn || len(params) == 0)
	return true
}

// ApplyProfile applies a profile by name. An explicitly named profile
// always merges color and brightness; explicit params still win per key.
// Returns false for unknown names.
func (c *Catalog) ApplyProfile(name string, params map[string]any) bool {
	profile := c.profiles[name]
	if profile == nil {
		return false
	}
	profile.Apply(params, true)
	return true
}

// Chain composes appliers: each request is tried in order and the first
// applier that handles it wins. This replaces patching a shared profile
// table; the host wires its own default-profile applier after the catalog
// at startup.
type Chain []Applier

// NewChain builds an applier chain. Nil members are skipped.
func NewChain(appliers ...Applier) Chain {
	chain := make(Chain, 0, len(appliers))
	for _, applier := range appliers {
		if applier != nil {
			chain = append(chain, applier)
		}
	}
	return chain
}

// ApplyDefault implements Applier.
func (c Chain) ApplyDefault(entityID string, stateOn bool, params map[string]any) bool {
	for _, applier := range c {
		if applier.ApplyDefault(entityID, stateOn, params) {
			return true
		}
	}
	return false
}

// ApplyProfile implements Applier.
func (c Chain) ApplyProfile(name string, params map[string]any) bool {
	for _, applier := range c {
		if applier.ApplyProfile(name, params) {
			return true
		}
	}
	return false
}
