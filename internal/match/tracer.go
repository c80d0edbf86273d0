package match

// Tracer receives the score computed for each ranked candidate. It exists
// for debug observability only; ranking behavior never depends on it and a
// nil Tracer costs nothing.
type Tracer func(kind, candidate string, score int)

func (t Tracer) trace(kind, candidate string, score int) {
	if t != nil {
		t(kind, candidate, score)
	}
}
