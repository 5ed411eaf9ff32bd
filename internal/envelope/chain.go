package envelope

// ChainBuilder accumulates sub-envelopes produced by a sequence of
// resource calls for a single host, mirroring the original pattern of
// composing one ExecutionThunk from several resource functions via then()
// and executing them into a ResultChain.
type ChainBuilder struct {
	host    string
	results []Envelope
}

// NewChain starts a chain for host.
func NewChain(host string) *ChainBuilder {
	return &ChainBuilder{host: host, results: []Envelope{}}
}

// Append records the next sub-envelope's result in the chain.
func (c *ChainBuilder) Append(e Envelope) *ChainBuilder {
	c.results = append(c.results, e)
	return c
}

// Build finalizes the chain into a single Envelope.
func (c *ChainBuilder) Build() Envelope {
	return Envelope{Host: c.host, Results: c.results}
}

// Resource is a unit of work a chain link executes for a host.
type Resource func(host string) Envelope

// Thunk composes a sequence of resources that run in order against the
// same host, short-circuiting is deliberately NOT performed: every
// resource in the chain executes and reports its own outcome, matching
// the original ExecutionThunk.execute() semantics of collecting every
// sub-result regardless of earlier failures.
type Thunk struct {
	resources []Resource
}

// NewThunk builds a thunk from one resource call.
func NewThunk(r Resource) *Thunk {
	return &Thunk{resources: []Resource{r}}
}

// Then appends another thunk's resources, returning a combined thunk.
func (t *Thunk) Then(next *Thunk) *Thunk {
	combined := make([]Resource, 0, len(t.resources)+len(next.resources))
	combined = append(combined, t.resources...)
	combined = append(combined, next.resources...)
	return &Thunk{resources: combined}
}

// Execute runs every resource against host and returns the composed
// envelope: a single leaf if the thunk has exactly one resource, a chain
// otherwise.
func (t *Thunk) Execute(host string) Envelope {
	if len(t.resources) == 1 {
		return t.resources[0](host)
	}
	chain := NewChain(host)
	for _, r := range t.resources {
		chain.Append(r(host))
	}
	return chain.Build()
}
