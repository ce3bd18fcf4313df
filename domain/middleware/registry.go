package middleware

// Registry is the ordered delivery chain. Each stage carries a name so the
// chain can be reported at startup.
type Registry struct {
	stages []stage
}

type stage struct {
	name string
	mw   Middleware
}

// NewRegistry creates an empty chain.
func NewRegistry() *Registry {
	return &Registry{}
}

// Use appends a named stage. Stages run in the order they are added.
func (r *Registry) Use(name string, m Middleware) *Registry {
	r.stages = append(r.stages, stage{name: name, mw: m})
	return r
}

// Chain composes the stages. An empty registry passes deliveries through.
func (r *Registry) Chain() Middleware {
	if len(r.stages) == 0 {
		return Noop()
	}
	ms := make([]Middleware, len(r.stages))
	for i, s := range r.stages {
		ms[i] = s.mw
	}
	return Chain(ms...)
}

// Stages lists the stage names in execution order.
func (r *Registry) Stages() []string {
	names := make([]string, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.name
	}
	return names
}

// Len returns the number of stages.
func (r *Registry) Len() int {
	return len(r.stages)
}
