package application

import (
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/middleware"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/domain/timeline"
	"github.com/felixgeelhaar/agent-presence/infrastructure/feed"
	"github.com/felixgeelhaar/agent-presence/infrastructure/render"
	"github.com/felixgeelhaar/agent-presence/infrastructure/telemetry"
)

// Option configures the presenter.
type Option func(*PresenterConfig)

// WithSource sets the feed the presenter reads.
func WithSource(s feed.Source) Option {
	return func(c *PresenterConfig) {
		c.Source = s
	}
}

// WithRenderer sets the renderer.
func WithRenderer(r render.Renderer) Option {
	return func(c *PresenterConfig) {
		c.Renderer = r
	}
}

// WithMappers sets where the current mapper comes from.
func WithMappers(m MapperSource) Option {
	return func(c *PresenterConfig) {
		c.Mappers = m
	}
}

// WithMapper serves a fixed mapper.
func WithMapper(m *presence.Mapper) Option {
	return WithMappers(StaticMapper(m))
}

// WithTimeline records state changes into s.
func WithTimeline(s timeline.Store) Option {
	return func(c *PresenterConfig) {
		c.Timeline = s
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *PresenterConfig) {
		c.Metrics = m
	}
}

// WithMiddleware sets a custom middleware registry.
// If not set, the presenter uses DefaultMiddleware with a validation that
// accepts every delivery.
func WithMiddleware(m *middleware.Registry) Option {
	return func(c *PresenterConfig) {
		c.Middleware = m
	}
}

// WithInitialState sets the state shown before the first delivery.
func WithInitialState(s presence.State) Option {
	return func(c *PresenterConfig) {
		c.InitialState = s
	}
}

// WithSession names deliveries that carry no session.
func WithSession(id string) Option {
	return func(c *PresenterConfig) {
		c.Session = id
	}
}

// WithBuffer sets the capacity of the delivery channel.
func WithBuffer(n int) Option {
	return func(c *PresenterConfig) {
		c.Buffer = n
	}
}

// WithClock sets the clock stamping deliveries without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *PresenterConfig) {
		c.Now = now
	}
}

// NewPresenterWithOptions creates a presenter with functional options.
func NewPresenterWithOptions(opts ...Option) (*Presenter, error) {
	config := PresenterConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	return NewPresenter(config)
}
