package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/agent-presence/domain/middleware"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/domain/timeline"
	"github.com/felixgeelhaar/agent-presence/infrastructure/feed"
	"github.com/felixgeelhaar/agent-presence/infrastructure/logging"
	inframw "github.com/felixgeelhaar/agent-presence/infrastructure/middleware"
	"github.com/felixgeelhaar/agent-presence/infrastructure/render"
	"github.com/felixgeelhaar/agent-presence/infrastructure/statemachine"
	"github.com/felixgeelhaar/agent-presence/infrastructure/telemetry"
)

// MapperSource supplies the mapper in effect. The configuration watcher
// implements it so reloads apply to the next delivery.
type MapperSource interface {
	Mapper() *presence.Mapper
}

type staticMapper struct {
	mapper *presence.Mapper
}

func (s staticMapper) Mapper() *presence.Mapper {
	return s.mapper
}

// StaticMapper returns a MapperSource that always serves m.
func StaticMapper(m *presence.Mapper) MapperSource {
	return staticMapper{mapper: m}
}

// Presenter turns the deliveries of a feed into rendered profiles. Each
// session gets its own tracker. Deliveries are handled in arrival order.
type Presenter struct {
	source     feed.Source
	renderer   render.Renderer
	mappers    MapperSource
	timeline   timeline.Store
	metrics    telemetry.Metrics
	middleware *middleware.Registry
	initial    presence.State
	session    string
	buffer     int
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	tracker *statemachine.Tracker
	since   time.Time
	last    presence.Update
}

// PresenterConfig contains configuration for the presenter.
type PresenterConfig struct {
	Source     feed.Source
	Renderer   render.Renderer
	Mappers    MapperSource
	Timeline   timeline.Store
	Metrics    telemetry.Metrics
	Middleware *middleware.Registry

	// InitialState is shown before the first delivery. Disconnected or idle.
	InitialState presence.State

	// Session names deliveries that carry no session. Defaults to a new UUID.
	Session string

	// Buffer is the capacity of the delivery channel.
	Buffer int

	// Now stamps deliveries without a timestamp.
	Now func() time.Time
}

// NewPresenter creates a presenter with the given configuration.
func NewPresenter(config PresenterConfig) (*Presenter, error) {
	if config.Source == nil {
		return nil, errors.New("source is required")
	}
	if config.Renderer == nil {
		return nil, errors.New("renderer is required")
	}

	p := &Presenter{
		source:     config.Source,
		renderer:   config.Renderer,
		mappers:    config.Mappers,
		timeline:   config.Timeline,
		metrics:    config.Metrics,
		middleware: config.Middleware,
		initial:    config.InitialState,
		session:    config.Session,
		buffer:     config.Buffer,
		now:        config.Now,
		sessions:   make(map[string]*sessionState),
	}

	// Set defaults
	if p.mappers == nil {
		p.mappers = StaticMapper(presence.DefaultMapper())
	}
	if p.metrics == nil {
		p.metrics = &telemetry.NoopMetricsProvider{}
	}
	if p.middleware == nil {
		p.middleware = DefaultMiddleware(inframw.DefaultValidationConfig())
	}
	if p.initial == "" {
		p.initial = presence.StateDisconnected
	}
	if !p.initial.IsInitial() {
		return nil, fmt.Errorf("%w: %q", presence.ErrInvalidInitialState, p.initial)
	}
	if p.session == "" {
		p.session = uuid.New().String()
	}
	if p.buffer <= 0 {
		p.buffer = 16
	}
	if p.now == nil {
		p.now = time.Now
	}

	return p, nil
}

// DefaultMiddleware creates the default delivery chain: validation, then
// logging of state changes.
func DefaultMiddleware(validation inframw.ValidationConfig) *middleware.Registry {
	return middleware.NewRegistry().
		Use("validation", inframw.Validation(validation)).
		Use("logging", inframw.Logging(inframw.LoggingConfig{LogActivity: true}))
}

// Session returns the session used for deliveries that name none.
func (p *Presenter) Session() string {
	return p.session
}

// Run renders the initial state, then handles deliveries until the source
// ends or ctx is done. Cancellation is a clean stop. A source failure is
// returned after the deliveries it produced have been handled.
func (p *Presenter) Run(ctx context.Context) error {
	handler := p.middleware.Chain()(p.handle)

	if err := p.start(); err != nil {
		return err
	}

	logging.Info().
		Add(logging.Source(p.source.Name())).
		Add(logging.Session(p.session)).
		Add(logging.State(p.initial)).
		Add(logging.Str("middleware", strings.Join(p.middleware.Stages(), ","))).
		Msg("presenter started")

	updates := make(chan presence.Update, p.buffer)
	done := make(chan error, 1)
	go func() {
		done <- p.source.Run(ctx, updates)
	}()

	for {
		select {
		case u := <-updates:
			p.deliver(ctx, handler, u)
		case err := <-done:
			// Sources never close updates; handle what is still buffered.
			for drained := false; !drained; {
				select {
				case u := <-updates:
					p.deliver(ctx, handler, u)
				default:
					drained = true
				}
			}
			return p.finish(err)
		case <-ctx.Done():
			return p.finish(<-done)
		}
	}
}

func (p *Presenter) start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	u := presence.Update{State: p.initial, Session: p.session, At: p.now()}
	st, err := p.sessionLocked(u)
	if err != nil {
		return err
	}
	if err := p.renderLocked(st.last); err != nil {
		return fmt.Errorf("rendering initial state: %w", err)
	}
	return nil
}

func (p *Presenter) finish(err error) error {
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logging.Error().
			Add(logging.Source(p.source.Name())).
			Add(logging.ErrorField(err)).
			Msg("feed failed")
		return fmt.Errorf("feed %s: %w", p.source.Name(), err)
	}

	logging.Info().
		Add(logging.Source(p.source.Name())).
		Add(logging.Count("sessions", len(p.Sessions()))).
		Msg("presenter stopped")
	return nil
}

// deliver runs one update through the middleware chain. Failed deliveries
// are logged and leave the session untouched.
func (p *Presenter) deliver(ctx context.Context, handler middleware.Handler, u presence.Update) {
	if u.Session == "" {
		u.Session = p.session
	}
	if u.At.IsZero() {
		u.At = p.now()
	}

	// The session is created by handle, so a rejected first delivery
	// leaves nothing behind.
	current := p.initial
	p.mu.Lock()
	if st, ok := p.sessions[u.Session]; ok {
		current = st.tracker.State()
	}
	p.mu.Unlock()

	d := &middleware.Delivery{
		Source:  p.source.Name(),
		Session: u.Session,
		Update:  u,
		Current: current,
		Vars:    make(map[string]any),
	}
	if _, err := handler(ctx, d); err != nil {
		logging.Warn().
			Add(logging.Session(u.Session)).
			Add(logging.State(u.State)).
			Add(logging.ErrorField(err)).
			Msg("delivery dropped")
	}
}

// handle is the end of the middleware chain: track, derive, record, render.
func (p *Presenter) handle(ctx context.Context, d *middleware.Delivery) (middleware.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, err := p.sessionLocked(d.Update)
	if err != nil {
		return middleware.Result{}, err
	}

	change, err := st.tracker.Observe(d.Update)
	if err != nil {
		return middleware.Result{}, fmt.Errorf("tracking session %s: %w", d.Session, err)
	}

	result := middleware.Result{
		Profile:   p.mappers.Mapper().DeriveUpdate(d.Update),
		From:      change.From,
		Changed:   change.Changed,
		Canonical: change.Canonical,
		Fallback:  change.Fallback,
	}

	at := d.Update.At
	if change.Changed {
		if dwell := at.Sub(st.since); dwell > 0 {
			result.Dwell = dwell
		}
		st.since = at
		p.record(ctx, change, d.Update)
	}
	st.last = d.Update

	frame := render.Frame{
		Session:  d.Session,
		At:       at,
		Activity: d.Update.Activity,
		Profile:  result.Profile,
	}
	if err := p.renderer.Render(frame); err != nil {
		return result, fmt.Errorf("rendering %s: %w", result.Profile.State, err)
	}
	return result, nil
}

// record appends a change to the timeline. Must hold p.mu.
func (p *Presenter) record(ctx context.Context, change statemachine.Change, u presence.Update) {
	if p.timeline == nil {
		return
	}

	entry := timeline.NewEntry(u.Session, change.From, change.To, u.At)
	entry.Canonical = change.Canonical
	if a, ok := u.ActivityLevel(); ok {
		entry = entry.WithActivity(a)
	}
	if err := p.timeline.Append(ctx, entry); err != nil {
		p.metrics.RecordError(ctx, "timeline", map[string]string{"session": u.Session})
		logging.Warn().
			Add(logging.Session(u.Session)).
			Add(logging.ErrorField(err)).
			Msg("timeline append failed")
		return
	}
	p.metrics.RecordTimelineAppend(ctx, u.Session)
}

// sessionLocked returns the state of u's session, creating it on first
// sight. Must hold p.mu.
func (p *Presenter) sessionLocked(u presence.Update) (*sessionState, error) {
	if st, ok := p.sessions[u.Session]; ok {
		return st, nil
	}

	tracker, err := statemachine.NewTracker(u.Session, p.initial)
	if err != nil {
		return nil, err
	}
	st := &sessionState{
		tracker: tracker,
		since:   u.At,
		last:    presence.Update{State: p.initial, Session: u.Session, At: u.At},
	}
	p.sessions[u.Session] = st
	return st, nil
}

// renderLocked derives and draws u with the current mapper. Must hold p.mu.
func (p *Presenter) renderLocked(u presence.Update) error {
	return p.renderer.Render(render.Frame{
		Session:  u.Session,
		At:       u.At,
		Activity: u.Activity,
		Profile:  p.mappers.Mapper().DeriveUpdate(u),
	})
}

// Refresh redraws the last delivery of every session with the current
// mapper, e.g. after the configuration was reloaded.
func (p *Presenter) Refresh() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, id := range p.sessionIDsLocked() {
		if err := p.renderLocked(p.sessions[id].last); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sessions lists the tracked sessions in name order.
func (p *Presenter) Sessions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionIDsLocked()
}

func (p *Presenter) sessionIDsLocked() []string {
	ids := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// State returns the tracked state of a session.
func (p *Presenter) State(session string) (presence.State, bool) {
	p.mu.Lock()
	st, ok := p.sessions[session]
	p.mu.Unlock()
	if !ok {
		return "", false
	}
	return st.tracker.State(), true
}

// Stats returns the tracking counters of a session.
func (p *Presenter) Stats(session string) (statemachine.Context, bool) {
	p.mu.Lock()
	st, ok := p.sessions[session]
	p.mu.Unlock()
	if !ok {
		return statemachine.Context{}, false
	}
	return st.tracker.Stats(), true
}

// Close stops every tracker.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, st := range p.sessions {
		st.tracker.Stop()
	}
}
