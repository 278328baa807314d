// Package scheduler decides when content is paginated again and publishes
// only the result of the most recent run.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gompdf/smartprint/internal/pagination"
)

// ErrNotMounted is returned by a Pipeline when there is nothing to measure yet
var ErrNotMounted = errors.New("content container is not mounted")

// DefaultDebounce is the quiescence window for resize notifications
const DefaultDebounce = 120 * time.Millisecond

// Config is the page geometry a run paginates against
type Config struct {
	PageContentHeight float64
	PageContentWidth  float64
	ParagraphSpacing  float64
}

// Pipeline measures the content and paginates it
type Pipeline func(ctx context.Context, cfg Config) ([]pagination.Page, error)

// ContentObserver delivers a notification whenever content size may have changed
type ContentObserver interface {
	Changes() <-chan struct{}
}

// State of the scheduler
type State int

const (
	StateIdle State = iota
	StateMeasuring
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMeasuring:
		return "measuring"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithDebounce sets the resize quiescence window
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithLogger sets the scheduler logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// OnLoading registers the loading notification
func OnLoading(fn func(bool)) Option {
	return func(s *Scheduler) {
		s.onLoading = fn
	}
}

// OnRendered registers the rendered notification
func OnRendered(fn func(bool)) Option {
	return func(s *Scheduler) {
		s.onRendered = fn
	}
}

// OnPublish registers a callback receiving published results. It fires for
// the first result after Enable and afterwards only when the pages changed.
func OnPublish(fn func([]pagination.Page)) Option {
	return func(s *Scheduler) {
		s.onPublish = fn
	}
}

// Scheduler runs the pipeline on enable, on configuration changes and on
// debounced resize notifications. Callbacks are invoked with the scheduler
// lock held and must not call back into the scheduler.
type Scheduler struct {
	pipeline   Pipeline
	debounce   time.Duration
	log        *zap.Logger
	onLoading  func(bool)
	onRendered func(bool)
	onPublish  func([]pagination.Page)

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	enabled bool
	cfg     Config
	runID   uint64
	pages   []pagination.Page
	state   State
	timer   *time.Timer
	resize  uint64
	wg      sync.WaitGroup

	// set once a result was published since Enable
	published bool
}

// New creates a disabled scheduler
func New(pipeline Pipeline, opts ...Option) *Scheduler {
	s := &Scheduler{
		pipeline: pipeline,
		debounce: DefaultDebounce,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("scheduler")
	return s
}

// Enable starts scheduling and triggers the first run
func (s *Scheduler) Enable(ctx context.Context, cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enabled {
		s.setConfigLocked(cfg)
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.enabled = true
	s.cfg = cfg
	s.startLocked("enable")
}

// Disable stops scheduling, drops the published pages and discards runs in flight
func (s *Scheduler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.resize++
	s.cancel()
	s.enabled = false
	s.runID++
	s.pages = nil
	s.published = false
	s.state = StateIdle
}

// SetConfig updates the geometry and re-runs when any of it changed
func (s *Scheduler) SetConfig(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setConfigLocked(cfg)
}

func (s *Scheduler) setConfigLocked(cfg Config) {
	if cfg == s.cfg {
		return
	}
	s.cfg = cfg
	if s.enabled {
		s.startLocked("config")
	}
}

// NotifyResize schedules a run once no further notification arrives within
// the debounce window
func (s *Scheduler) NotifyResize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.resize++
	gen := s.resize
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// superseded by a later notification
	if gen != s.resize {
		return
	}
	s.timer = nil
	if s.enabled {
		s.startLocked("resize")
	}
}

// Observe forwards observer notifications to NotifyResize until ctx is done
// or the observer channel is closed.
func (s *Scheduler) Observe(ctx context.Context, obs ContentObserver) error {
	changes := obs.Changes()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			s.NotifyResize()
		}
	}
}

// Pages returns the last published result
func (s *Scheduler) Pages() []pagination.Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pages
}

// State returns the current scheduler state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Wait blocks until all started runs have finished
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) startLocked(reason string) {
	s.runID++
	id, cfg, ctx := s.runID, s.cfg, s.ctx

	s.state = StateMeasuring
	s.notify(s.onLoading, true)
	s.notify(s.onRendered, false)
	s.log.Debug("Starting pagination run", zap.Uint64("run", id), zap.String("reason", reason))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pages, err := s.pipeline(ctx, cfg)
		s.finish(id, pages, err)
	}()
}

func (s *Scheduler) finish(id uint64, pages []pagination.Page, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.runID {
		s.log.Debug("Dropping stale pagination run", zap.Uint64("run", id), zap.Uint64("latest", s.runID))
		return
	}
	if err != nil {
		if errors.Is(err, ErrNotMounted) {
			s.log.Debug("Content is not mounted, nothing to paginate", zap.Uint64("run", id))
		} else {
			s.log.Warn("Pagination run failed", zap.Uint64("run", id), zap.Error(err))
		}
		return
	}

	changed := !s.published || !pagination.PagesEqual(s.pages, pages)
	if changed {
		s.pages = pages
		s.published = true
	}
	s.state = StateReady
	if changed && s.onPublish != nil {
		s.onPublish(s.pages)
	}
	s.notify(s.onLoading, false)
	s.notify(s.onRendered, true)
	s.log.Debug("Published pagination result", zap.Uint64("run", id), zap.Int("pages", len(s.pages)))
}

func (s *Scheduler) notify(fn func(bool), v bool) {
	if fn != nil {
		fn(v)
	}
}
