package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gompdf/smartprint/internal/pagination"
)

var geometry = Config{PageContentHeight: 700, PageContentWidth: 450, ParagraphSpacing: 12}

func pagesFor(cfg Config) []pagination.Page {
	return []pagination.Page{{{ID: int(cfg.PageContentHeight), Content: "<p>x</p>"}}}
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) loading(v bool)  { r.add("loading", v) }
func (r *recorder) rendered(v bool) { r.add("rendered", v) }

func (r *recorder) add(name string, v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v {
		r.events = append(r.events, name+"=true")
	} else {
		r.events = append(r.events, name+"=false")
	}
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestEnablePublishes(t *testing.T) {
	rec := &recorder{}
	s := New(func(_ context.Context, cfg Config) ([]pagination.Page, error) {
		return pagesFor(cfg), nil
	}, OnLoading(rec.loading), OnRendered(rec.rendered), WithLogger(zaptest.NewLogger(t)))

	assert.Equal(t, StateIdle, s.State())
	s.Enable(context.Background(), geometry)
	s.Wait()

	assert.Equal(t, pagesFor(geometry), s.Pages())
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, []string{"loading=true", "rendered=false", "loading=false", "rendered=true"}, rec.list())
}

func TestStaleRunIsDropped(t *testing.T) {
	release := make(chan struct{})
	var published atomic.Int32

	s := New(func(_ context.Context, cfg Config) ([]pagination.Page, error) {
		if cfg.PageContentHeight == geometry.PageContentHeight {
			<-release
		}
		return pagesFor(cfg), nil
	}, OnPublish(func([]pagination.Page) { published.Add(1) }))

	s.Enable(context.Background(), geometry)
	updated := geometry
	updated.PageContentHeight = 500
	s.SetConfig(updated)

	require.Eventually(t, func() bool { return published.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(release)
	s.Wait()

	assert.Equal(t, pagesFor(updated), s.Pages())
	assert.EqualValues(t, 1, published.Load())
}

func TestSetConfigUnchanged(t *testing.T) {
	var calls atomic.Int32
	s := New(func(_ context.Context, cfg Config) ([]pagination.Page, error) {
		calls.Add(1)
		return pagesFor(cfg), nil
	})

	s.SetConfig(geometry)
	s.Enable(context.Background(), geometry)
	s.SetConfig(geometry)
	s.Wait()

	assert.EqualValues(t, 1, calls.Load())
}

func TestNotifyResizeIsDebounced(t *testing.T) {
	var calls atomic.Int32
	s := New(func(_ context.Context, cfg Config) ([]pagination.Page, error) {
		calls.Add(1)
		return pagesFor(cfg), nil
	}, WithDebounce(50*time.Millisecond))

	s.NotifyResize() // ignored while disabled
	s.Enable(context.Background(), geometry)
	for range 5 {
		s.NotifyResize()
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	s.Wait()
	assert.EqualValues(t, 2, calls.Load())
}

func TestNotMountedIsNoop(t *testing.T) {
	rec := &recorder{}
	s := New(func(context.Context, Config) ([]pagination.Page, error) {
		return nil, ErrNotMounted
	}, OnLoading(rec.loading), OnRendered(rec.rendered))

	s.Enable(context.Background(), geometry)
	s.Wait()

	assert.Nil(t, s.Pages())
	assert.Equal(t, StateMeasuring, s.State())
	assert.Equal(t, []string{"loading=true", "rendered=false"}, rec.list())
}

func TestEqualResultKeepsPreviousPages(t *testing.T) {
	s := New(func(_ context.Context, cfg Config) ([]pagination.Page, error) {
		return pagesFor(Config{PageContentHeight: 1}), nil
	})

	s.Enable(context.Background(), geometry)
	s.Wait()
	first := s.Pages()

	updated := geometry
	updated.ParagraphSpacing = 6
	s.SetConfig(updated)
	s.Wait()
	second := s.Pages()

	require.Len(t, second, 1)
	assert.Same(t, &first[0], &second[0])
}

func TestUnchangedResultIsNotPublished(t *testing.T) {
	var published atomic.Int32
	s := New(func(_ context.Context, cfg Config) ([]pagination.Page, error) {
		return pagesFor(Config{PageContentHeight: cfg.PageContentWidth}), nil
	}, OnPublish(func([]pagination.Page) { published.Add(1) }))

	s.Enable(context.Background(), geometry)
	s.Wait()
	assert.EqualValues(t, 1, published.Load())

	spacing := geometry
	spacing.ParagraphSpacing = 6
	s.SetConfig(spacing)
	s.Wait()
	assert.EqualValues(t, 1, published.Load())
	assert.Equal(t, StateReady, s.State())

	wider := spacing
	wider.PageContentWidth = 500
	s.SetConfig(wider)
	s.Wait()
	assert.EqualValues(t, 2, published.Load())

	// the first result after enabling again is always published
	s.Disable()
	s.Enable(context.Background(), wider)
	s.Wait()
	assert.EqualValues(t, 3, published.Load())
}

func TestDisableClearsPages(t *testing.T) {
	s := New(func(_ context.Context, cfg Config) ([]pagination.Page, error) {
		return pagesFor(cfg), nil
	})

	s.Enable(context.Background(), geometry)
	s.Wait()
	require.NotEmpty(t, s.Pages())

	s.Disable()
	assert.Empty(t, s.Pages())
	assert.Equal(t, StateIdle, s.State())
}

type observer chan struct{}

func (o observer) Changes() <-chan struct{} { return o }

func TestObserveTriggersRun(t *testing.T) {
	var calls atomic.Int32
	s := New(func(_ context.Context, cfg Config) ([]pagination.Page, error) {
		calls.Add(1)
		return pagesFor(cfg), nil
	}, WithDebounce(10*time.Millisecond))
	s.Enable(context.Background(), geometry)

	obs := make(observer)
	done := make(chan error, 1)
	go func() { done <- s.Observe(context.Background(), obs) }()

	obs <- struct{}{}
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	close(obs)
	assert.NoError(t, <-done)
	s.Wait()
}
