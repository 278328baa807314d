package readiness

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeImage struct {
	complete bool
	width    int
	done     chan struct{}
}

func newFakeImage(complete bool, width int) *fakeImage {
	return &fakeImage{complete: complete, width: width, done: make(chan struct{})}
}

func (f *fakeImage) Complete() bool        { return f.complete }
func (f *fakeImage) NaturalWidth() int     { return f.width }
func (f *fakeImage) Done() <-chan struct{} { return f.done }

type decodingImage struct {
	*fakeImage
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (d *decodingImage) Decode(ctx context.Context) error {
	d.calls.Add(1)
	select {
	case <-time.After(d.delay):
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type container []Image

func (c container) Images() []Image { return c }

type fonts struct {
	called atomic.Bool
	err    error
}

func (f *fonts) Ready(context.Context) error {
	f.called.Store(true)
	return f.err
}

func TestAwaitReadyNoImages(t *testing.T) {
	fs := &fonts{}
	err := AwaitReady(context.Background(), container{}, WithFonts(fs), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.True(t, fs.called.Load())
}

func TestAwaitReadySkipsCompleteImages(t *testing.T) {
	img := &decodingImage{fakeImage: newFakeImage(true, 100)}

	require.NoError(t, AwaitReady(context.Background(), container{img}))
	assert.Zero(t, img.calls.Load())
}

func TestAwaitReadyWaitsForLoad(t *testing.T) {
	img := newFakeImage(false, 0)
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(img.done)
	}()

	start := time.Now()
	require.NoError(t, AwaitReady(context.Background(), container{img}, WithImageTimeout(time.Second)))
	assert.Less(t, time.Since(start), time.Second)
}

func TestAwaitReadyTimeout(t *testing.T) {
	stuck := newFakeImage(false, 0)
	slow := &decodingImage{fakeImage: newFakeImage(false, 0), delay: time.Minute}

	start := time.Now()
	err := AwaitReady(context.Background(), container{stuck, slow},
		WithImageTimeout(50*time.Millisecond), WithLogger(zaptest.NewLogger(t)))

	require.NoError(t, err)
	// both waits run concurrently
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.EqualValues(t, 1, slow.calls.Load())
}

func TestAwaitReadySwallowsFailures(t *testing.T) {
	broken := &decodingImage{fakeImage: newFakeImage(false, 0), err: errors.New("corrupt")}
	fs := &fonts{err: errors.New("no fonts")}

	err := AwaitReady(context.Background(), container{broken}, WithFonts(fs))

	require.NoError(t, err)
	assert.True(t, fs.called.Load())
}

func TestAwaitReadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := AwaitReady(ctx, container{newFakeImage(false, 0)})
	assert.ErrorIs(t, err, context.Canceled)
}
