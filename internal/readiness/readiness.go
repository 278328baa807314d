// Package readiness waits for images and fonts to settle before layout is measured.
package readiness

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultImageTimeout bounds the wait for a single image
const DefaultImageTimeout = 4000 * time.Millisecond

// Image is an image resource referenced by laid out content
type Image interface {
	// Complete reports whether loading has finished (successfully or not).
	Complete() bool
	// NaturalWidth is the intrinsic width, zero when unknown.
	NaturalWidth() int
	// Done is closed once the image loaded or failed.
	Done() <-chan struct{}
}

// Decoder is implemented by images that can be decoded on demand
type Decoder interface {
	Decode(ctx context.Context) error
}

// Container exposes the images inside a content subtree
type Container interface {
	Images() []Image
}

// FontSource reports when all font faces are available
type FontSource interface {
	Ready(ctx context.Context) error
}

type options struct {
	imageTimeout time.Duration
	fonts        FontSource
	log          *zap.Logger
}

// Option configures AwaitReady
type Option func(*options)

// WithImageTimeout sets the per image wait limit
func WithImageTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.imageTimeout = d
		}
	}
}

// WithFonts makes AwaitReady wait for the font source as well
func WithFonts(fs FontSource) Option {
	return func(o *options) {
		o.fonts = fs
	}
}

// WithLogger sets the logger used for timeouts and failures
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// AwaitReady returns once every image in c has loaded, failed or timed out
// and the font source, if any, is ready. Individual failures never surface;
// the only error is the cancellation of ctx.
func AwaitReady(ctx context.Context, c Container, opts ...Option) error {
	o := &options{
		imageTimeout: DefaultImageTimeout,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	log := o.log.Named("readiness")

	var g errgroup.Group
	pending := 0
	for i, img := range c.Images() {
		if img.Complete() && img.NaturalWidth() > 0 {
			continue
		}
		pending++
		g.Go(func() error {
			awaitImage(ctx, img, o.imageTimeout, log.With(zap.Int("image", i)))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	if o.fonts != nil {
		if err := o.fonts.Ready(ctx); err != nil {
			log.Debug("Fonts are not ready, continuing", zap.Error(err))
		}
	}

	log.Debug("Content is ready", zap.Int("awaited", pending))
	return ctx.Err()
}

func awaitImage(ctx context.Context, img Image, timeout time.Duration, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := img.Done()
	if d, ok := img.(Decoder); ok {
		result := make(chan error, 1)
		go func() {
			result <- d.Decode(ctx)
		}()
		select {
		case err := <-result:
			if err != nil {
				log.Debug("Image decoding failed", zap.Error(err))
			}
		case <-ctx.Done():
			log.Debug("Image decoding timed out", zap.Duration("timeout", timeout))
		}
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
		log.Debug("Image loading timed out", zap.Duration("timeout", timeout))
	}
}
