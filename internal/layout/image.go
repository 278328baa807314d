package layout

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/srwiley/oksvg"
	"go.uber.org/zap"

	"github.com/gompdf/smartprint/internal/res"
)

// defaultImageSize is used for images without intrinsic or declared size
const defaultImageSize = 40.0

// Image is an image referenced by an <img> element. Loading starts when the
// image is created; Done is closed once it loaded or failed.
type Image struct {
	Src string

	done chan struct{}

	mu       sync.Mutex
	complete bool
	width    int
	height   int
	data     []byte
	kind     string
	err      error
}

func newImage(ctx context.Context, src string, loader *res.Loader, log *zap.Logger) *Image {
	img := &Image{Src: src, done: make(chan struct{})}
	go img.load(ctx, loader, log)
	return img
}

func (i *Image) load(ctx context.Context, loader *res.Loader, log *zap.Logger) {
	defer close(i.done)

	var (
		w, h int
		data []byte
		kind string
		err  error
	)
	if loader == nil {
		err = fmt.Errorf("no resource loader for %q", i.Src)
	} else {
		var r *res.Resource
		if r, err = loader.LoadImage(ctx, i.Src); err == nil {
			data, kind = r.Data, r.Kind
			w, h, err = naturalSize(data, kind)
		}
	}
	if err != nil {
		log.Debug("Image not available", zap.String("src", i.Src), zap.Error(err))
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.complete = true
	i.width, i.height = w, h
	i.data, i.kind, i.err = data, kind, err
}

// naturalSize returns the intrinsic pixel size of encoded image data
func naturalSize(data []byte, kind string) (int, int, error) {
	if kind == "svg" {
		icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
		if err != nil {
			return 0, 0, fmt.Errorf("unable to parse svg: %w", err)
		}
		return int(icon.ViewBox.W), int(icon.ViewBox.H), nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("unable to decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Complete reports whether loading finished
func (i *Image) Complete() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.complete
}

// NaturalWidth returns the intrinsic width in pixels, zero when unknown
func (i *Image) NaturalWidth() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.width
}

// NaturalHeight returns the intrinsic height in pixels, zero when unknown
func (i *Image) NaturalHeight() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.height
}

// Done is closed once loading finished
func (i *Image) Done() <-chan struct{} {
	return i.done
}

// Decode waits for the image to be loaded and decoded
func (i *Image) Decode(ctx context.Context) error {
	select {
	case <-i.done:
		return i.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the loading error, if any
func (i *Image) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.err
}

// Data returns the encoded image and its sniffed kind ("png", "svg", ...)
func (i *Image) Data() ([]byte, string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.data, i.kind
}

// size resolves the used size in points from declared dimensions and the
// natural size, keeping the aspect ratio when only one side is given
func (i *Image) size(width, height float64, hasWidth, hasHeight bool) (float64, float64) {
	nw, nh := float64(i.NaturalWidth())*pxToPt, float64(i.NaturalHeight())*pxToPt
	switch {
	case hasWidth && hasHeight:
		return width, height
	case hasWidth && nw > 0:
		return width, width * nh / nw
	case hasHeight && nh > 0:
		return height * nw / nh, height
	case hasWidth:
		return width, width
	case hasHeight:
		return height, height
	case nw > 0 && nh > 0:
		return nw, nh
	}
	return defaultImageSize, defaultImageSize
}
