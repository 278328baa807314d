// Package png rasterizes composed pages into PNG images.
package png

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gompdf/smartprint/internal/render"
	"github.com/gompdf/smartprint/internal/text"
)

// DefaultDPI renders one point as one and a third pixels
const DefaultDPI = 96.0

// Renderer draws composed pages into images
type Renderer struct {
	// DPI sets the output resolution
	DPI float64
	// Thumbnail is the width of page thumbnails, zero disables them
	Thumbnail int

	log *zap.Logger

	mu    sync.Mutex
	fonts map[string]*truetype.Font
	faces map[string]font.Face
}

// NewRenderer creates a PNG renderer
func NewRenderer(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		DPI:   DefaultDPI,
		log:   log.Named("png"),
		fonts: make(map[string]*truetype.Font),
		faces: make(map[string]font.Face),
	}
}

// Render rasterizes every page of doc
func (r *Renderer) Render(doc *render.Document) ([]image.Image, error) {
	out := make([]image.Image, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		img, err := r.RenderPage(doc.Frame, p)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

// RenderDir writes page-NNN.png files into dir and returns their paths.
// Thumbnails are written as thumb-NNN.png.
func (r *Renderer) RenderDir(doc *render.Document, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	images, err := r.Render(doc)
	if err != nil {
		return nil, err
	}

	var paths []string
	for i, img := range images {
		path := filepath.Join(dir, fmt.Sprintf("page-%03d.png", i+1))
		if err := imaging.Save(img, path); err != nil {
			return nil, fmt.Errorf("unable to save page %d: %w", i+1, err)
		}
		paths = append(paths, path)

		if r.Thumbnail > 0 {
			thumb := imaging.Resize(img, r.Thumbnail, 0, imaging.Lanczos)
			if err := imaging.Save(thumb, filepath.Join(dir, fmt.Sprintf("thumb-%03d.png", i+1))); err != nil {
				return nil, fmt.Errorf("unable to save thumbnail %d: %w", i+1, err)
			}
		}
	}
	r.log.Debug("Rendered PNG pages", zap.String("dir", dir), zap.Int("pages", len(paths)))
	return paths, nil
}

// RenderPage rasterizes a single page on a white background
func (r *Renderer) RenderPage(frame render.Frame, p *render.Page) (image.Image, error) {
	scale := r.scale()
	w := int(math.Ceil(frame.PageWidth * scale))
	h := int(math.Ceil(frame.PageHeight * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid page size %.2fx%.2f", frame.PageWidth, frame.PageHeight)
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for _, op := range p.Ops {
		switch op := op.(type) {
		case render.RectOp:
			if op.Fill.A == 0 {
				continue
			}
			dc.SetColor(op.Fill)
			dc.DrawRectangle(op.X*scale, op.Y*scale, op.Width*scale, op.Height*scale)
			dc.Fill()
		case render.TextOp:
			if err := r.drawText(dc, op, scale); err != nil {
				return nil, err
			}
		case render.ImageOp:
			r.drawImage(dc, op, scale)
		}
	}
	return dc.Image(), nil
}

func (r *Renderer) scale() float64 {
	if r.DPI <= 0 {
		return DefaultDPI / 72
	}
	return r.DPI / 72
}

func (r *Renderer) drawText(dc *gg.Context, op render.TextOp, scale float64) error {
	face, err := r.face(op.Face, op.Font.Size*scale)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetColor(op.Color)
	dc.DrawString(op.Text, op.X*scale, op.Baseline*scale)

	if op.Underline {
		y := (op.Baseline + op.Font.Size*0.1) * scale
		dc.SetLineWidth(math.Max(op.Font.Size/15*scale, 1))
		dc.DrawLine(op.X*scale, y, (op.X+op.Width)*scale, y)
		dc.Stroke()
	}
	return nil
}

func (r *Renderer) drawImage(dc *gg.Context, op render.ImageOp, scale float64) {
	w := int(math.Round(op.Width * scale))
	h := int(math.Round(op.Height * scale))
	if w <= 0 || h <= 0 {
		return
	}
	img, err := render.Rasterize(op.Data, op.Kind, w, h)
	if err != nil {
		r.log.Warn("Skipping image", zap.String("src", op.Src), zap.Error(err))
		return
	}
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	dc.DrawImage(img, int(math.Round(op.X*scale)), int(math.Round(op.Y*scale)))
}

// face returns a sized face for a resolved PDF face. Core fonts fall back to
// the Go font family.
func (r *Renderer) face(f text.Face, size float64) (font.Face, error) {
	key := fmt.Sprintf("%s/%.2f", f.Key(), size)

	r.mu.Lock()
	defer r.mu.Unlock()

	if face, ok := r.faces[key]; ok {
		return face, nil
	}
	ttf, ok := r.fonts[f.Key()]
	if !ok {
		data := f.Data()
		if len(data) == 0 {
			data = fallback(f)
		}
		var err error
		if ttf, err = truetype.Parse(data); err != nil {
			return nil, fmt.Errorf("unable to parse font %s: %w", f.Key(), err)
		}
		r.fonts[f.Key()] = ttf
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: size, Hinting: font.HintingFull})
	r.faces[key] = face
	return face, nil
}

func fallback(f text.Face) []byte {
	bold := strings.Contains(f.Style, "B")
	italic := strings.Contains(f.Style, "I")
	if strings.EqualFold(f.Name, "courier") {
		switch {
		case bold && italic:
			return gomonobolditalic.TTF
		case bold:
			return gomonobold.TTF
		case italic:
			return gomonoitalic.TTF
		default:
			return gomono.TTF
		}
	}
	switch {
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}
