package pdf

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/gompdf/smartprint/internal/render"
	"github.com/gompdf/smartprint/internal/text"
)

// svgScale is the raster resolution of vector images relative to points
const svgScale = 2.0

// Renderer handles rendering to PDF
type Renderer struct {
	// DebugDrawBoxes outlines every text and image operation
	DebugDrawBoxes bool

	options RenderOptions
	log     *zap.Logger
}

// RenderOptions contains document metadata
type RenderOptions struct {
	Subject  string
	Keywords string
	Creator  string
	Producer string
}

// NewRenderer creates a new PDF renderer
func NewRenderer(options RenderOptions, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	if options.Producer == "" {
		options.Producer = "smartprint"
	}
	return &Renderer{options: options, log: log.Named("pdf")}
}

// RenderFile renders doc into the file at path, creating its directory
func (r *Renderer) RenderFile(doc *render.Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := r.Render(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Render writes doc as a PDF document to w
func (r *Renderer) Render(doc *render.Document, w io.Writer) error {
	frame := doc.Frame
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: frame.PageWidth, Ht: frame.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Author, true)
	pdf.SetSubject(r.options.Subject, true)
	pdf.SetKeywords(r.options.Keywords, true)
	pdf.SetCreator(r.options.Creator, true)
	pdf.SetProducer(r.options.Producer, true)
	pdf.SetFont("Helvetica", "", 12)

	s := &session{pdf: pdf, fonts: make(map[string]bool), images: make(map[string]string), log: r.log}
	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			switch op := op.(type) {
			case render.RectOp:
				s.rect(op)
			case render.TextOp:
				s.text(op)
				if r.DebugDrawBoxes {
					s.outline(op.X, op.Baseline-op.Font.Size, op.Width, op.Font.Size, color.RGBA{R: 255, A: 255})
				}
			case render.ImageOp:
				s.image(op)
				if r.DebugDrawBoxes {
					s.outline(op.X, op.Y, op.Width, op.Height, color.RGBA{B: 200, A: 255})
				}
			}
		}
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("unable to render page %d: %w", page.Number, err)
		}
	}

	r.log.Debug("Rendered PDF", zap.Int("pages", len(doc.Pages)))
	return pdf.Output(w)
}

// session holds the per document state of a render
type session struct {
	pdf    *fpdf.Fpdf
	fonts  map[string]bool
	images map[string]string
	log    *zap.Logger
}

func (s *session) rect(op render.RectOp) {
	if op.Fill.A == 0 {
		return
	}
	s.pdf.SetFillColor(int(op.Fill.R), int(op.Fill.G), int(op.Fill.B))
	s.pdf.Rect(op.X, op.Y, op.Width, op.Height, "F")
}

func (s *session) text(op render.TextOp) {
	face := op.Face
	face.AddTo(s.pdf, s.fonts)
	s.pdf.SetFont(face.Name, face.Style, op.Font.Size)
	s.pdf.SetTextColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
	s.pdf.Text(op.X, op.Baseline, text.Encode(face, op.Text))

	if op.Underline {
		y := op.Baseline + op.Font.Size*0.1
		s.pdf.SetDrawColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
		s.pdf.SetLineWidth(math.Max(op.Font.Size/15, 0.5))
		s.pdf.Line(op.X, y, op.X+op.Width, y)
	}
}

func (s *session) image(op render.ImageOp) {
	name, ok := s.images[op.Src]
	if !ok {
		var err error
		if name, err = s.register(op); err != nil {
			s.log.Warn("Skipping image", zap.String("src", op.Src), zap.Error(err))
			s.images[op.Src] = ""
			return
		}
		s.images[op.Src] = name
	}
	if name == "" {
		return
	}
	s.pdf.ImageOptions(name, op.X, op.Y, op.Width, op.Height, false, fpdf.ImageOptions{}, 0, "")
}

// register adds the image data to the document. Formats fpdf cannot embed
// are rasterized and re-encoded as PNG.
func (s *session) register(op render.ImageOp) (string, error) {
	name := fmt.Sprintf("img%d", len(s.images))
	data, kind := op.Data, op.Kind

	switch kind {
	case "png", "gif":
	case "jpg", "jpeg":
		kind = "jpg"
	default:
		img, err := render.Rasterize(data, kind,
			int(math.Ceil(op.Width*svgScale)), int(math.Ceil(op.Height*svgScale)))
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("unable to encode image: %w", err)
		}
		data, kind = buf.Bytes(), "png"
	}

	s.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: kind, ReadDpi: false}, bytes.NewReader(data))
	if err := s.pdf.Error(); err != nil {
		return "", err
	}
	return name, nil
}

func (s *session) outline(x, y, w, h float64, c color.RGBA) {
	s.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	s.pdf.SetLineWidth(0.3)
	s.pdf.Rect(x, y, w, h, "D")
}
