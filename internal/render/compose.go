package render

import (
	"context"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gompdf/smartprint/internal/document"
	"github.com/gompdf/smartprint/internal/layout"
	"github.com/gompdf/smartprint/internal/pagination"
	"github.com/gompdf/smartprint/internal/parser/html"
	"github.com/gompdf/smartprint/internal/readiness"
	"github.com/gompdf/smartprint/internal/style"
)

// Composer lays out the elements of every page inside the page frame and
// records what has to be drawn
type Composer struct {
	engine       *layout.Engine
	frame        Frame
	imageTimeout time.Duration
	log          *zap.Logger
}

// NewComposer creates a composer drawing with engine inside frame
func NewComposer(engine *layout.Engine, frame Frame, imageTimeout time.Duration, log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{
		engine:       engine,
		frame:        frame,
		imageTimeout: imageTimeout,
		log:          log.Named("compose"),
	}
}

// Compose builds the display lists of the cover and of every page
func (c *Composer) Compose(ctx context.Context, pages []pagination.Page) (*Document, error) {
	out := &Document{Frame: c.frame}

	if c.frame.Cover != "" {
		root, err := c.layout(ctx, c.frame.PageWidth, func(body *html.Node) error {
			return appendMarkup(body, c.frame.Cover)
		})
		if err != nil {
			return nil, fmt.Errorf("unable to compose cover: %w", err)
		}
		cover := &Page{Cover: true}
		c.paint(cover, root, 0, 0)
		out.Pages = append(out.Pages, cover)
	}

	m := c.frame.Margin
	for i, page := range pages {
		p := &Page{Number: i + 1}

		root, err := c.layout(ctx, c.frame.ContentWidth(), func(body *html.Node) error {
			for _, el := range page {
				if err := appendElement(body, el); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("unable to compose page %d: %w", p.Number, err)
		}
		c.paint(p, root, m.Left, m.Top)

		if err := c.decorate(ctx, p, c.frame.Header, len(pages), 0); err != nil {
			return nil, fmt.Errorf("unable to compose header of page %d: %w", p.Number, err)
		}
		if err := c.decorate(ctx, p, c.frame.Footer, len(pages), c.frame.PageHeight-m.Bottom); err != nil {
			return nil, fmt.Errorf("unable to compose footer of page %d: %w", p.Number, err)
		}
		out.Pages = append(out.Pages, p)
	}

	c.log.Debug("Composed document", zap.Int("pages", len(out.Pages)))
	return out, nil
}

// decorate draws a header or footer template at y
func (c *Composer) decorate(ctx context.Context, p *Page, template string, total int, y float64) error {
	if template == "" {
		return nil
	}
	markup := strings.NewReplacer(
		"{page}", strconv.Itoa(p.Number),
		"{total}", strconv.Itoa(total),
	).Replace(template)

	root, err := c.layout(ctx, c.frame.ContentWidth(), func(body *html.Node) error {
		return appendMarkup(body, markup)
	})
	if err != nil {
		return err
	}
	c.paint(p, root, c.frame.Margin.Left, y)
	return nil
}

// layout lays out the body filled by build at width. Images not yet loaded
// are awaited and the content is laid out again.
func (c *Composer) layout(ctx context.Context, width float64, build func(body *html.Node) error) (*layout.BlockBox, error) {
	doc, err := html.NewParser().ParseString("<html><body></body></html>")
	if err != nil {
		return nil, err
	}
	body := doc.Body()
	if err := build(body); err != nil {
		return nil, err
	}

	c.engine.SetStyles(style.NewStyleEngine(nil, c.log).ComputeStyles(doc.Root))
	c.engine.SetOptions(layout.Options{Width: width})
	root := c.engine.Layout(body)

	for _, img := range root.Images() {
		if !img.Complete() {
			if err := readiness.AwaitReady(ctx, root, readiness.WithImageTimeout(c.imageTimeout), readiness.WithLogger(c.log)); err != nil {
				return nil, err
			}
			root = c.engine.Layout(body)
			break
		}
	}
	return root, nil
}

func appendMarkup(body *html.Node, markup string) error {
	nodes, err := html.NewParser().ParseFragment(markup)
	if err != nil {
		return fmt.Errorf("unable to parse markup: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return nil
}

// appendElement adds a page element and applies its trailing spacing as
// bottom padding of the measured element
func appendElement(body *html.Node, el pagination.PageElement) error {
	nodes, err := html.NewParser().ParseFragment(el.Content)
	if err != nil {
		return fmt.Errorf("unable to parse element %d: %w", el.ID, err)
	}
	if el.PaddingBottom > 0 {
		if target := measured(nodes); target != nil {
			decl := "padding-bottom: " + strconv.FormatFloat(el.PaddingBottom, 'f', -1, 64) + "pt"
			if s := strings.TrimSpace(target.AttrOr("style", "")); s != "" {
				decl = s + "; " + decl
			}
			target.SetAttribute("style", decl)
		}
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return nil
}

// measured returns the element whose box was measured for pagination. List
// items arrive wrapped in a copy of their list.
func measured(nodes []*html.Node) *html.Node {
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		if document.IsList(n) {
			if items := n.Children(); len(items) > 0 {
				return items[0]
			}
		}
		return n
	}
	return nil
}

// paint records the drawing operations of b and its descendants, offset by
// dx, dy
func (c *Composer) paint(p *Page, b *layout.BlockBox, dx, dy float64) {
	st := b.Style
	if st.Get("visibility") != "hidden" {
		if bg, ok := st.Color("background-color"); ok && b.Width > 0 && b.Height > 0 {
			p.Ops = append(p.Ops, RectOp{X: b.X + dx, Y: b.Y + dy, Width: b.Width, Height: b.Height, Fill: bg})
		}
		c.paintBorders(p, b, dx, dy)
		if b.Marker != "" {
			c.paintMarker(p, b, dx, dy)
		}
		if b.Image != nil {
			h := b.Height - b.Border.Vertical() - b.Padding.Vertical()
			paintImage(p, b.Image, b.ContentX()+dx, b.ContentY()+dy, b.ContentWidth(), h)
		}
		for _, l := range b.Lines {
			for _, f := range l.Fragments {
				if f.Image != nil {
					paintImage(p, f.Image, f.X+dx, f.Y+dy, f.Width, f.Height)
					continue
				}
				c.paintText(p, f, dx, dy)
			}
		}
	}
	for _, child := range b.Children {
		c.paint(p, child, dx, dy)
	}
}

func (c *Composer) paintBorders(p *Page, b *layout.BlockBox, dx, dy float64) {
	x, y, w, h := b.X+dx, b.Y+dy, b.Width, b.Height
	sides := []struct {
		name       string
		width      float64
		rx, ry, rw float64
		rh         float64
	}{
		{"top", b.Border.Top, x, y, w, b.Border.Top},
		{"bottom", b.Border.Bottom, x, y + h - b.Border.Bottom, w, b.Border.Bottom},
		{"left", b.Border.Left, x, y, b.Border.Left, h},
		{"right", b.Border.Right, x + w - b.Border.Right, y, b.Border.Right, h},
	}
	for _, s := range sides {
		if s.width <= 0 {
			continue
		}
		p.Ops = append(p.Ops, RectOp{X: s.rx, Y: s.ry, Width: s.rw, Height: s.rh, Fill: b.Style.BorderColor(s.name)})
	}
}

func (c *Composer) paintText(p *Page, f *layout.Fragment, dx, dy float64) {
	s, w := f.Visible()
	if strings.TrimSpace(s) == "" {
		return
	}
	run := f.Run
	p.Ops = append(p.Ops, TextOp{
		X:         f.X + dx,
		Baseline:  f.Baseline + dy,
		Width:     w,
		Text:      s,
		Font:      run.Font,
		Face:      c.engine.Shaper().Face(run.Font),
		Color:     textColor(run.Style),
		Underline: strings.Contains(run.Style.Get("text-decoration"), "underline"),
	})
}

// paintMarker draws a list marker right aligned before the item content
func (c *Composer) paintMarker(p *Page, b *layout.BlockBox, dx, dy float64) {
	font := layout.FontOf(b.Style)
	shaper := c.engine.Shaper()
	w := shaper.MeasureText(b.Marker, font)

	baseline, ok := firstBaseline(b)
	if !ok {
		ascent, _ := shaper.Metrics(font)
		baseline = b.ContentY() + ascent
	}
	p.Ops = append(p.Ops, TextOp{
		X:        b.ContentX() - w - font.Size/2 + dx,
		Baseline: baseline + dy,
		Width:    w,
		Text:     b.Marker,
		Font:     font,
		Face:     shaper.Face(font),
		Color:    textColor(b.Style),
	})
}

func firstBaseline(b *layout.BlockBox) (float64, bool) {
	if len(b.Lines) > 0 {
		return b.Lines[0].Baseline, true
	}
	for _, c := range b.Children {
		if v, ok := firstBaseline(c); ok {
			return v, true
		}
	}
	return 0, false
}

func paintImage(p *Page, img *layout.Image, x, y, w, h float64) {
	data, kind := img.Data()
	if len(data) == 0 || w <= 0 || h <= 0 {
		return
	}
	p.Ops = append(p.Ops, ImageOp{X: x, Y: y, Width: w, Height: h, Src: img.Src, Data: data, Kind: kind})
}

func textColor(st style.ComputedStyle) color.RGBA {
	if c, ok := st.Color("color"); ok {
		return c
	}
	return color.RGBA{A: 255}
}
