// Package document prepares HTML content for pagination: it loads styles
// and fonts, lays the content out, pre-expands paragraphs and lists and
// extracts the block sequence.
package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gompdf/smartprint/internal/layout"
	"github.com/gompdf/smartprint/internal/parser/css"
	"github.com/gompdf/smartprint/internal/parser/html"
	"github.com/gompdf/smartprint/internal/readiness"
	"github.com/gompdf/smartprint/internal/res"
	"github.com/gompdf/smartprint/internal/style"
	"github.com/gompdf/smartprint/internal/text"
)

// Document is parsed content bound to a layout engine
type Document struct {
	source    *html.Document
	container *html.Node

	styles   *style.StyleEngine
	computed map[*html.Node]style.ComputedStyle
	engine   *layout.Engine
	loader   *res.Loader
	log      *zap.Logger

	root  *layout.BlockBox
	boxes map[*html.Node]*layout.BlockBox
}

// Parse parses markup and loads the stylesheets and font faces it
// references. Unavailable resources are logged and skipped.
func Parse(ctx context.Context, markup string, engine *layout.Engine, loader *res.Loader, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}
	src, err := html.NewParser().ParseString(markup)
	if err != nil {
		return nil, fmt.Errorf("unable to parse html: %w", err)
	}
	container := src.Body()
	if container == nil {
		return nil, fmt.Errorf("document has no body")
	}

	d := &Document{
		source:    src,
		container: container,
		styles:    style.NewStyleEngine(nil, log),
		engine:    engine,
		loader:    loader,
		log:       log.Named("document"),
	}

	var sheets []string
	src.Root.Walk(func(n *html.Node) bool {
		switch {
		case n.IsElement("style"):
			sheets = append(sheets, n.TextContent())
		case n.IsElement("link") && strings.EqualFold(n.AttrOr("rel", ""), "stylesheet") && loader != nil:
			href := n.AttrOr("href", "")
			r, err := loader.LoadCSS(ctx, href)
			if err != nil {
				d.log.Warn("Unable to load stylesheet", zap.String("href", href), zap.Error(err))
				return false
			}
			sheets = append(sheets, r.GetString())
		}
		return true
	})
	for _, sheet := range sheets {
		if err := d.AddStylesheet(ctx, sheet); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// AddStylesheet adds author CSS and registers its @font-face rules
func (d *Document) AddStylesheet(ctx context.Context, content string) error {
	sheet, err := css.NewParser(d.log).ParseString(content)
	if err != nil {
		return fmt.Errorf("unable to parse stylesheet: %w", err)
	}
	d.styles.AddStylesheet(sheet)
	for _, ff := range sheet.FontFaces {
		d.loadFontFace(ctx, ff)
	}
	return nil
}

func (d *Document) loadFontFace(ctx context.Context, ff css.FontFace) {
	if d.loader == nil || ff.Family == "" {
		return
	}
	bold := ff.Weight == "bold" || ff.Weight == "700" || ff.Weight == "800" || ff.Weight == "900"
	italic := ff.Style == "italic" || ff.Style == "oblique"
	for _, src := range ff.Src {
		r, err := d.loader.LoadFont(ctx, src)
		if err != nil {
			d.log.Debug("Font source not available", zap.String("family", ff.Family), zap.String("src", src), zap.Error(err))
			continue
		}
		if err := d.engine.Shaper().Fonts().Register(ff.Family, text.StyleString(bold, italic), r.Data); err != nil {
			d.log.Debug("Font source rejected", zap.String("family", ff.Family), zap.String("src", src), zap.Error(err))
			continue
		}
		return
	}
	d.log.Warn("No usable source for font face", zap.String("family", ff.Family))
}

// Container returns the element whose children are paginated
func (d *Document) Container() *html.Node {
	return d.container
}

// Root returns the box tree of the last layout
func (d *Document) Root() *layout.BlockBox {
	return d.root
}

// Box returns the box generated for n by the last layout
func (d *Document) Box(n *html.Node) *layout.BlockBox {
	return d.boxes[n]
}

// Style returns the computed style of n
func (d *Document) Style(n *html.Node) style.ComputedStyle {
	return d.computed[n]
}

// Layout lays the content out at width, waits for images and fonts to
// settle, expands paragraphs and lists and lays out again.
func (d *Document) Layout(ctx context.Context, width float64, imageTimeout time.Duration) error {
	d.engine.SetOptions(layout.Options{Width: width})
	d.layout()

	err := readiness.AwaitReady(ctx, d.root,
		readiness.WithImageTimeout(imageTimeout),
		readiness.WithFonts(d.engine.Shaper().Fonts()),
		readiness.WithLogger(d.log))
	if err != nil {
		return err
	}
	d.layout()

	if n := d.expandParagraphs(); n > 0 {
		d.log.Debug("Expanded paragraphs", zap.Int("count", n))
		d.layout()
	}
	if d.prepareLists() {
		d.layout()
	}
	return nil
}

func (d *Document) layout() {
	d.computed = d.styles.ComputeStyles(d.source.Root)
	d.engine.SetStyles(d.computed)
	d.root = d.engine.Layout(d.container)

	d.boxes = make(map[*html.Node]*layout.BlockBox)
	d.root.Walk(func(b *layout.BlockBox) bool {
		if b.Node != nil {
			d.boxes[b.Node] = b
		}
		return true
	})
}

// Render serializes the current document
func (d *Document) Render() (string, error) {
	return d.source.Render()
}
