package layout

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/gompdf/smartprint/internal/pagination"
	"github.com/gompdf/smartprint/internal/parser/html"
	"github.com/gompdf/smartprint/internal/res"
	"github.com/gompdf/smartprint/internal/style"
	"github.com/gompdf/smartprint/internal/text"
)

// pxToPt converts CSS pixels to points
const pxToPt = 0.75

// Options represents options for the layout engine
type Options struct {
	// Width is the available width of the root box in points.
	Width float64
	Debug bool
}

// Engine lays out styled HTML with fpdf font metrics and measures the
// resulting boxes for pagination.
type Engine struct {
	options Options
	shaper  *text.TextShaper
	loader  *res.Loader
	log     *zap.Logger

	styles map[*html.Node]style.ComputedStyle

	// ctx bounds image loads started by this engine
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	images map[string]*Image
}

// NewEngine creates a new layout engine. The loader may be nil, in which
// case images never load. Close releases loads still in flight.
func NewEngine(shaper *text.TextShaper, loader *res.Loader, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if shaper == nil {
		shaper = text.NewTextShaper(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		ctx:     ctx,
		cancel:  cancel,
		options: Options{Width: 595.28},
		shaper:  shaper,
		loader:  loader,
		log:     log.Named("layout"),
		styles:  make(map[*html.Node]style.ComputedStyle),
		images:  make(map[string]*Image),
	}
}

// SetOptions sets the options for the layout engine
func (e *Engine) SetOptions(options Options) {
	e.options = options
}

// Options returns the current options
func (e *Engine) Options() Options {
	return e.options
}

// SetStyles sets the computed styles used by Layout
func (e *Engine) SetStyles(styles map[*html.Node]style.ComputedStyle) {
	e.styles = styles
}

// Shaper returns the text shaper used for measurement
func (e *Engine) Shaper() *text.TextShaper {
	return e.shaper
}

// Image returns the shared image resource for src, starting its load on
// first use
func (e *Engine) Image(src string) *Image {
	e.mu.Lock()
	defer e.mu.Unlock()

	if img, ok := e.images[src]; ok {
		return img
	}
	img := newImage(e.ctx, src, e.loader, e.log)
	e.images[src] = img
	return img
}

// Close cancels image loads that have not finished. Images requested
// afterwards fail immediately.
func (e *Engine) Close() {
	e.cancel()
}

// Layout builds and lays out the box tree of root at the origin
func (e *Engine) Layout(root *html.Node) *BlockBox {
	box := e.build(root, e.styleOf(root))
	e.layoutBlock(box, 0, 0, e.options.Width)
	if e.options.Debug {
		e.log.Debug("Laid out tree",
			zap.String("root", root.Data),
			zap.Int("children", len(box.Children)),
			zap.Float64("height", box.Height))
	}
	return box
}

// Measure reports the metrics of the box referenced by b.Ref
func (e *Engine) Measure(b *pagination.Block) (pagination.Metrics, bool) {
	box, ok := b.Ref.(*BlockBox)
	if !ok || box == nil {
		return pagination.Metrics{}, false
	}
	return pagination.Metrics{
		Height:        box.Height,
		PaddingBottom: box.Padding.Bottom,
		MarginTop:     box.Margin.Top,
		MarginBottom:  box.Margin.Bottom,
	}, true
}

func (e *Engine) styleOf(n *html.Node) style.ComputedStyle {
	if st, ok := e.styles[n]; ok {
		return st
	}
	return style.ComputedStyle{}
}

func (e *Engine) display(n *html.Node) string {
	if n.Type != html.ElementNode {
		return "block"
	}
	return e.styleOf(n).Display(n.Data)
}

// blockLevel reports whether n generates a block-level box. Inline elements
// wrapping block content are promoted to blocks.
func (e *Engine) blockLevel(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch e.display(n) {
	case "none":
		return false
	case "inline", "inline-block":
		if n.IsElement("img") {
			return false
		}
		return n.Find(func(c *html.Node) bool { return c != n && e.blockLevel(c) }) != nil
	}
	return true
}

// build creates the box tree for n
func (e *Engine) build(n *html.Node, st style.ComputedStyle) *BlockBox {
	b := &BlockBox{Node: n, Style: st}

	switch e.display(n) {
	case "table-row":
		b.Row = true
	case "list-item":
		b.Marker = e.marker(n)
	}
	if n.IsElement("img") {
		b.Image = e.Image(n.AttrOr("src", ""))
		return b
	}

	var (
		group     []*html.Node
		hasBlocks bool
		entries   []any
	)
	flush := func() {
		if len(group) > 0 {
			entries = append(entries, group)
			group = nil
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.CommentNode:
		case c.Type == html.ElementNode && e.display(c) == "none":
		case e.blockLevel(c):
			flush()
			hasBlocks = true
			entries = append(entries, c)
		default:
			group = append(group, c)
		}
	}
	flush()

	if !hasBlocks {
		if len(entries) > 0 {
			b.inline = entries[0].([]*html.Node)
		}
		return b
	}
	for _, entry := range entries {
		switch v := entry.(type) {
		case *html.Node:
			if e.display(v) == "table" || e.display(v) == "table-row-group" {
				b.Children = append(b.Children, e.buildTable(v))
				continue
			}
			b.Children = append(b.Children, e.build(v, e.styleOf(v)))
		case []*html.Node:
			if blank(v) {
				continue
			}
			b.Children = append(b.Children, &BlockBox{Style: st.Inherited(), inline: v})
		}
	}
	return b
}

// buildTable flattens row groups so that the table box holds rows only
func (e *Engine) buildTable(n *html.Node) *BlockBox {
	b := &BlockBox{Node: n, Style: e.styleOf(n)}
	var collect func(p *html.Node)
	collect = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || e.display(c) == "none" {
				continue
			}
			switch e.display(c) {
			case "table-row-group", "table-header-group", "table-footer-group":
				collect(c)
			case "table-row":
				b.Children = append(b.Children, e.build(c, e.styleOf(c)))
			default:
				b.Children = append(b.Children, e.build(c, e.styleOf(c)))
			}
		}
	}
	collect(n)
	return b
}

// blank reports an inline group made of whitespace only
func blank(nodes []*html.Node) bool {
	for _, n := range nodes {
		if n.Type != html.TextNode || strings.TrimSpace(n.Data) != "" {
			return false
		}
	}
	return true
}
