package layout

import (
	"github.com/gompdf/smartprint/internal/pagination"
	"github.com/gompdf/smartprint/internal/parser/html"
	"github.com/gompdf/smartprint/internal/readiness"
	"github.com/gompdf/smartprint/internal/style"
	"github.com/gompdf/smartprint/internal/text"
)

// Box is a laid out element
type Box interface {
	GetX() float64
	GetY() float64
	GetWidth() float64
	GetHeight() float64
	GetNode() *html.Node
}

// Edges represents the four sides of a margin, border or padding area
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Horizontal returns the sum of the left and right sides
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns the sum of the top and bottom sides
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// BlockBox represents a block-level box in the layout. X, Y, Width and
// Height describe the border box.
type BlockBox struct {
	Node  *html.Node
	Style style.ComputedStyle

	X      float64
	Y      float64
	Width  float64
	Height float64

	Margin  Edges
	Border  Edges
	Padding Edges

	Children []*BlockBox
	Lines    []*LineBox

	// Row boxes place their children side by side.
	Row bool
	// Marker is the list marker of list items.
	Marker string
	// Image is set for block-level replaced images.
	Image *Image

	inline  []*html.Node
	runs    []*TextRun
	columns []float64
}

func (b *BlockBox) GetX() float64       { return b.X }
func (b *BlockBox) GetY() float64       { return b.Y }
func (b *BlockBox) GetWidth() float64   { return b.Width }
func (b *BlockBox) GetHeight() float64  { return b.Height }
func (b *BlockBox) GetNode() *html.Node { return b.Node }

// Anonymous reports a box generated for inline content between blocks
func (b *BlockBox) Anonymous() bool { return b.Node == nil }

// ContentX returns the left edge of the content area
func (b *BlockBox) ContentX() float64 { return b.X + b.Border.Left + b.Padding.Left }

// ContentY returns the top edge of the content area
func (b *BlockBox) ContentY() float64 { return b.Y + b.Border.Top + b.Padding.Top }

// ContentWidth returns the width of the content area
func (b *BlockBox) ContentWidth() float64 {
	return max(0, b.Width-b.Border.Horizontal()-b.Padding.Horizontal())
}

// Walk visits b and its descendants depth first until fn returns false
func (b *BlockBox) Walk(fn func(*BlockBox) bool) bool {
	if !fn(b) {
		return false
	}
	for _, c := range b.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the box generated for node
func (b *BlockBox) Find(node *html.Node) *BlockBox {
	var found *BlockBox
	b.Walk(func(c *BlockBox) bool {
		if c.Node == node {
			found = c
			return false
		}
		return true
	})
	return found
}

// TextRuns returns the text runs of the subtree in document order
func (b *BlockBox) TextRuns() []pagination.TextRun {
	var runs []pagination.TextRun
	b.Walk(func(c *BlockBox) bool {
		for _, r := range c.runs {
			runs = append(runs, r)
		}
		return true
	})
	return runs
}

// Images returns the images referenced by the subtree
func (b *BlockBox) Images() []readiness.Image {
	var images []readiness.Image
	b.Walk(func(c *BlockBox) bool {
		if c.Image != nil {
			images = append(images, c.Image)
		}
		for _, l := range c.Lines {
			for _, f := range l.Fragments {
				if f.Image != nil {
					images = append(images, f.Image)
				}
			}
		}
		return true
	})
	return images
}

// LineBox represents one line of inline content
type LineBox struct {
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Baseline float64

	Fragments []*Fragment

	extent  float64
	content bool
}

// Fragment is the part of a text run or an inline image placed on a line
type Fragment struct {
	Run   *TextRun
	Image *Image
	Node  *html.Node
	Style style.ComputedStyle

	// Start and End are rune offsets into the run.
	Start int
	End   int

	X        float64
	Y        float64
	Width    float64
	Height   float64
	Baseline float64

	advances []float64
}

// Text returns the characters of the fragment
func (f *Fragment) Text() string {
	if f.Run == nil {
		return ""
	}
	return string(f.Run.runes[f.Start:f.End])
}

// TextRun is the collapsed text of one text node. It reports the client
// rectangles of any sub-range once laid out.
type TextRun struct {
	Node  *html.Node
	Style style.ComputedStyle
	Font  text.Font

	runes     []rune
	advances  []float64
	fragments []*Fragment
	pre       bool
	ascent    float64
	descent   float64
}

// Text returns the run's collapsed text
func (r *TextRun) Text() string {
	return string(r.runes)
}

// ClientRects returns one rectangle per line fragment intersecting the rune
// range [start, end)
func (r *TextRun) ClientRects(start, end int) []pagination.Rect {
	start = max(start, 0)
	end = min(end, len(r.runes))
	if start >= end {
		return nil
	}

	var rects []pagination.Rect
	for _, f := range r.fragments {
		s, e := max(start, f.Start), min(end, f.End)
		if s >= e {
			continue
		}
		left := f.X + sum(f.advances[:s-f.Start])
		rects = append(rects, pagination.Rect{
			Left:   left,
			Top:    f.Y,
			Width:  sum(f.advances[s-f.Start : e-f.Start]),
			Height: f.Height,
		})
	}
	return rects
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// Visible returns the fragment text without hanging spaces and its width
func (f *Fragment) Visible() (string, float64) {
	if f.Run == nil {
		return "", f.Width
	}
	end := f.End
	for end > f.Start && f.Run.runes[end-1] == ' ' {
		end--
	}
	return string(f.Run.runes[f.Start:end]), sum(f.advances[:end-f.Start])
}
