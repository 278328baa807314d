// Package render turns paginated content into display lists that the PDF
// and PNG backends draw.
package render

import (
	"image/color"

	"github.com/gompdf/smartprint/internal/layout"
	"github.com/gompdf/smartprint/internal/text"
)

// Frame describes the physical page around the content area
type Frame struct {
	PageWidth  float64
	PageHeight float64
	Margin     layout.Edges

	// Header and Footer are HTML templates drawn in the top and bottom
	// margins. {page} and {total} are replaced by the page number and count.
	Header string
	Footer string
	// Cover is HTML drawn on an unnumbered first page.
	Cover string
}

// ContentWidth returns the width of the content area
func (f Frame) ContentWidth() float64 {
	return f.PageWidth - f.Margin.Horizontal()
}

// ContentHeight returns the height of the content area
func (f Frame) ContentHeight() float64 {
	return f.PageHeight - f.Margin.Vertical()
}

// Op is a drawing operation in page coordinates (points, origin top left)
type Op interface {
	op()
}

// TextOp draws a single line of text at a baseline
type TextOp struct {
	X, Baseline float64
	Width       float64
	Text        string
	Font        text.Font
	Face        text.Face
	Color       color.RGBA
	Underline   bool
}

// RectOp fills a rectangle
type RectOp struct {
	X, Y, Width, Height float64
	Fill                color.RGBA
}

// ImageOp draws encoded image data into a rectangle
type ImageOp struct {
	X, Y, Width, Height float64
	Src                 string
	Data                []byte
	// Kind is the sniffed type, for example "png" or "svg".
	Kind string
}

func (TextOp) op()  {}
func (RectOp) op()  {}
func (ImageOp) op() {}

// Page is the display list of one physical page
type Page struct {
	// Number is the 1-based page number, zero for the cover.
	Number int
	Cover  bool
	Ops    []Op
}

// Document is the composed output handed to a backend
type Document struct {
	Frame  Frame
	Title  string
	Author string
	Pages  []*Page
}
