package layout

import (
	"strconv"
	"strings"

	"github.com/gompdf/smartprint/internal/style"
)

// resolveEdges parses margin, border and padding against the containing
// block width
func (e *Engine) resolveEdges(b *BlockBox, avail float64) {
	st := b.Style
	side := func(prefix, suffix string) Edges {
		return Edges{
			Top:    st.LengthOr(prefix+"-top"+suffix, avail, 0),
			Right:  st.LengthOr(prefix+"-right"+suffix, avail, 0),
			Bottom: st.LengthOr(prefix+"-bottom"+suffix, avail, 0),
			Left:   st.LengthOr(prefix+"-left"+suffix, avail, 0),
		}
	}
	b.Margin = side("margin", "")
	b.Padding = side("padding", "")
	b.Border = Edges{
		Top:    st.BorderWidth("top"),
		Right:  st.BorderWidth("right"),
		Bottom: st.BorderWidth("bottom"),
		Left:   st.BorderWidth("left"),
	}
}

// definite resolves a length that does not depend on the containing block
// height
func definite(st style.ComputedStyle, name string) (float64, bool) {
	v := strings.TrimSpace(st.Get(name))
	if v == "" || strings.HasSuffix(v, "%") {
		return 0, false
	}
	return st.Length(name, 0)
}

// layoutBlock lays out b with its border box top at y inside a containing
// block of width avail starting at x
func (e *Engine) layoutBlock(b *BlockBox, x, y, avail float64) {
	e.resolveEdges(b, avail)
	st := b.Style
	bp := b.Border.Horizontal() + b.Padding.Horizontal()
	borderBox := st.Get("box-sizing") == "border-box"

	width, hasWidth := st.Length("width", avail)
	if b.Image != nil {
		h, hasHeight := definite(st, "height")
		width, _ = b.Image.size(width, h, hasWidth, hasHeight)
		width += bp
		hasWidth = true
	} else if hasWidth {
		if !borderBox {
			width += bp
		}
	} else {
		width = avail - b.Margin.Horizontal()
	}
	if mw, ok := st.Length("max-width", avail); ok {
		if !borderBox {
			mw += bp
		}
		width = min(width, mw)
	}
	b.Width = max(0, width)
	b.X = x + b.Margin.Left
	if hasWidth && st.Get("margin-left") == "auto" && st.Get("margin-right") == "auto" {
		b.X = x + max(0, (avail-b.Width)/2)
	}
	b.Y = y

	var content float64
	switch {
	case b.Image != nil:
		content = e.layoutImageBlock(b)
	case b.Row:
		content = e.layoutRow(b)
	case len(b.Children) > 0:
		if st.Display(tagOf(b)) == "table" {
			e.assignColumns(b)
		}
		content = e.layoutChildren(b)
	default:
		content = e.layoutInline(b)
	}

	if h, ok := definite(st, "height"); ok {
		if borderBox {
			h -= b.Border.Vertical() + b.Padding.Vertical()
		}
		content = max(0, h)
	}
	if mh, ok := definite(st, "min-height"); ok {
		content = max(content, mh)
	}
	b.Height = b.Border.Vertical() + b.Padding.Vertical() + content
}

func tagOf(b *BlockBox) string {
	if b.Node == nil {
		return ""
	}
	return b.Node.Data
}

// layoutChildren stacks block children vertically. Adjoining sibling margins
// collapse; the first and last child margins collapse through the parent
// when no border or padding separates them.
func (e *Engine) layoutChildren(b *BlockBox) float64 {
	top := b.ContentY()
	cx, cw := b.ContentX(), b.ContentWidth()
	sealedTop := b.Border.Top+b.Padding.Top > 0
	sealedBottom := b.Border.Bottom+b.Padding.Bottom > 0

	cur, prevMB := top, 0.0
	for i, c := range b.Children {
		e.resolveEdges(c, cw)
		gap := 0.0
		switch {
		case i > 0:
			gap = collapse(prevMB, c.Margin.Top)
		case sealedTop:
			gap = c.Margin.Top
		}
		e.layoutBlock(c, cx, cur+gap, cw)
		cur = c.Y + c.Height
		prevMB = c.Margin.Bottom
	}
	if sealedBottom {
		cur += prevMB
	}
	return cur - top
}

// collapse combines two adjoining margins
func collapse(a, b float64) float64 {
	switch {
	case a >= 0 && b >= 0:
		return max(a, b)
	case a < 0 && b < 0:
		return min(a, b)
	}
	return a + b
}

// layoutImageBlock sizes a block-level replaced image
func (e *Engine) layoutImageBlock(b *BlockBox) float64 {
	w, hasWidth := b.Style.Length("width", b.ContentWidth())
	h, hasHeight := definite(b.Style, "height")
	_, used := b.Image.size(w, h, hasWidth, hasHeight)
	return used
}

// assignColumns gives every row of table b the column widths declared by
// its first row
func (e *Engine) assignColumns(b *BlockBox) {
	var columns []float64
	for _, row := range b.Children {
		if !row.Row {
			continue
		}
		if columns == nil {
			columns = make([]float64, len(row.Children))
			for i, cell := range row.Children {
				columns[i] = e.cellWidth(cell, b.ContentWidth())
			}
		}
		row.columns = columns
	}
}

// cellWidth returns the declared width of a table cell, zero when auto
func (e *Engine) cellWidth(cell *BlockBox, total float64) float64 {
	if w, ok := cell.Style.Length("width", total); ok && w > 0 {
		return w
	}
	if cell.Node == nil {
		return 0
	}
	v := strings.TrimSpace(cell.Node.AttrOr("width", ""))
	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		return f * pxToPt
	}
	if w, ok := style.ParseLength(v, style.DefaultFontSize, total); ok && w > 0 {
		return w
	}
	return 0
}

// layoutRow places the cells of a table row side by side and stretches them
// to the tallest cell
func (e *Engine) layoutRow(b *BlockBox) float64 {
	cw := b.ContentWidth()
	widths := make([]float64, len(b.Children))
	declared, auto := 0.0, 0
	for i, cell := range b.Children {
		w := e.cellWidth(cell, cw)
		if w == 0 && i < len(b.columns) {
			w = b.columns[i]
		}
		widths[i] = w
		if w > 0 {
			declared += w
		} else {
			auto++
		}
	}
	if auto > 0 {
		share := max(0, cw-declared) / float64(auto)
		for i := range widths {
			if widths[i] == 0 {
				widths[i] = share
			}
		}
	}

	x, height := b.ContentX(), 0.0
	for i, cell := range b.Children {
		cell.Style = withoutWidth(cell.Style)
		e.layoutBlock(cell, x, b.ContentY(), widths[i])
		x += widths[i]
		height = max(height, cell.Height)
	}
	for _, cell := range b.Children {
		cell.Height = height
	}
	return height
}

// withoutWidth drops the declared width so that a cell fills its column
func withoutWidth(st style.ComputedStyle) style.ComputedStyle {
	if st.Get("width") == "" {
		return st
	}
	out := make(style.ComputedStyle, len(st))
	for k, v := range st {
		if k != "width" {
			out[k] = v
		}
	}
	return out
}
