package document

import (
	"strconv"

	"github.com/gompdf/smartprint/internal/layout"
	"github.com/gompdf/smartprint/internal/pagination"
	"github.com/gompdf/smartprint/internal/parser/html"
)

// expandParagraphs replaces every paragraph marked for expansion with one
// element per rendered line. Vertical margins become spacer elements and
// the last line owns the paragraph spacing.
func (d *Document) expandParagraphs() int {
	var paragraphs []*html.Node
	d.container.Walk(func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.HasClass(ParagraphClass) {
			paragraphs = append(paragraphs, n)
			return false
		}
		return true
	})

	expanded := 0
	for _, p := range paragraphs {
		box := d.boxes[p]
		if box == nil || p.Parent == nil {
			continue
		}
		d.replaceParagraph(p, box, pagination.ExtractLines(box))
		expanded++
	}
	return expanded
}

func (d *Document) replaceParagraph(p *html.Node, box *layout.BlockBox, lines []pagination.LineFragment) {
	parent := p.Parent
	lineStyle := d.computed[p].Inline() + "; margin-top: 0; margin-bottom: 0"

	if box.Margin.Top > 0 {
		parent.InsertBefore(spacer(box.Margin.Top), p)
	}
	for i, l := range lines {
		line := html.NewElement("p",
			html.Attr("id", ParagraphLineID),
			html.Attr("style", lineStyle))
		if i == len(lines)-1 {
			line.AddClass(SpacingClass)
		}
		line.AppendChild(html.NewText(l.Text))
		parent.InsertBefore(line, p)
	}
	if box.Margin.Bottom > 0 {
		parent.InsertBefore(spacer(box.Margin.Bottom), p)
	}
	p.Remove()
}

func spacer(height float64) *html.Node {
	return html.NewElement("div", html.Attr("style", "height: "+strconv.FormatFloat(height, 'f', -1, 64)+"pt"))
}

// prepareLists makes the last item of every paginated list a spacing owner
// and pins list markers on the items so that they survive serialization of
// single items. It reports whether the tree changed.
func (d *Document) prepareLists() bool {
	changed := false
	d.container.Walk(func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if IsList(n) {
			if items := n.Children(); len(items) > 0 && !IsSpacingOwner(items[len(items)-1]) {
				items[len(items)-1].AddClass(SpacingClass)
				changed = true
			}
		}
		if b := d.boxes[n]; b != nil && b.Marker != "" {
			if _, ok := n.Attribute(layout.MarkerAttribute); !ok {
				n.SetAttribute(layout.MarkerAttribute, b.Marker)
			}
		}
		return true
	})
	return changed
}
