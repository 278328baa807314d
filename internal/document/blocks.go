package document

import (
	"fmt"

	"github.com/gompdf/smartprint/internal/pagination"
	"github.com/gompdf/smartprint/internal/parser/html"
)

// Blocks returns one block per element child of the container, in order.
// Content is self-contained markup: computed styles are inlined so that a
// block renders the same outside of its document.
func (d *Document) Blocks() ([]*pagination.Block, error) {
	var blocks []*pagination.Block
	for _, n := range d.container.Children() {
		b := &pagination.Block{
			ID:           len(blocks),
			Class:        n.ID(),
			Ignore:       IsIgnored(n),
			SpacingOwner: IsSpacingOwner(n),
			Ref:          d.boxes[n],
		}
		switch {
		case IsBreak(n):
			b.Kind = pagination.KindBreak
		case IsBlankPage(n):
			b.Kind = pagination.KindBlankPage
		case IsList(n):
			b.Kind = pagination.KindList
			for _, li := range n.Children() {
				item := &pagination.Block{
					ID:           b.ID,
					Class:        li.ID(),
					Ignore:       IsIgnored(li),
					SpacingOwner: IsSpacingOwner(li),
					Ref:          d.boxes[li],
				}
				content, err := d.serialize(li, n)
				if err != nil {
					return nil, err
				}
				item.Content = content
				b.Items = append(b.Items, item)
			}
		}

		content, err := d.serialize(n, nil)
		if err != nil {
			return nil, err
		}
		b.Content = content
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// serialize renders n with inlined styles. A list item is wrapped in a copy
// of its list without vertical margins and padding so that it keeps the
// list indentation.
func (d *Document) serialize(n, list *html.Node) (string, error) {
	c := d.clone(n)
	if list != nil {
		w := &html.Node{Type: list.Type, Data: list.Data, Attr: copyAttrs(list.Attr)}
		w.SetAttribute("style", d.computed[list].Inline()+"; margin-top: 0; margin-bottom: 0; padding-top: 0; padding-bottom: 0")
		w.AppendChild(c)
		c = w
	}
	out, err := html.OuterHTML(c)
	if err != nil {
		return "", fmt.Errorf("unable to serialize block: %w", err)
	}
	return out, nil
}

func (d *Document) clone(n *html.Node) *html.Node {
	c := &html.Node{Type: n.Type, Data: n.Data, Attr: copyAttrs(n.Attr)}
	if n.Type == html.ElementNode {
		if st, ok := d.computed[n]; ok && len(st) > 0 {
			c.SetAttribute("style", st.Inline())
		}
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(d.clone(ch))
	}
	return c
}

func copyAttrs[T any](attrs []T) []T {
	return append([]T(nil), attrs...)
}
