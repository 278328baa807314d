package pagination

// Paginate distributes blocks over pages whose content area is maxHeight
// tall. Blocks are never split; lists are expanded into their items.
// Spacing owners receive paragraphSpacing as trailing padding, halved when
// the next unit carries the same Class.
func Paginate(m Measurer, blocks []*Block, maxHeight, paragraphSpacing float64) []Page {
	p := &paginator{measurer: m, maxHeight: maxHeight}

	for i, b := range blocks {
		switch {
		case b.Kind == KindBreak:
			p.flush()
		case b.Ignore:
		case b.Kind == KindBlankPage:
			p.flush()
			p.pages = append(p.pages, Page{{ID: b.ID, Content: b.Content}})
		case b.Kind == KindList:
			for j, item := range b.Items {
				if item.Ignore {
					continue
				}
				var padding *float64
				if item.SpacingOwner {
					padding = spacingFor(item, nextUnit(b.Items, j), paragraphSpacing)
				}
				h := totalHeightAt(m, item, b.Items, j, padding)
				p.place(PageElement{ID: b.ID, Content: item.Content, PaddingBottom: value(padding)}, h)
			}
		default:
			var padding *float64
			if b.SpacingOwner {
				padding = spacingFor(b, nextUnit(blocks, i), paragraphSpacing)
			}
			h := totalHeightAt(m, b, blocks, i, padding)
			p.place(PageElement{ID: b.ID, Content: b.Content, PaddingBottom: value(padding)}, h)
		}
	}
	p.flush()

	return p.pages
}

type paginator struct {
	measurer  Measurer
	maxHeight float64

	pages   []Page
	current Page
	height  float64
}

func (p *paginator) place(el PageElement, h float64) {
	if p.height+h > p.maxHeight && len(p.current) > 0 {
		p.flush()
	}
	p.current = append(p.current, el)
	p.height += h
}

func (p *paginator) flush() {
	if len(p.current) > 0 {
		p.pages = append(p.pages, p.current)
	}
	p.current = nil
	p.height = 0
}

// nextUnit returns the next non-ignored block after idx or nil
func nextUnit(blocks []*Block, idx int) *Block {
	for i := idx + 1; i < len(blocks); i++ {
		if !blocks[i].Ignore {
			return blocks[i]
		}
	}
	return nil
}

func spacingFor(b, next *Block, paragraphSpacing float64) *float64 {
	spacing := paragraphSpacing
	if next != nil && next.Class == b.Class {
		spacing = paragraphSpacing / 2
	}
	return &spacing
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
