package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/gompdf/smartprint/internal/parser/html"
	"github.com/gompdf/smartprint/internal/style"
	"github.com/gompdf/smartprint/internal/text"
)

type itemKind int

const (
	itemText itemKind = iota
	itemImage
	itemBreak
)

// inlineItem is a unit of inline content in document order
type inlineItem struct {
	kind  itemKind
	run   *TextRun
	image *Image
	node  *html.Node
	style style.ComputedStyle
}

// FontOf returns the text font described by a computed style
func FontOf(st style.ComputedStyle) text.Font {
	return text.Font{
		Family: st.Get("font-family"),
		Bold:   st.Bold(),
		Italic: st.Italic(),
		Size:   st.FontSize(),
	}
}

func preserves(st style.ComputedStyle) bool {
	ws := st.Get("white-space")
	return ws == "pre" || ws == "pre-wrap"
}

func wraps(st style.ComputedStyle) bool {
	ws := st.Get("white-space")
	return ws != "pre" && ws != "nowrap"
}

// collectInline flattens the inline content of b into items, collapsing
// whitespace across element boundaries
func (e *Engine) collectInline(b *BlockBox) []inlineItem {
	var items []inlineItem
	space := true

	var walk func(n *html.Node, st style.ComputedStyle)
	walk = func(n *html.Node, st style.ComputedStyle) {
		switch n.Type {
		case html.TextNode:
			items = e.appendText(b, items, n, st, &space)
		case html.ElementNode:
			cs, ok := e.styles[n]
			if !ok {
				cs = st
			}
			if cs.Display(n.Data) == "none" {
				return
			}
			switch {
			case n.IsElement("br"):
				items = trimTrailingSpace(items)
				items = append(items, inlineItem{kind: itemBreak, node: n, style: cs})
				space = true
			case n.IsElement("img"):
				items = append(items, inlineItem{kind: itemImage, image: e.Image(n.AttrOr("src", "")), node: n, style: cs})
				space = false
			default:
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c, cs)
				}
			}
		}
	}
	for _, n := range b.inline {
		walk(n, b.Style)
	}
	return trimTrailingSpace(items)
}

func (e *Engine) appendText(b *BlockBox, items []inlineItem, n *html.Node, st style.ComputedStyle, space *bool) []inlineItem {
	t := text.Normalize(n.Data)
	if !preserves(st) {
		t = text.CollapseWhitespace(t)
		if *space {
			t = strings.TrimPrefix(t, " ")
		}
		if t == "" {
			return items
		}
		*space = strings.HasSuffix(t, " ")
		return append(items, e.textItem(b, n, st, t, false))
	}

	for i, line := range strings.Split(strings.ReplaceAll(t, "\r\n", "\n"), "\n") {
		if i > 0 {
			items = append(items, inlineItem{kind: itemBreak, node: n, style: st})
		}
		if line != "" {
			items = append(items, e.textItem(b, n, st, line, true))
		}
	}
	*space = false
	return items
}

func (e *Engine) textItem(b *BlockBox, n *html.Node, st style.ComputedStyle, s string, pre bool) inlineItem {
	font := FontOf(st)
	runes := []rune(s)
	run := &TextRun{
		Node:     n,
		Style:    st,
		Font:     font,
		runes:    runes,
		advances: e.shaper.Advances(runes, font),
		pre:      pre,
	}
	run.ascent, run.descent = e.shaper.Metrics(font)
	b.runs = append(b.runs, run)
	return inlineItem{kind: itemText, run: run, node: n, style: st}
}

// trimTrailingSpace drops a collapsible space ending the last text item
func trimTrailingSpace(items []inlineItem) []inlineItem {
	if len(items) == 0 {
		return items
	}
	last := items[len(items)-1]
	if last.kind != itemText || last.run.pre {
		return items
	}
	r := last.run
	if n := len(r.runes); n > 0 && r.runes[n-1] == ' ' {
		r.runes, r.advances = r.runes[:n-1], r.advances[:n-1]
	}
	return items
}

// lineBuilder fills line boxes greedily
type lineBuilder struct {
	left  float64
	width float64
	lines []*LineBox
	cur   *LineBox
	x     float64
}

func (lb *lineBuilder) line() *LineBox {
	if lb.cur == nil {
		lb.cur = &LineBox{X: lb.left, Width: lb.width}
		lb.lines = append(lb.lines, lb.cur)
		lb.x = 0
	}
	return lb.cur
}

func (lb *lineBuilder) hasContent() bool {
	return lb.cur != nil && lb.cur.content
}

func (lb *lineBuilder) breakLine() {
	lb.cur = nil
	lb.line()
}

// place appends runes [start, end) of run to the current line, extending the
// previous fragment when it continues the same run
func (lb *lineBuilder) place(item inlineItem, start, end int, advances []float64, content bool) {
	l := lb.line()
	w := sum(advances)
	run := item.run

	if n := len(l.Fragments); n > 0 {
		if f := l.Fragments[n-1]; f.Run == run && f.End == start {
			f.End = end
			f.advances = append(f.advances, advances...)
			f.Width += w
			lb.advance(w, content)
			return
		}
	}
	f := &Fragment{
		Run:      run,
		Node:     item.node,
		Style:    item.style,
		Start:    start,
		End:      end,
		X:        lb.x,
		Width:    w,
		advances: append([]float64(nil), advances...),
	}
	l.Fragments = append(l.Fragments, f)
	run.fragments = append(run.fragments, f)
	lb.advance(w, content)
}

func (lb *lineBuilder) advance(w float64, content bool) {
	lb.x += w
	if content {
		lb.cur.content = true
		lb.cur.extent = lb.x
	}
}

func (lb *lineBuilder) text(item inlineItem) {
	run := item.run
	wrap := wraps(item.style)
	pos := 0
	for _, tok := range text.Tokenize(string(run.runes)) {
		start := pos
		end := pos + utf8.RuneCountInString(tok.Text)
		pos = end
		adv := run.advances[start:end]

		if tok.Space && !run.pre {
			if !lb.hasContent() {
				lb.place(item, start, end, make([]float64, end-start), false)
				continue
			}
			// trailing spaces hang past the line end
			lb.place(item, start, end, adv, false)
			continue
		}

		w := sum(adv)
		if wrap && lb.hasContent() && lb.x+w > lb.width {
			lb.breakLine()
		}
		if wrap && w > lb.width {
			for i := start; i < end; i++ {
				if lb.hasContent() && lb.x+run.advances[i] > lb.width {
					lb.breakLine()
				}
				lb.place(item, i, i+1, run.advances[i:i+1], true)
			}
			continue
		}
		lb.place(item, start, end, adv, true)
	}
}

func (lb *lineBuilder) image(item inlineItem) {
	w, hasWidth := item.style.Length("width", lb.width)
	h, hasHeight := definite(item.style, "height")
	w, h = item.image.size(w, h, hasWidth, hasHeight)
	if lb.hasContent() && lb.x+w > lb.width {
		lb.breakLine()
	}
	l := lb.line()
	l.Fragments = append(l.Fragments, &Fragment{
		Image:  item.image,
		Node:   item.node,
		Style:  item.style,
		X:      lb.x,
		Width:  w,
		Height: h,
	})
	lb.advance(w, true)
}

// layoutInline lays out the inline content of b into line boxes and returns
// their total height
func (e *Engine) layoutInline(b *BlockBox) float64 {
	b.runs, b.Lines = nil, nil
	items := e.collectInline(b)
	if len(items) == 0 {
		return 0
	}

	lb := &lineBuilder{left: b.ContentX(), width: b.ContentWidth()}
	for _, item := range items {
		switch item.kind {
		case itemText:
			lb.text(item)
		case itemImage:
			lb.image(item)
		case itemBreak:
			lb.line()
			lb.cur = nil
		}
	}

	strutAscent, strutDescent := e.shaper.Metrics(FontOf(b.Style))
	strutLeading := b.Style.LineHeight() - strutAscent - strutDescent
	align := strings.ToLower(b.Style.Get("text-align"))

	y := b.ContentY()
	for _, l := range lb.lines {
		above := strutAscent + strutLeading/2
		below := strutDescent + strutLeading/2
		for _, f := range l.Fragments {
			if f.Image != nil {
				above = max(above, f.Height)
				continue
			}
			leading := f.Run.Style.LineHeight() - f.Run.ascent - f.Run.descent
			above = max(above, f.Run.ascent+leading/2)
			below = max(below, f.Run.descent+leading/2)
		}

		l.Y = y
		l.Height = above + below
		l.Baseline = y + above

		offset := 0.0
		switch align {
		case "center":
			offset = max(0, (l.Width-l.extent)/2)
		case "right", "end":
			offset = max(0, l.Width-l.extent)
		}
		for _, f := range l.Fragments {
			f.X += l.X + offset
			f.Baseline = l.Baseline
			if f.Image != nil {
				f.Y = l.Baseline - f.Height
				continue
			}
			f.Y = l.Baseline - f.Run.ascent
			f.Height = f.Run.ascent + f.Run.descent
		}
		y += l.Height
	}
	b.Lines = lb.lines
	return y - b.ContentY()
}
