package layout

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gompdf/smartprint/internal/pagination"
	"github.com/gompdf/smartprint/internal/parser/html"
	"github.com/gompdf/smartprint/internal/readiness"
	"github.com/gompdf/smartprint/internal/res"
	"github.com/gompdf/smartprint/internal/style"
	"github.com/gompdf/smartprint/internal/text"
)

func newEngine(t *testing.T, markup string, width float64) (*Engine, *html.Document) {
	t.Helper()
	doc, err := html.NewParser().ParseString(markup)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	e := NewEngine(text.NewTextShaper(nil), res.NewLoader("", log), log)
	t.Cleanup(e.Close)
	e.SetStyles(style.NewStyleEngine(nil, log).ComputeStyles(doc.Root))
	e.SetOptions(Options{Width: width})
	return e, doc
}

func byID(doc *html.Document, id string) *html.Node {
	return doc.Root.Find(func(n *html.Node) bool { return n.ID() == id })
}

func TestParagraphWrapsIntoLines(t *testing.T) {
	const sentence = "The quick brown fox jumps over the lazy dog"
	e, doc := newEngine(t, `<p id="p" style="margin: 0; font-family: Helvetica">`+sentence+`</p>`, 120)
	root := e.Layout(doc.Body())

	p := root.Find(byID(doc, "p"))
	require.NotNil(t, p)

	lines := pagination.ExtractLines(p)
	require.Greater(t, len(lines), 1)
	assert.Len(t, p.Lines, len(lines))

	var joined strings.Builder
	for i, l := range lines {
		joined.WriteString(l.Text)
		if i > 0 {
			assert.Greater(t, l.Top, lines[i-1].Top)
		}
	}
	assert.Equal(t, sentence, joined.String())

	total := 0.0
	for _, l := range p.Lines {
		total += l.Height
		assert.LessOrEqual(t, l.extent, l.Width+1e-9)
	}
	assert.InDelta(t, total, p.Height, 1e-9)
}

func TestClientRects(t *testing.T) {
	e, doc := newEngine(t, `<p id="p" style="margin: 0">Hello</p>`, 300)
	root := e.Layout(doc.Body())

	runs := root.Find(byID(doc, "p")).TextRuns()
	require.Len(t, runs, 1)
	run := runs[0]

	assert.Nil(t, run.ClientRects(2, 2))
	assert.Nil(t, run.ClientRects(4, 1))

	whole := run.ClientRects(0, 5)
	require.Len(t, whole, 1)
	head := run.ClientRects(0, 2)
	tail := run.ClientRects(2, 5)
	require.Len(t, head, 1)
	require.Len(t, tail, 1)
	assert.InDelta(t, whole[0].Width, head[0].Width+tail[0].Width, 1e-9)
	assert.InDelta(t, head[0].Left+head[0].Width, tail[0].Left, 1e-9)
	assert.Equal(t, whole[0].Top, tail[0].Top)
}

func TestSiblingMarginsCollapse(t *testing.T) {
	e, doc := newEngine(t,
		`<div id="a" style="margin: 0 0 20px 0; height: 10px"></div><div id="b" style="margin-top: 40px; height: 10px"></div>`, 400)
	root := e.Layout(doc.Body())

	a, b := root.Find(byID(doc, "a")), root.Find(byID(doc, "b"))
	assert.Equal(t, 0.0, a.Y)
	assert.InDelta(t, 37.5, b.Y, 1e-9)

	m, ok := e.Measure(&pagination.Block{Ref: b})
	require.True(t, ok)
	assert.Equal(t, pagination.Metrics{Height: 7.5, MarginTop: 30}, m)

	_, ok = e.Measure(&pagination.Block{})
	assert.False(t, ok)
}

func TestBoxModel(t *testing.T) {
	e, doc := newEngine(t,
		`<div id="d" style="width: 200px; height: 100px; padding: 10px; border: 2px solid red; margin: 4px"></div>`, 400)
	d := e.Layout(doc.Body()).Find(byID(doc, "d"))

	assert.InDelta(t, 168, d.Width, 1e-9)
	assert.InDelta(t, 93, d.Height, 1e-9)
	assert.InDelta(t, 3, d.X, 1e-9)
	assert.InDelta(t, 7.5, d.Padding.Bottom, 1e-9)
	assert.InDelta(t, 3, d.Margin.Top, 1e-9)
}

func TestAnonymousBlocksAndHiddenContent(t *testing.T) {
	e, doc := newEngine(t,
		`<div id="d">text<p>para</p><span style="display: none">hidden</span> tail</div>`, 400)
	d := e.Layout(doc.Body()).Find(byID(doc, "d"))

	require.Len(t, d.Children, 3)
	assert.True(t, d.Children[0].Anonymous())
	assert.False(t, d.Children[1].Anonymous())
	assert.True(t, d.Children[2].Anonymous())

	var texts []string
	for _, r := range d.TextRuns() {
		texts = append(texts, r.Text())
	}
	assert.Equal(t, []string{"text", "para", "tail"}, texts)
}

func TestWhitespaceCollapsesAcrossElements(t *testing.T) {
	e, doc := newEngine(t, `<p id="p">  Hello   <b> bold </b>  world  </p>`, 400)
	p := e.Layout(doc.Body()).Find(byID(doc, "p"))

	var joined strings.Builder
	for _, r := range p.TextRuns() {
		joined.WriteString(r.Text())
	}
	assert.Equal(t, "Hello bold world", joined.String())
	assert.Len(t, p.Lines, 1)
}

func TestLineBreaks(t *testing.T) {
	e, doc := newEngine(t, `<p id="p">a<br><br>b<br></p>`, 400)
	p := e.Layout(doc.Body()).Find(byID(doc, "p"))
	assert.Len(t, p.Lines, 3)
}

func TestTextAlignCenter(t *testing.T) {
	e, doc := newEngine(t, `<p id="p" style="text-align: center; margin: 0">x</p>`, 400)
	p := e.Layout(doc.Body()).Find(byID(doc, "p"))

	require.Len(t, p.Lines, 1)
	f := p.Lines[0].Fragments[0]
	assert.InDelta(t, 200, f.X+f.Width/2, 1e-9)
}

func TestListMarkers(t *testing.T) {
	e, doc := newEngine(t,
		`<ol start="3"><li id="a">x</li><li id="b">y</li></ol><ul><li id="c" data-marker="*">z</li><li id="d">w</li></ul>`, 400)
	root := e.Layout(doc.Body())

	assert.Equal(t, "3.", root.Find(byID(doc, "a")).Marker)
	assert.Equal(t, "4.", root.Find(byID(doc, "b")).Marker)
	assert.Equal(t, "*", root.Find(byID(doc, "c")).Marker)
	assert.Equal(t, "•", root.Find(byID(doc, "d")).Marker)
}

func TestMarker(t *testing.T) {
	tests := []struct {
		kind  string
		index int
		want  string
	}{
		{"decimal", 12, "12."},
		{"lower-alpha", 1, "a."},
		{"lower-alpha", 27, "aa."},
		{"upper-alpha", 28, "AB."},
		{"lower-roman", 4, "iv."},
		{"upper-roman", 1994, "MCMXCIV."},
		{"circle", 1, "o"},
		{"none", 1, ""},
		{"disc", 1, "•"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Equal(t, tt.want, Marker(tt.kind, tt.index))
		})
	}
}

func TestTableColumns(t *testing.T) {
	e, doc := newEngine(t,
		`<table id="t"><tr><td style="width: 100px">a</td><td>b</td></tr><tr id="r"><td>c</td><td>d<br>e</td></tr></table>`, 300)
	root := e.Layout(doc.Body())

	table := root.Find(byID(doc, "t"))
	require.NotNil(t, table)
	require.Len(t, table.Children, 2)

	row := root.Find(byID(doc, "r"))
	require.True(t, row.Row)
	require.Len(t, row.Children, 2)
	assert.InDelta(t, 75, row.Children[0].Width, 1e-9)
	assert.InDelta(t, 225, row.Children[1].Width, 1e-9)
	assert.Equal(t, row.Children[1].Height, row.Children[0].Height)
	assert.Equal(t, row.Height, row.Children[1].Height)
	assert.Greater(t, row.Y, table.Children[0].Y)
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestImagesSizedAfterReadiness(t *testing.T) {
	src := pngDataURL(t, 8, 4)
	e, doc := newEngine(t,
		`<p id="p" style="margin: 0"><img src="`+src+`"> text</p><img id="b" style="display: block; width: 40px" src="`+src+`">`, 400)

	root := e.Layout(doc.Body())
	require.Len(t, root.Images(), 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, readiness.AwaitReady(ctx, root))

	root = e.Layout(doc.Body())
	p := root.Find(byID(doc, "p"))
	require.Len(t, p.Lines, 1)
	img := p.Lines[0].Fragments[0]
	require.NotNil(t, img.Image)
	assert.InDelta(t, 6, img.Width, 1e-9)
	assert.InDelta(t, 3, img.Height, 1e-9)
	assert.Equal(t, 8, img.Image.NaturalWidth())

	block := root.Find(byID(doc, "b"))
	assert.InDelta(t, 30, block.Width, 1e-9)
	assert.InDelta(t, 15, block.Height, 1e-9)

	data, kind := block.Image.Data()
	assert.NotEmpty(t, data)
	assert.Equal(t, "png", kind)
}

func TestMissingImageUsesDefaultSize(t *testing.T) {
	e, doc := newEngine(t, `<img id="i" style="display: block" src="missing.png">`, 400)
	root := e.Layout(doc.Body())

	img := root.Find(byID(doc, "i")).Image
	<-img.Done()
	assert.Error(t, img.Err())
	assert.Zero(t, img.NaturalWidth())

	root = e.Layout(doc.Body())
	assert.Equal(t, defaultImageSize, root.Find(byID(doc, "i")).Height)
}

func TestFragmentVisible(t *testing.T) {
	e, doc := newEngine(t, `<p id="p" style="margin: 0; font-family: Helvetica">alpha beta gamma delta</p>`, 60)
	p := e.Layout(doc.Body()).Find(byID(doc, "p"))
	require.Greater(t, len(p.Lines), 1)

	f := p.Lines[0].Fragments[0]
	s, w := f.Visible()
	assert.False(t, strings.HasSuffix(s, " "))
	assert.True(t, strings.HasSuffix(f.Text(), " "))
	assert.Less(t, w, f.Width)
}

func TestCloseCancelsPendingImageLoads(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	log := zaptest.NewLogger(t)
	e := NewEngine(text.NewTextShaper(nil), res.NewLoader("", log), log)

	img := e.Image(srv.URL + "/slow.png")
	assert.False(t, img.Complete())

	e.Close()
	select {
	case <-img.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("image load was not cancelled")
	}
	assert.True(t, errors.Is(img.Err(), context.Canceled))
	assert.Zero(t, img.NaturalWidth())

	late := e.Image(srv.URL + "/late.png")
	<-late.Done()
	assert.Error(t, late.Err())
}
