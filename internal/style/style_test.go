package style

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gompdf/smartprint/internal/parser/css"
	"github.com/gompdf/smartprint/internal/parser/html"
)

func TestParseLength(t *testing.T) {
	tests := []struct {
		value    string
		fontSize float64
		base     float64
		want     float64
		ok       bool
	}{
		{"16px", 12, 0, 12, true},
		{"12pt", 12, 0, 12, true},
		{"1in", 12, 0, 72, true},
		{"2.54cm", 12, 0, 72, true},
		{"25.4mm", 12, 0, 72, true},
		{"1.5em", 10, 0, 15, true},
		{"2rem", 10, 0, 24, true},
		{"50%", 12, 400, 200, true},
		{"0", 12, 0, 0, true},
		{"20", 12, 0, 15, true},
		{"auto", 12, 0, 0, false},
		{"bogus", 12, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := ParseLength(tt.value, tt.fontSize, tt.base)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseColor(t *testing.T) {
	c, ok := ParseColor("#abc")
	require.True(t, ok)
	assert.Equal(t, color.RGBA{0xaa, 0xbb, 0xcc, 255}, c)

	c, ok = ParseColor("rgb(10, 20, 30)")
	require.True(t, ok)
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, c)

	c, ok = ParseColor("Navy")
	require.True(t, ok)
	assert.Equal(t, color.RGBA{0, 0, 128, 255}, c)

	_, ok = ParseColor("transparent")
	assert.False(t, ok)
	_, ok = ParseColor("rgba(1, 2, 3, 0)")
	assert.False(t, ok)
}

func computeFor(t *testing.T, markup, sheet string) (map[*html.Node]ComputedStyle, *html.Document) {
	t.Helper()
	doc, err := html.NewParser().ParseString(markup)
	require.NoError(t, err)

	engine := NewStyleEngine(nil, zaptest.NewLogger(t))
	if sheet != "" {
		ss, err := css.NewParser(nil).ParseString(sheet)
		require.NoError(t, err)
		engine.AddStylesheet(ss)
	}
	return engine.ComputeStyles(doc.Root), doc
}

func byID(doc *html.Document, id string) *html.Node {
	return doc.Root.Find(func(n *html.Node) bool { return n.ID() == id })
}

func TestCascadeAndInheritance(t *testing.T) {
	styles, doc := computeFor(t,
		`<div id="outer" class="box" style="color: red"><p id="inner" class="lead">text <b id="bold">b</b></p></div>`,
		`.box { font-size: 20px; color: blue; }
		 p.lead { margin: 10px 5px; }
		 .lead { margin-top: 2px; }
		 div p { text-align: center; }`)

	outer := styles[byID(doc, "outer")]
	assert.Equal(t, "red", outer.Get("color"), "inline style wins over author rules")
	assert.Equal(t, "15pt", outer.Get("font-size"))

	inner := styles[byID(doc, "inner")]
	assert.Equal(t, "red", inner.Get("color"))
	assert.Equal(t, 15.0, inner.FontSize())
	assert.Equal(t, "10px", inner.Get("margin-top"), "higher specificity wins regardless of order")
	assert.Equal(t, "5px", inner.Get("margin-right"))
	assert.Equal(t, "center", inner.Get("text-align"))

	bold := styles[byID(doc, "bold")]
	assert.True(t, bold.Bold())
	assert.Equal(t, "center", bold.Get("text-align"))
}

func TestRelativeFontSizes(t *testing.T) {
	styles, doc := computeFor(t, `<h1 id="h"><span id="s" style="font-size: 0.5em">x</span></h1>`, "")

	assert.Equal(t, 24.0, styles[byID(doc, "h")].FontSize())
	assert.Equal(t, 12.0, styles[byID(doc, "s")].FontSize())
}

func TestChildCombinatorAndAttributes(t *testing.T) {
	styles, doc := computeFor(t,
		`<ul id="rsp-list"><li id="a"><div><span id="deep" data-break="true">x</span></div></li></ul>`,
		`ul > span { color: red; }
		 ul > li { color: green; }
		 [data-break=true] { display: block; }`)

	assert.Equal(t, "green", styles[byID(doc, "a")].Get("color"))
	deep := styles[byID(doc, "deep")]
	assert.Equal(t, "green", deep.Get("color"))
	assert.Equal(t, "block", deep.Display("span"))
}

func TestCombinatorsWithoutSpaces(t *testing.T) {
	sheet, err := css.NewParser(nil).ParseString(`ul > li { color: green; }`)
	require.NoError(t, err)
	require.Len(t, sheet.Rules, 1)
	require.Len(t, sheet.Rules[0].Selectors, 1)
	assert.Equal(t, []string{"ul", ">", "li"}, selectorParts(sheet.Rules[0].Selectors[0]))

	styles, doc := computeFor(t,
		`<ul><li id="first">a</li><li id="second">b</li><li id="third">c</li></ul><p id="after">d</p><p id="later">e</p>`,
		`ul>li { color: green; }
		 li+li { font-weight: bold; }
		 ul~p { text-align: right; }
		 ul+p { text-decoration: underline; }
		 body>li { color: red; }`)

	first := styles[byID(doc, "first")]
	assert.Equal(t, "green", first.Get("color"))
	assert.False(t, first.Bold())
	assert.True(t, styles[byID(doc, "second")].Bold())
	assert.True(t, styles[byID(doc, "third")].Bold())

	assert.Equal(t, "right", styles[byID(doc, "after")].Get("text-align"))
	assert.Equal(t, "right", styles[byID(doc, "later")].Get("text-align"))
	assert.Equal(t, "underline", styles[byID(doc, "after")].Get("text-decoration"))
	assert.NotEqual(t, "underline", styles[byID(doc, "later")].Get("text-decoration"))
}

func TestSelectorParts(t *testing.T) {
	tests := map[string][]string{
		"ul>li":              {"ul", ">", "li"},
		"div  p.lead":        {"div", "p.lead"},
		"h1+p~span":          {"h1", "+", "p", "~", "span"},
		"a[title~=x] > b":    {"a[title~=x]", ">", "b"},
		"#rsp-list > li.odd": {"#rsp-list", ">", "li.odd"},
	}
	for selector, want := range tests {
		t.Run(selector, func(t *testing.T) {
			assert.Equal(t, want, selectorParts(selector))
		})
	}

	assert.Equal(t, Specificity{Element: 2}, calculateSpecificity("ul>li"))
	assert.Equal(t, Specificity{ID: 1, Class: 1, Element: 1}, calculateSpecificity("#rsp-list > li.odd"))
}

func TestBorderShorthand(t *testing.T) {
	styles, doc := computeFor(t, `<div id="d" style="border: 2px solid #ff0000; border-left: none"></div>`, "")
	d := styles[byID(doc, "d")]

	assert.Equal(t, 1.5, d.BorderWidth("top"))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, d.BorderColor("top"))
	assert.Zero(t, d.BorderWidth("left"))
}

func TestLineHeight(t *testing.T) {
	s := ComputedStyle{}
	s.set("font-size", "10pt", SourceAuthor)
	assert.InDelta(t, 12.0, s.LineHeight(), 1e-9)

	s.set("line-height", "1.5", SourceAuthor)
	assert.InDelta(t, 15.0, s.LineHeight(), 1e-9)

	s.set("line-height", "20px", SourceAuthor)
	assert.InDelta(t, 15.0, s.LineHeight(), 1e-9)
}

func TestInline(t *testing.T) {
	s := ComputedStyle{}
	s.set("margin-top", "0", SourceAuthor)
	s.set("color", "red", SourceAuthor)
	assert.Equal(t, "color: red; margin-top: 0", s.Inline())
}

func TestInherited(t *testing.T) {
	s := ComputedStyle{}
	s.set("margin-top", "10px", SourceAuthor)
	s.set("color", "red", SourceAuthor)
	out := s.Inherited()
	assert.Equal(t, "red", out.Get("color"))
	assert.Empty(t, out.Get("margin-top"))
}
