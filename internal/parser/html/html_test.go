package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOuterHTMLIsDeep(t *testing.T) {
	doc, err := NewParser().ParseString(`<html><body><div id="a"><p class="x y">Hello <b>world</b></p></div></body></html>`)
	require.NoError(t, err)

	div := doc.Root.Find(func(n *Node) bool { return n.ID() == "a" })
	require.NotNil(t, div)

	out, err := OuterHTML(div)
	require.NoError(t, err)
	assert.Equal(t, `<div id="a"><p class="x y">Hello <b>world</b></p></div>`, out)
}

func TestParseFragment(t *testing.T) {
	nodes, err := NewParser().ParseFragment(`<li>one</li><p>two</p>`)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.True(t, nodes[0].IsElement("li"))
	assert.Equal(t, "two", nodes[1].TextContent())
}

func TestClassesAndAttributes(t *testing.T) {
	n := NewElement("p", Attr("class", "rsp-paragraph lead"))

	assert.True(t, n.HasClass("lead"))
	assert.False(t, n.HasClass("rsp"))

	n.AddClass("rsp-add-p-spacing")
	n.AddClass("lead")
	assert.Equal(t, "rsp-paragraph lead rsp-add-p-spacing", n.AttrOr("class", ""))

	n.SetAttribute("id", "rsp-paragraph-line")
	assert.Equal(t, "rsp-paragraph-line", n.ID())
}

func TestTreeMutation(t *testing.T) {
	parent := NewElement("div")
	a, b, c := NewElement("a"), NewElement("b"), NewElement("c")
	parent.AppendChild(a)
	parent.AppendChild(c)
	parent.InsertBefore(b, c)

	assert.Equal(t, []*Node{a, b, c}, parent.Children())

	b.Remove()
	assert.Equal(t, []*Node{a, c}, parent.Children())

	a.Remove()
	c.Remove()
	assert.Empty(t, parent.Children())
	assert.Nil(t, parent.FirstChild)
	assert.Nil(t, parent.LastChild)
}

func TestBody(t *testing.T) {
	doc, err := NewParser().ParseString(`<p>text</p>`)
	require.NoError(t, err)
	assert.True(t, doc.Body().IsElement("body"))
	assert.Equal(t, "text", doc.Body().TextContent())
}
