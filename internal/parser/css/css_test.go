package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseRules(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))

	sheet, err := p.ParseString(`
/* headings */
h1, h2.title { margin-top: 24px; font-weight: bold !important; }
p { line-height: 1.5 }
`)
	require.NoError(t, err)
	require.Len(t, sheet.Rules, 2)

	first := sheet.Rules[0]
	assert.Equal(t, []string{"h1", "h2.title"}, first.Selectors)
	require.Len(t, first.Declarations, 2)
	assert.Equal(t, &Declaration{Property: "margin-top", Value: "24px"}, first.Declarations[0])
	assert.Equal(t, &Declaration{Property: "font-weight", Value: "bold", Important: true}, first.Declarations[1])

	assert.Equal(t, []string{"p"}, sheet.Rules[1].Selectors)
	assert.Equal(t, "1.5", sheet.Rules[1].Declarations[0].Value)
}

func TestParseMedia(t *testing.T) {
	p := NewParser(nil)

	sheet, err := p.ParseString(`
@media screen { p { color: red } }
@media print { p { color: black } }
div { color: blue }
`)
	require.NoError(t, err)
	require.Len(t, sheet.Rules, 2)
	assert.Equal(t, "black", sheet.Rules[0].Declarations[0].Value)
	assert.Equal(t, []string{"div"}, sheet.Rules[1].Selectors)
}

func TestParseFontFace(t *testing.T) {
	p := NewParser(nil)

	sheet, err := p.ParseString(`@font-face { font-family: "Body Text"; font-weight: bold; src: url("fonts/body-bold.ttf"), url(fallback.ttf); }`)
	require.NoError(t, err)
	require.Len(t, sheet.FontFaces, 1)

	ff := sheet.FontFaces[0]
	assert.Equal(t, "Body Text", ff.Family)
	assert.Equal(t, "bold", ff.Weight)
	assert.Equal(t, []string{"fonts/body-bold.ttf", "fallback.ttf"}, ff.Src)
}

func TestParseDeclarations(t *testing.T) {
	p := NewParser(nil)

	decls := p.ParseDeclarations("margin: 0 0 12px 0; COLOR: #333;padding-bottom:4pt")
	require.Len(t, decls, 3)
	assert.Equal(t, "margin", decls[0].Property)
	assert.Equal(t, "0 0 12px 0", decls[0].Value)
	assert.Equal(t, "color", decls[1].Property)
	assert.Equal(t, "#333", decls[1].Value)
	assert.Equal(t, "4pt", decls[2].Value)
}

func TestURL(t *testing.T) {
	assert.Equal(t, "a.png", URL(`url("a.png")`))
	assert.Equal(t, "b.png", URL(`url( 'b.png' )`))
	assert.Equal(t, "c.png", URL(`url(c.png)`))
	assert.Empty(t, URL("none"))
}
