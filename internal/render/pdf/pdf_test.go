package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gompdf/smartprint/internal/render"
	"github.com/gompdf/smartprint/internal/text"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect width="10" height="10" fill="#00ff00"/></svg>`

func testDocument(t *testing.T) *render.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	font := text.Font{Family: "Helvetica", Size: 12}
	face := text.NewFontRegistry(zaptest.NewLogger(t)).Resolve(font.Family, false, false)

	return &render.Document{
		Frame: render.Frame{PageWidth: 300, PageHeight: 200},
		Title: "Test",
		Pages: []*render.Page{
			{Number: 1, Ops: []render.Op{
				render.RectOp{X: 10, Y: 10, Width: 50, Height: 20, Fill: color.RGBA{R: 200, A: 255}},
				render.TextOp{X: 10, Baseline: 50, Width: 40, Text: "Héllo", Font: font, Face: face, Underline: true},
				render.ImageOp{X: 10, Y: 60, Width: 20, Height: 20, Src: "a.png", Data: buf.Bytes(), Kind: "png"},
				render.ImageOp{X: 40, Y: 60, Width: 20, Height: 20, Src: "b.svg", Data: []byte(square), Kind: "svg"},
			}},
			{Number: 2, Ops: []render.Op{
				render.ImageOp{X: 10, Y: 10, Width: 20, Height: 20, Src: "a.png", Data: buf.Bytes(), Kind: "png"},
				render.ImageOp{X: 10, Y: 40, Width: 20, Height: 20, Src: "broken", Data: []byte("nope"), Kind: "webp"},
			}},
		},
	}
}

func TestRender(t *testing.T) {
	r := NewRenderer(RenderOptions{Creator: "tests"}, zaptest.NewLogger(t))
	r.DebugDrawBoxes = true

	var out bytes.Buffer
	require.NoError(t, r.Render(testDocument(t), &out))
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-")))
	assert.Contains(t, out.String(), "/Count 2")
}

func TestRenderFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.pdf")
	r := NewRenderer(RenderOptions{}, zaptest.NewLogger(t))
	require.NoError(t, r.RenderFile(testDocument(t), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
