package png

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gompdf/smartprint/internal/render"
	"github.com/gompdf/smartprint/internal/text"
)

func testDocument(t *testing.T) *render.Document {
	t.Helper()
	font := text.Font{Family: "Helvetica", Size: 12}
	face := text.NewFontRegistry(zaptest.NewLogger(t)).Resolve(font.Family, true, false)

	return &render.Document{
		Frame: render.Frame{PageWidth: 72, PageHeight: 144},
		Pages: []*render.Page{
			{Number: 1, Ops: []render.Op{
				render.RectOp{X: 0, Y: 0, Width: 36, Height: 36, Fill: color.RGBA{R: 255, A: 255}},
				render.TextOp{X: 4, Baseline: 60, Width: 30, Text: "Hi", Font: font, Face: face, Underline: true},
				render.ImageOp{X: 0, Y: 100, Width: 10, Height: 10, Src: "bad", Data: []byte("x"), Kind: "png"},
			}},
			{Number: 2},
		},
	}
}

func TestRenderPage(t *testing.T) {
	r := NewRenderer(zaptest.NewLogger(t))
	r.DPI = 144

	images, err := r.Render(testDocument(t))
	require.NoError(t, err)
	require.Len(t, images, 2)

	b := images[0].Bounds()
	assert.Equal(t, 144, b.Dx())
	assert.Equal(t, 288, b.Dy())

	red, _, _, _ := images[0].At(10, 10).RGBA()
	_, green, _, _ := images[0].At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), red)
	assert.Zero(t, green)

	wr, wg, wb, _ := images[1].At(5, 5).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{wr, wg, wb})
}

func TestRenderDirWritesThumbnails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := NewRenderer(zaptest.NewLogger(t))
	r.Thumbnail = 20

	paths, err := r.RenderDir(testDocument(t), dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "page-001.png"), paths[0])

	for _, name := range []string{"page-002.png", "thumb-001.png", "thumb-002.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
