package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gompdf/smartprint/internal/scheduler"
)

func blocks(n int, height string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < n; i++ {
		sb.WriteString(`<div style="margin: 0; height: ` + height + `"></div>`)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func TestPresets(t *testing.T) {
	o := DefaultOptions()
	WithPaper("Letter")(&o)
	WithMarginPreset("narrow")(&o)
	WithPageOrientation(PageOrientationLandscape)(&o)

	w, h := o.PageSize()
	assert.Equal(t, 792.0, w)
	assert.Equal(t, 612.0, h)
	assert.InDelta(t, 792-2*35.43, o.ContentWidth(), 1e-9)
	assert.InDelta(t, 612-2*35.43, o.ContentHeight(), 1e-9)

	WithPaper("tabloid")(&o)
	assert.Equal(t, 612.0, o.PageWidth)
	assert.Equal(t, DefaultParagraphSpacing, o.ParagraphSpacing)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	o := DefaultOptions()
	WithMargins(500, 0, 500, 0)(&o)
	assert.Error(t, o.Validate())

	o = DefaultOptions()
	WithParagraphSpacing(-1)(&o)
	assert.Error(t, o.Validate())
}

func TestPaginate(t *testing.T) {
	c := New(WithLogger(zaptest.NewLogger(t)), WithMargins(0, 0, 0, 0), WithPageSize(400, 400))

	pages, err := c.Paginate(context.Background(), blocks(5, "200px"))
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 2)
	assert.Len(t, pages[1], 2)
	assert.Len(t, pages[2], 1)
	assert.Equal(t, 4, pages[2][0].ID)
	assert.Contains(t, pages[0][0].Content, "height: 200px")
}

func TestConvert(t *testing.T) {
	c := New(WithLogger(zaptest.NewLogger(t)), WithTitle("Report"), WithFooter(`<p style="margin: 0">{page}/{total}</p>`))

	var out bytes.Buffer
	require.NoError(t, c.Convert(context.Background(), `<h1>Hello</h1><p class="rsp-paragraph">World</p>`, &out))
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-")))
}

func TestConvertFileAndPreview(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.html")
	require.NoError(t, os.WriteFile(input, []byte(blocks(2, "100px")), 0o644))

	c := New(WithLogger(zaptest.NewLogger(t)))
	output := filepath.Join(dir, "out", "in.pdf")
	require.NoError(t, c.ConvertFile(context.Background(), input, output))
	_, err := os.Stat(output)
	require.NoError(t, err)

	paths, err := c.Preview(context.Background(), blocks(2, "100px"), filepath.Join(dir, "preview"), 0)
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestConvertURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(blocks(3, "50px")))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := New(WithLogger(zaptest.NewLogger(t)), WithTitle("Quarterly Numbers"))
	path, err := c.ConvertURL(context.Background(), srv.URL+"/report.html", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "quarterly-numbers.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestPipeline(t *testing.T) {
	c := New(WithLogger(zaptest.NewLogger(t)))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	missing := c.Pipeline(func(context.Context) (string, error) {
		_, err := os.ReadFile(filepath.Join(t.TempDir(), "missing.html"))
		return "", err
	})
	_, err := missing(ctx, c.Config())
	assert.ErrorIs(t, err, scheduler.ErrNotMounted)

	ok := c.Pipeline(func(context.Context) (string, error) { return blocks(1, "10px"), nil })
	pages, err := ok(ctx, c.Config())
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "quarterly-report.pdf", OutputName("Quarterly Report", "x", ".pdf"))
	assert.Equal(t, "example-com-docs-page.pdf", OutputName("", "https://example.com/docs/page", ".pdf"))
	assert.Equal(t, "notes.png", OutputName("", "/tmp/notes.html", ".png"))
	assert.Equal(t, "document.pdf", OutputName("", "", ".pdf"))
}
