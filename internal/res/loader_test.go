package res

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestLoadDataURL(t *testing.T) {
	l := NewLoader("", zaptest.NewLogger(t))

	r, err := l.Load(context.Background(), "data:text/plain,Hello%20World")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", r.GetString())
	assert.Equal(t, ResourceTypeOther, r.Type)

	r, err = l.LoadCSS(context.Background(), "data:text/css,p%7Bcolor:red%7D")
	require.NoError(t, err)
	assert.Equal(t, "p{color:red}", r.GetString())
}

func TestLoadLocalSniffsContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "picture.bin"), pngBytes(t), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.svg"), []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"></svg>`), 0o644))

	l := NewLoader(filepath.Join(dir, "index.html"), zaptest.NewLogger(t))

	r, err := l.LoadImage(context.Background(), "picture.bin")
	require.NoError(t, err)
	assert.Equal(t, "png", r.Kind)
	assert.Equal(t, "image/png", r.MimeType)

	r, err = l.LoadImage(context.Background(), "logo.svg")
	require.NoError(t, err)
	assert.Equal(t, "svg", r.Kind)

	_, err = l.Load(context.Background(), "absent.png")
	assert.Error(t, err)
}

func TestLoadSearchPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("p {}"), 0o644))

	l := NewLoader("", zaptest.NewLogger(t))
	l.AddSearchPath(dir)

	r, err := l.LoadCSS(context.Background(), "missing/style.css")
	require.NoError(t, err)
	assert.Equal(t, "p {}", r.GetString())
}

func TestLoadRemote(t *testing.T) {
	data := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	l := NewLoader(srv.URL+"/page.html", zaptest.NewLogger(t))

	r, err := l.LoadImage(context.Background(), "img")
	require.NoError(t, err)
	assert.Equal(t, "png", r.Kind)
	assert.Equal(t, data, r.Data)

	_, err = l.Load(context.Background(), "nothing")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Load(ctx, srv.URL+"/other")
	assert.Error(t, err)
}
