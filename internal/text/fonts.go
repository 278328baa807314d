package text

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"codeberg.org/go-pdf/fpdf"
	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/zap"
)

// Face is a resolved font face usable with fpdf
type Face struct {
	// Name is the fpdf family name.
	Name  string
	Style string
	// UTF8 faces are embedded TrueType fonts, others are PDF core fonts.
	UTF8 bool
	data []byte
}

// Key identifies the face inside an fpdf document
func (f Face) Key() string {
	return f.Name + "/" + f.Style
}

// Data returns the TrueType data of embedded faces
func (f Face) Data() []byte {
	return f.data
}

// AddTo registers the face with pdf unless it is already known there
func (f Face) AddTo(pdf *fpdf.Fpdf, added map[string]bool) {
	if !f.UTF8 || added[f.Key()] {
		return
	}
	pdf.AddUTF8FontFromBytes(f.Name, f.Style, f.data)
	added[f.Key()] = true
}

// FontRegistry collects TrueType faces from font directories and @font-face
// rules and resolves CSS font families to faces.
type FontRegistry struct {
	dirs []string
	log  *zap.Logger

	once  sync.Once
	ready chan struct{}

	mu    sync.RWMutex
	faces map[string]map[string]Face
}

// NewFontRegistry creates a registry scanning dirs on first use
func NewFontRegistry(log *zap.Logger, dirs ...string) *FontRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &FontRegistry{
		dirs:  dirs,
		log:   log.Named("fonts"),
		ready: make(chan struct{}),
		faces: make(map[string]map[string]Face),
	}
}

// Load scans the font directories once. Unreadable files are skipped.
func (r *FontRegistry) Load() {
	r.once.Do(func() {
		defer close(r.ready)
		for _, dir := range r.dirs {
			r.scan(dir)
		}
	})
}

// Ready waits until the font directories have been scanned
func (r *FontRegistry) Ready(ctx context.Context) error {
	go r.Load()
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *FontRegistry) scan(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.log.Warn("Unable to read font directory", zap.String("dir", dir), zap.Error(err))
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".ttf") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(natural.StringSlice(names))

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			r.log.Warn("Unable to read font", zap.String("file", path), zap.Error(err))
			continue
		}
		family, style := faceFromFileName(name)
		if err := r.Register(family, style, data); err != nil {
			r.log.Warn("Skipping font", zap.String("file", path), zap.Error(err))
		}
	}
}

// Register adds a TrueType face for family with fpdf style ("", "B", "I", "BI")
func (r *FontRegistry) Register(family, style string, data []byte) error {
	if !filetype.Is(data, "ttf") {
		return fmt.Errorf("font %q is not a TrueType font", family)
	}
	key := normalizeFamily(family)
	if key == "" {
		return fmt.Errorf("empty font family name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	styles, ok := r.faces[key]
	if !ok {
		styles = make(map[string]Face)
		r.faces[key] = styles
	}
	if _, exists := styles[style]; exists {
		return nil
	}
	styles[style] = Face{Name: key, Style: style, UTF8: true, data: data}
	r.log.Debug("Registered font", zap.String("family", family), zap.String("style", style))
	return nil
}

// Families returns the registered family keys in natural order
func (r *FontRegistry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.faces))
	for k := range r.faces {
		out = append(out, k)
	}
	sort.Sort(natural.StringSlice(out))
	return out
}

// Resolve picks the first registered family from a CSS font-family list and
// falls back to the PDF core fonts.
func (r *FontRegistry) Resolve(families string, bold, italic bool) Face {
	style := StyleString(bold, italic)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, candidate := range strings.Split(families, ",") {
		name := strings.TrimSpace(strings.Trim(strings.TrimSpace(candidate), `'"`))
		if styles, ok := r.faces[normalizeFamily(name)]; ok {
			if f, ok := styles[style]; ok {
				return f
			}
			if f, ok := styles[""]; ok {
				return f
			}
		}
		if core := coreFamily(name); core != "" {
			return Face{Name: core, Style: style}
		}
	}
	return Face{Name: "Times", Style: style}
}

// StyleString builds the fpdf style string
func StyleString(bold, italic bool) string {
	s := ""
	if bold {
		s += "B"
	}
	if italic {
		s += "I"
	}
	return s
}

// coreFamily maps CSS family names to core PDF font families
func coreFamily(name string) string {
	switch strings.ToLower(name) {
	case "arial", "helvetica", "sans-serif", "verdana", "system-ui":
		return "Helvetica"
	case "times", "times new roman", "serif", "georgia":
		return "Times"
	case "courier", "courier new", "monospace":
		return "Courier"
	}
	return ""
}

func normalizeFamily(name string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(name))
}

// faceFromFileName derives family and style from names like
// "DejaVuSans-BoldOblique.ttf"
func faceFromFileName(name string) (string, string) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	family, variant, _ := strings.Cut(base, "-")
	v := strings.ToLower(variant)
	bold := strings.Contains(v, "bold")
	italic := strings.Contains(v, "italic") || strings.Contains(v, "oblique")
	return family, StyleString(bold, italic)
}
