package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/gompdf/smartprint/internal/document"
	"github.com/gompdf/smartprint/internal/layout"
	"github.com/gompdf/smartprint/internal/pagination"
	"github.com/gompdf/smartprint/internal/render"
	"github.com/gompdf/smartprint/internal/render/pdf"
	"github.com/gompdf/smartprint/internal/render/png"
	"github.com/gompdf/smartprint/internal/res"
	"github.com/gompdf/smartprint/internal/scheduler"
	"github.com/gompdf/smartprint/internal/text"
)

// Page is the content placed on one page
type Page = pagination.Page

// PageElement is a block placed on a page
type PageElement = pagination.PageElement

// Converter paginates HTML content and renders the pages
type Converter struct {
	options Options
	base    string
	fonts   *text.FontRegistry
	log     *zap.Logger
}

// New creates a converter with default options modified by opts
func New(opts ...Option) *Converter {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return NewWithOptions(options)
}

// NewWithOptions creates a converter with the specified options
func NewWithOptions(options Options) *Converter {
	log := options.Logger
	if log == nil {
		log = zap.NewNop()
		if options.Debug {
			if l, err := zap.NewDevelopment(); err == nil {
				log = l
			}
		}
	}
	return &Converter{
		options: options,
		fonts:   text.NewFontRegistry(log, options.FontDirectories...),
		log:     log,
	}
}

// Options returns the converter options
func (c *Converter) Options() Options {
	return c.options
}

// WithOption returns a new converter with the specified option set
func (c *Converter) WithOption(option Option) *Converter {
	options := c.options
	options.ResourcePaths = append([]string(nil), options.ResourcePaths...)
	options.FontDirectories = append([]string(nil), options.FontDirectories...)
	option(&options)
	return NewWithOptions(options)
}

// WithBase returns a converter resolving relative references against base,
// a file path or URL
func (c *Converter) WithBase(base string) *Converter {
	n := *c
	n.base = base
	return &n
}

// Config returns the page geometry derived from the options
func (c *Converter) Config() scheduler.Config {
	return scheduler.Config{
		PageContentHeight: c.options.ContentHeight(),
		PageContentWidth:  c.options.ContentWidth(),
		ParagraphSpacing:  c.options.ParagraphSpacing,
	}
}

func (c *Converter) loader() *res.Loader {
	l := res.NewLoader(c.base, c.log)
	for _, p := range c.options.ResourcePaths {
		l.AddSearchPath(p)
	}
	return l
}

func (c *Converter) engine(loader *res.Loader) *layout.Engine {
	return layout.NewEngine(text.NewTextShaper(c.fonts), loader, c.log)
}

// Paginate lays the content out and distributes its blocks over pages
func (c *Converter) Paginate(ctx context.Context, markup string) ([]Page, error) {
	if err := c.options.Validate(); err != nil {
		return nil, err
	}
	return c.paginate(ctx, markup, c.Config())
}

func (c *Converter) paginate(ctx context.Context, markup string, cfg scheduler.Config) ([]Page, error) {
	loader := c.loader()
	engine := c.engine(loader)
	defer engine.Close()

	doc, err := document.Parse(ctx, markup, engine, loader, c.log)
	if err != nil {
		return nil, err
	}
	if err := doc.Layout(ctx, cfg.PageContentWidth, c.options.ImageTimeout); err != nil {
		return nil, fmt.Errorf("unable to lay out content: %w", err)
	}
	blocks, err := doc.Blocks()
	if err != nil {
		return nil, err
	}

	p := pagination.NewEngine(engine, c.log)
	if err := p.SetOptions(pagination.Options(cfg)); err != nil {
		return nil, err
	}
	return p.Paginate(blocks)
}

// Pipeline returns a scheduler pipeline paginating whatever load returns.
// A missing source is reported as ErrNotMounted.
func (c *Converter) Pipeline(load func(ctx context.Context) (string, error)) scheduler.Pipeline {
	return func(ctx context.Context, cfg scheduler.Config) ([]pagination.Page, error) {
		markup, err := load(ctx)
		if errors.Is(err, os.ErrNotExist) {
			return nil, scheduler.ErrNotMounted
		}
		if err != nil {
			return nil, err
		}
		return c.paginate(ctx, markup, cfg)
	}
}

func (c *Converter) compose(ctx context.Context, pages []Page) (*render.Document, error) {
	o := c.options
	w, h := o.PageSize()
	frame := render.Frame{
		PageWidth:  w,
		PageHeight: h,
		Margin:     layout.Edges{Top: o.MarginTop, Right: o.MarginRight, Bottom: o.MarginBottom, Left: o.MarginLeft},
		Header:     o.Header,
		Footer:     o.Footer,
		Cover:      o.Cover,
	}
	engine := c.engine(c.loader())
	defer engine.Close()

	doc, err := render.NewComposer(engine, frame, o.ImageTimeout, c.log).Compose(ctx, pages)
	if err != nil {
		return nil, err
	}
	doc.Title, doc.Author = o.Title, o.Author
	return doc, nil
}

func (c *Converter) pdfRenderer() *pdf.Renderer {
	r := pdf.NewRenderer(pdf.RenderOptions{
		Subject:  c.options.Subject,
		Keywords: c.options.Keywords,
		Creator:  "smartprint",
	}, c.log)
	r.DebugDrawBoxes = c.options.DebugDrawBoxes
	return r
}

// WritePages renders paginated pages as PDF to w
func (c *Converter) WritePages(ctx context.Context, pages []Page, w io.Writer) error {
	doc, err := c.compose(ctx, pages)
	if err != nil {
		return err
	}
	if err := c.pdfRenderer().Render(doc, w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

// WritePagesToFile renders paginated pages as PDF into the file at path
func (c *Converter) WritePagesToFile(ctx context.Context, pages []Page, path string) error {
	doc, err := c.compose(ctx, pages)
	if err != nil {
		return err
	}
	if err := c.pdfRenderer().RenderFile(doc, path); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

// Convert paginates markup and writes the PDF to w
func (c *Converter) Convert(ctx context.Context, markup string, w io.Writer) error {
	pages, err := c.Paginate(ctx, markup)
	if err != nil {
		return err
	}
	return c.WritePages(ctx, pages, w)
}

// ConvertToFile paginates markup and writes the PDF into the file at path
func (c *Converter) ConvertToFile(ctx context.Context, markup, path string) error {
	pages, err := c.Paginate(ctx, markup)
	if err != nil {
		return err
	}
	return c.WritePagesToFile(ctx, pages, path)
}

// ConvertFile converts an HTML file, resolving its resources next to it
func (c *Converter) ConvertFile(ctx context.Context, inputPath, outputPath string) error {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read HTML file: %w", err)
	}
	return c.WithBase(inputPath).ConvertToFile(ctx, string(content), outputPath)
}

// ConvertURL converts the page at url into dir. The file is named after
// the document title, or the URL when no title is set. It returns the path
// of the written file.
func (c *Converter) ConvertURL(ctx context.Context, url, dir string) (string, error) {
	conv := c.WithBase(url)
	markup, err := conv.LoadHTML(ctx, url)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, OutputName(c.options.Title, url, ".pdf"))
	return path, conv.ConvertToFile(ctx, markup, path)
}

// LoadHTML fetches markup through the resource loader
func (c *Converter) LoadHTML(ctx context.Context, url string) (string, error) {
	r, err := c.loader().LoadHTML(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to load HTML from URL: %w", err)
	}
	return r.GetString(), nil
}

// Preview paginates markup and writes one PNG per page into dir
func (c *Converter) Preview(ctx context.Context, markup, dir string, thumbnail int) ([]string, error) {
	pages, err := c.Paginate(ctx, markup)
	if err != nil {
		return nil, err
	}
	doc, err := c.compose(ctx, pages)
	if err != nil {
		return nil, err
	}
	r := png.NewRenderer(c.log)
	r.DPI = c.options.DPI
	r.Thumbnail = thumbnail
	return r.RenderDir(doc, dir)
}

// OutputName derives a file name from title, falling back to source
func OutputName(title, source, ext string) string {
	name := slug.Make(title)
	if name == "" {
		base := source
		if i := strings.Index(base, "://"); i >= 0 {
			base = base[i+3:]
		} else {
			base = strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
		}
		name = slug.Make(base)
	}
	if name == "" {
		name = "document"
	}
	return name + ext
}
