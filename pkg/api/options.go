package api

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gompdf/smartprint/internal/readiness"
	"github.com/gompdf/smartprint/internal/scheduler"
)

// Options represents configuration options for the paginator
type Options struct {
	// Page dimensions in points
	PageWidth  float64
	PageHeight float64
	// Page orientation: portrait or landscape
	PageOrientation PageOrientation

	// Page margins in points
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64

	// ParagraphSpacing is the bottom padding, in points, of the last
	// spacing owner on a page
	ParagraphSpacing float64
	// ImageTimeout bounds the wait for every single image
	ImageTimeout time.Duration
	// Debounce is the quiescence window between content changes and
	// re-pagination in watch mode
	Debounce time.Duration

	// PNG preview resolution
	DPI float64
	// Debug selects debug logging when no logger is supplied
	Debug bool
	// DebugDrawBoxes outlines text and images in the PDF output
	DebugDrawBoxes bool

	// Resource paths
	ResourcePaths   []string
	FontDirectories []string

	// Page frame templates. {page} and {total} are replaced in Header and
	// Footer, Cover is drawn on an unnumbered first page.
	Header string
	Footer string
	Cover  string

	// Document metadata
	Title    string
	Author   string
	Subject  string
	Keywords string

	Logger *zap.Logger
}

// Option is a function that modifies Options
type Option func(*Options)

// PageOrientation represents page orientation
type PageOrientation string

const (
	// PageOrientationPortrait sets the page to portrait orientation
	PageOrientationPortrait PageOrientation = "portrait"
	// PageOrientationLandscape sets the page to landscape orientation
	PageOrientationLandscape PageOrientation = "landscape"
)

// PaperSize is a named page size in points
type PaperSize struct {
	Width  float64
	Height float64
}

// Margins are page margins in points
type Margins struct {
	Top, Right, Bottom, Left float64
}

// Standard page sizes in points (1/72 inch)
const (
	PageSizeA4Width  = 595.28
	PageSizeA4Height = 841.89

	PageSizeLetterWidth  = 612
	PageSizeLetterHeight = 792
	PageSizeLegalWidth   = 612
	PageSizeLegalHeight  = 1008
)

// DefaultParagraphSpacing is the trailing spacing of a page in points
const DefaultParagraphSpacing = 12.0

// Papers maps preset names to page sizes
var Papers = map[string]PaperSize{
	"a4":     {PageSizeA4Width, PageSizeA4Height},
	"letter": {PageSizeLetterWidth, PageSizeLetterHeight},
	"legal":  {PageSizeLegalWidth, PageSizeLegalHeight},
}

// MarginPresets maps preset names to margins: normal is 2.5cm top and
// bottom with 3cm sides, narrow is 1.25cm, wide has 5cm sides
var MarginPresets = map[string]Margins{
	"normal": {Top: 70.87, Right: 85.04, Bottom: 70.87, Left: 85.04},
	"narrow": {Top: 35.43, Right: 35.43, Bottom: 35.43, Left: 35.43},
	"wide":   {Top: 70.87, Right: 141.73, Bottom: 70.87, Left: 141.73},
}

// DefaultOptions returns the default options: A4 portrait with normal margins
func DefaultOptions() Options {
	m := MarginPresets["normal"]
	return Options{
		PageWidth:       PageSizeA4Width,
		PageHeight:      PageSizeA4Height,
		PageOrientation: PageOrientationPortrait,

		MarginTop:    m.Top,
		MarginRight:  m.Right,
		MarginBottom: m.Bottom,
		MarginLeft:   m.Left,

		ParagraphSpacing: DefaultParagraphSpacing,
		ImageTimeout:     readiness.DefaultImageTimeout,
		Debounce:         scheduler.DefaultDebounce,

		DPI: 96,
	}
}

// Validate reports options that cannot produce a page
func (o Options) Validate() error {
	w, h := o.PageSize()
	switch {
	case w <= 0 || h <= 0:
		return fmt.Errorf("invalid page size %.2fx%.2f", w, h)
	case o.ContentWidth() <= 0:
		return fmt.Errorf("margins leave no horizontal space on a %.2fpt wide page", w)
	case o.ContentHeight() <= 0:
		return fmt.Errorf("margins leave no vertical space on a %.2fpt high page", h)
	case o.ParagraphSpacing < 0:
		return fmt.Errorf("negative paragraph spacing %.2f", o.ParagraphSpacing)
	}
	return nil
}

// PageSize returns the page size with the orientation applied
func (o Options) PageSize() (width, height float64) {
	width, height = o.PageWidth, o.PageHeight
	switch o.PageOrientation {
	case PageOrientationLandscape:
		if width < height {
			width, height = height, width
		}
	case PageOrientationPortrait, "":
		if width > height {
			width, height = height, width
		}
	}
	return width, height
}

// ContentWidth is the page width inside the margins
func (o Options) ContentWidth() float64 {
	w, _ := o.PageSize()
	return w - o.MarginLeft - o.MarginRight
}

// ContentHeight is the page height inside the margins
func (o Options) ContentHeight() float64 {
	_, h := o.PageSize()
	return h - o.MarginTop - o.MarginBottom
}

// WithPageSize sets the page size
func WithPageSize(width, height float64) Option {
	return func(o *Options) {
		o.PageWidth = width
		o.PageHeight = height
	}
}

// WithPaper sets a preset page size; unknown names are ignored
func WithPaper(name string) Option {
	return func(o *Options) {
		if p, ok := Papers[strings.ToLower(name)]; ok {
			o.PageWidth = p.Width
			o.PageHeight = p.Height
		}
	}
}

// WithPageSizeA4 sets the page size to A4
func WithPageSizeA4() Option {
	return WithPageSize(PageSizeA4Width, PageSizeA4Height)
}

// WithPageSizeLetter sets the page size to US Letter
func WithPageSizeLetter() Option {
	return WithPageSize(PageSizeLetterWidth, PageSizeLetterHeight)
}

// WithPageSizeLegal sets the page size to US Legal
func WithPageSizeLegal() Option {
	return WithPageSize(PageSizeLegalWidth, PageSizeLegalHeight)
}

// WithPageOrientation sets the page orientation
func WithPageOrientation(orientation PageOrientation) Option {
	return func(o *Options) {
		o.PageOrientation = orientation
	}
}

// WithMargins sets the page margins
func WithMargins(top, right, bottom, left float64) Option {
	return func(o *Options) {
		o.MarginTop = top
		o.MarginRight = right
		o.MarginBottom = bottom
		o.MarginLeft = left
	}
}

// WithMarginPreset sets preset margins; unknown names are ignored
func WithMarginPreset(name string) Option {
	return func(o *Options) {
		if m, ok := MarginPresets[strings.ToLower(name)]; ok {
			WithMargins(m.Top, m.Right, m.Bottom, m.Left)(o)
		}
	}
}

// WithParagraphSpacing sets the trailing spacing of a page
func WithParagraphSpacing(spacing float64) Option {
	return func(o *Options) {
		o.ParagraphSpacing = spacing
	}
}

// WithImageTimeout sets the per image wait limit
func WithImageTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ImageTimeout = d
	}
}

// WithDebounce sets the watch mode quiescence window
func WithDebounce(d time.Duration) Option {
	return func(o *Options) {
		o.Debounce = d
	}
}

// WithDPI sets the PNG preview resolution
func WithDPI(dpi float64) Option {
	return func(o *Options) {
		o.DPI = dpi
	}
}

// WithDebug sets the debug mode
func WithDebug(debug bool) Option {
	return func(o *Options) {
		o.Debug = debug
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = log
	}
}

// WithResourcePath adds a path to search for resources
func WithResourcePath(path string) Option {
	return func(o *Options) {
		o.ResourcePaths = append(o.ResourcePaths, path)
	}
}

// WithFontDirectory adds a directory to search for fonts
func WithFontDirectory(dir string) Option {
	return func(o *Options) {
		o.FontDirectories = append(o.FontDirectories, dir)
	}
}

// WithHeader sets the header template
func WithHeader(template string) Option {
	return func(o *Options) {
		o.Header = template
	}
}

// WithFooter sets the footer template
func WithFooter(template string) Option {
	return func(o *Options) {
		o.Footer = template
	}
}

// WithCover sets the cover page markup
func WithCover(markup string) Option {
	return func(o *Options) {
		o.Cover = markup
	}
}

// WithTitle sets the document title
func WithTitle(title string) Option {
	return func(o *Options) {
		o.Title = title
	}
}

// WithAuthor sets the document author
func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithSubject sets the document subject
func WithSubject(subject string) Option {
	return func(o *Options) {
		o.Subject = subject
	}
}

// WithKeywords sets the document keywords
func WithKeywords(keywords string) Option {
	return func(o *Options) {
		o.Keywords = keywords
	}
}
