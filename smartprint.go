package smartprint

import (
	"github.com/gompdf/smartprint/pkg/api"
)

type Converter = api.Converter
type Options = api.Options
type Option = api.Option
type PageOrientation = api.PageOrientation
type Page = api.Page
type PageElement = api.PageElement

func New(opts ...Option) *Converter             { return api.New(opts...) }
func NewWithOptions(options Options) *Converter { return api.NewWithOptions(options) }
func DefaultOptions() Options                   { return api.DefaultOptions() }

var (
	WithPageSize         = api.WithPageSize
	WithPaper            = api.WithPaper
	WithMargins          = api.WithMargins
	WithMarginPreset     = api.WithMarginPreset
	WithParagraphSpacing = api.WithParagraphSpacing
	WithImageTimeout     = api.WithImageTimeout
	WithDebounce         = api.WithDebounce
	WithDPI              = api.WithDPI
	WithDebug            = api.WithDebug
	WithLogger           = api.WithLogger
	WithResourcePath     = api.WithResourcePath
	WithFontDirectory    = api.WithFontDirectory
	WithHeader           = api.WithHeader
	WithFooter           = api.WithFooter
	WithCover            = api.WithCover
	WithTitle            = api.WithTitle
	WithAuthor           = api.WithAuthor
	WithSubject          = api.WithSubject
	WithKeywords         = api.WithKeywords
	WithPageSizeA4       = api.WithPageSizeA4
	WithPageSizeLetter   = api.WithPageSizeLetter
	WithPageSizeLegal    = api.WithPageSizeLegal
	WithPageOrientation  = api.WithPageOrientation
	OutputName           = api.OutputName
)

const (
	PageSizeA4Width      = api.PageSizeA4Width
	PageSizeA4Height     = api.PageSizeA4Height
	PageSizeLetterWidth  = api.PageSizeLetterWidth
	PageSizeLetterHeight = api.PageSizeLetterHeight
	PageSizeLegalWidth   = api.PageSizeLegalWidth
	PageSizeLegalHeight  = api.PageSizeLegalHeight

	PageOrientationPortrait  = api.PageOrientationPortrait
	PageOrientationLandscape = api.PageOrientationLandscape

	DefaultParagraphSpacing = api.DefaultParagraphSpacing
)
