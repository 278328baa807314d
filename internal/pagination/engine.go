package pagination

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrInvalidOptions is returned when the page geometry cannot be used
var ErrInvalidOptions = errors.New("invalid pagination options")

// Options represents options for the pagination engine
type Options struct {
	PageContentHeight float64
	PageContentWidth  float64
	ParagraphSpacing  float64
}

// Engine handles the pagination process
type Engine struct {
	options  Options
	measurer Measurer
	log      *zap.Logger
}

// NewEngine creates a new pagination engine measuring blocks with m
func NewEngine(m Measurer, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		measurer: m,
		log:      log.Named("pagination"),
	}
}

// SetOptions validates and sets the options for the pagination engine
func (e *Engine) SetOptions(options Options) error {
	switch {
	case options.PageContentHeight <= 0:
		return fmt.Errorf("%w: page content height %.2f", ErrInvalidOptions, options.PageContentHeight)
	case options.PageContentWidth <= 0:
		return fmt.Errorf("%w: page content width %.2f", ErrInvalidOptions, options.PageContentWidth)
	case options.ParagraphSpacing < 0:
		return fmt.Errorf("%w: paragraph spacing %.2f", ErrInvalidOptions, options.ParagraphSpacing)
	}
	e.options = options
	return nil
}

// Options returns the current engine options
func (e *Engine) Options() Options {
	return e.options
}

// Paginate breaks blocks into pages
func (e *Engine) Paginate(blocks []*Block) ([]Page, error) {
	if e.options.PageContentHeight <= 0 {
		return nil, fmt.Errorf("%w: options are not set", ErrInvalidOptions)
	}

	pages := Paginate(e.measurer, blocks, e.options.PageContentHeight, e.options.ParagraphSpacing)

	e.log.Debug("Paginated content",
		zap.Int("blocks", len(blocks)),
		zap.Int("pages", len(pages)),
		zap.Float64("height", e.options.PageContentHeight),
		zap.Float64("spacing", e.options.ParagraphSpacing))
	return pages, nil
}
