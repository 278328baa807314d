package pagination

// Kind tells the partitioner how to treat a block
type Kind int

const (
	// KindNormal is an ordinary measurable block
	KindNormal Kind = iota
	// KindBreak forces a page break and is never placed on a page
	KindBreak
	// KindBlankPage occupies a page of its own
	KindBlankPage
	// KindList is expanded into its items
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindBreak:
		return "break"
	case KindBlankPage:
		return "blank-page"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Block represents one top-level unit of content (or one list item)
type Block struct {
	ID           int
	Kind         Kind
	Class        string
	Ignore       bool
	SpacingOwner bool
	Content      string
	Items        []*Block
	// Ref is an opaque handle the Measurer uses to find the rendered box.
	Ref any
}

// Metrics represents the measured box of a block
type Metrics struct {
	Height        float64
	PaddingBottom float64
	MarginTop     float64
	MarginBottom  float64
}

// Measurer reports the rendered metrics of a block. The second result is
// false when the block has no rendered box.
type Measurer interface {
	Measure(b *Block) (Metrics, bool)
}

// MeasurerFunc adapts a function to the Measurer interface
type MeasurerFunc func(b *Block) (Metrics, bool)

// Measure calls f(b)
func (f MeasurerFunc) Measure(b *Block) (Metrics, bool) {
	return f(b)
}

// Rect is a client rectangle of a rendered text range
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// TextRun is a single rendered run of text. Offsets are rune offsets into
// Text and describe the half-open range [start, end).
type TextRun interface {
	Text() string
	ClientRects(start, end int) []Rect
}

// TextContainer exposes its rendered text runs in document order
type TextContainer interface {
	TextRuns() []TextRun
}

// LineFragment is a piece of text that renders on one visual line
type LineFragment struct {
	Text string  `json:"text" yaml:"text"`
	Top  float64 `json:"top" yaml:"top"`
}

// PageElement is a block placed on a page
type PageElement struct {
	ID            int     `json:"id" yaml:"id"`
	Content       string  `json:"content" yaml:"content"`
	PaddingBottom float64 `json:"padding_bottom,omitempty" yaml:"padding_bottom,omitempty"`
}

// Page represents a single page of placed elements
type Page []PageElement

// PagesEqual reports whether two pagination results are identical
func PagesEqual(a, b []Page) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}
