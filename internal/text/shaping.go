package text

import (
	"sync"
	"unicode"

	"codeberg.org/go-pdf/fpdf"
)

// Font represents a font used for text measurement
type Font struct {
	Family string
	Bold   bool
	Italic bool
	Size   float64
}

// TextShaper measures text with fpdf font metrics. A single measurement
// document is shared; calls are serialized.
type TextShaper struct {
	fonts *FontRegistry

	mu    sync.Mutex
	pdf   *fpdf.Fpdf
	added map[string]bool
}

// NewTextShaper creates a new text shaper resolving faces through fonts
func NewTextShaper(fonts *FontRegistry) *TextShaper {
	if fonts == nil {
		fonts = NewFontRegistry(nil)
	}
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	return &TextShaper{
		fonts: fonts,
		pdf:   pdf,
		added: make(map[string]bool),
	}
}

// Fonts returns the registry used to resolve faces
func (s *TextShaper) Fonts() *FontRegistry {
	return s.fonts
}

// Face resolves the face for font
func (s *TextShaper) Face(font Font) Face {
	return s.fonts.Resolve(font.Family, font.Bold, font.Italic)
}

func (s *TextShaper) use(font Font) Face {
	face := s.Face(font)
	face.AddTo(s.pdf, s.added)
	s.pdf.SetFont(face.Name, face.Style, font.Size)
	return face
}

// MeasureText returns the advance width of text
func (s *TextShaper) MeasureText(text string, font Font) float64 {
	if text == "" || font.Size <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	face := s.use(font)
	return s.pdf.GetStringWidth(Encode(face, text))
}

// Advances returns the advance width of every rune
func (s *TextShaper) Advances(runes []rune, font Font) []float64 {
	out := make([]float64, len(runes))
	if font.Size <= 0 {
		return out
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	face := s.use(font)
	for i, r := range runes {
		out[i] = s.pdf.GetStringWidth(Encode(face, string(r)))
	}
	return out
}

// Metrics returns ascent and descent of font in points, descent positive
func (s *TextShaper) Metrics(font Font) (ascent, descent float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	face := s.use(font)
	desc := s.pdf.GetFontDesc(face.Name, face.Style)
	if desc.Ascent > 0 {
		ascent = font.Size * float64(desc.Ascent) / 1000
		descent = font.Size * float64(-desc.Descent) / 1000
		return ascent, max(descent, 0)
	}
	return font.Size * 0.8, font.Size * 0.2
}

// Token is a word or a whitespace run produced by Tokenize
type Token struct {
	Text  string
	Space bool
}

// Tokenize splits text into alternating word and whitespace tokens
func Tokenize(text string) []Token {
	var tokens []Token
	start := 0
	runes := []rune(text)
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || unicode.IsSpace(runes[i]) != unicode.IsSpace(runes[start]) {
			tokens = append(tokens, Token{Text: string(runes[start:i]), Space: unicode.IsSpace(runes[start])})
			start = i
		}
	}
	return tokens
}
