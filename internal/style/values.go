package style

import (
	"image/color"
	"math"
	"strconv"
	"strings"
)

// DefaultFontSize is the initial font size in points (16px)
const DefaultFontSize = 12.0

// pxToPt converts CSS pixels (1/96 in) to points (1/72 in)
const pxToPt = 0.75

// ParseLength converts a CSS length to points. Percentages resolve against
// base and em units against fontSize. Unitless numbers are pixels.
func ParseLength(value string, fontSize, base float64) (float64, bool) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" || value == "auto" || value == "none" || value == "normal" || value == "inherit" {
		return 0, false
	}
	if value == "0" {
		return 0, true
	}

	num, unit := splitNumber(value)
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}

	switch unit {
	case "", "px":
		return f * pxToPt, true
	case "pt":
		return f, true
	case "pc":
		return f * 12, true
	case "in":
		return f * 72, true
	case "cm":
		return f * 72 / 2.54, true
	case "mm":
		return f * 72 / 25.4, true
	case "em":
		return f * fontSize, true
	case "rem":
		return f * DefaultFontSize, true
	case "ex":
		return f * fontSize / 2, true
	case "%":
		return f * base / 100, true
	}
	return 0, false
}

func splitNumber(value string) (string, string) {
	i := 0
	for i < len(value) {
		c := value[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' {
			i++
			continue
		}
		break
	}
	return value[:i], value[i:]
}

// resolveFontSize resolves a font-size value against the parent size
func resolveFontSize(value string, parent float64) float64 {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "xx-small":
		return 7
	case "x-small":
		return 7.5
	case "small":
		return 10
	case "medium":
		return DefaultFontSize
	case "large":
		return 13.5
	case "x-large":
		return 18
	case "xx-large":
		return 24
	case "smaller":
		return parent / 1.2
	case "larger":
		return parent * 1.2
	}
	if v, ok := ParseLength(value, parent, parent); ok && v > 0 {
		return v
	}
	return parent
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64) + "pt"
}

// FontSize returns the resolved font size in points
func (s ComputedStyle) FontSize() float64 {
	if v, ok := ParseLength(s.Get("font-size"), DefaultFontSize, DefaultFontSize); ok && v > 0 {
		return v
	}
	return DefaultFontSize
}

// Length resolves a length property to points
func (s ComputedStyle) Length(name string, base float64) (float64, bool) {
	return ParseLength(s.Get(name), s.FontSize(), base)
}

// LengthOr resolves a length property or returns def
func (s ComputedStyle) LengthOr(name string, base, def float64) float64 {
	if v, ok := s.Length(name, base); ok {
		return v
	}
	return def
}

// LineHeight returns the line box height in points for the element font
func (s ComputedStyle) LineHeight() float64 {
	size := s.FontSize()
	value := strings.TrimSpace(s.Get("line-height"))
	if value == "" || value == "normal" {
		return size * 1.2
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return size * f
	}
	if v, ok := ParseLength(value, size, size); ok && v > 0 {
		return v
	}
	return size * 1.2
}

// Bold reports a bold font weight
func (s ComputedStyle) Bold() bool {
	switch w := strings.ToLower(s.Get("font-weight")); w {
	case "bold", "bolder":
		return true
	default:
		n, err := strconv.Atoi(w)
		return err == nil && n >= 600
	}
}

// Italic reports an italic or oblique font style
func (s ComputedStyle) Italic() bool {
	st := strings.ToLower(s.Get("font-style"))
	return st == "italic" || st == "oblique"
}

// Display returns the display value, falling back to the tag default
func (s ComputedStyle) Display(tag string) string {
	if d := strings.ToLower(s.Get("display")); d != "" {
		return d
	}
	return DefaultDisplay(tag)
}

// DefaultDisplay returns the display of an unstyled element
func DefaultDisplay(tag string) string {
	switch strings.ToLower(tag) {
	case "head", "script", "style", "title", "meta", "link", "template", "noscript":
		return "none"
	case "html", "body", "div", "p", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol",
		"blockquote", "pre", "section", "article", "header", "footer", "nav", "main",
		"aside", "figure", "figcaption", "address", "hr", "form", "fieldset", "dl", "dt", "dd":
		return "block"
	case "li":
		return "list-item"
	case "table":
		return "table"
	case "tr":
		return "table-row"
	case "td", "th":
		return "table-cell"
	case "thead", "tbody", "tfoot":
		return "table-row-group"
	default:
		return "inline"
	}
}

// Color resolves a color property
func (s ComputedStyle) Color(name string) (color.RGBA, bool) {
	return ParseColor(s.Get(name))
}

var namedColors = map[string]color.RGBA{
	"black":   {0, 0, 0, 255},
	"white":   {255, 255, 255, 255},
	"red":     {255, 0, 0, 255},
	"green":   {0, 128, 0, 255},
	"blue":    {0, 0, 255, 255},
	"gray":    {128, 128, 128, 255},
	"grey":    {128, 128, 128, 255},
	"silver":  {192, 192, 192, 255},
	"maroon":  {128, 0, 0, 255},
	"navy":    {0, 0, 128, 255},
	"teal":    {0, 128, 128, 255},
	"orange":  {255, 165, 0, 255},
	"purple":  {128, 0, 128, 255},
	"yellow":  {255, 255, 0, 255},
	"lime":    {0, 255, 0, 255},
	"aqua":    {0, 255, 255, 255},
	"fuchsia": {255, 0, 255, 255},
	"olive":   {128, 128, 0, 255},
}

// ParseColor parses hex, rgb()/rgba() and basic named colors
func ParseColor(value string) (color.RGBA, bool) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" || value == "transparent" || value == "none" {
		return color.RGBA{}, false
	}
	if c, ok := namedColors[value]; ok {
		return c, true
	}

	if strings.HasPrefix(value, "#") {
		hex := value[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return color.RGBA{}, false
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, false
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
	}

	if strings.HasPrefix(value, "rgb") {
		open, end := strings.Index(value, "("), strings.LastIndex(value, ")")
		if open < 0 || end < open {
			return color.RGBA{}, false
		}
		parts := strings.FieldsFunc(value[open+1:end], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
		if len(parts) < 3 {
			return color.RGBA{}, false
		}
		var rgb [3]uint8
		for i := range 3 {
			p := parts[i]
			var f float64
			var err error
			if strings.HasSuffix(p, "%") {
				f, err = strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
				f = f * 255 / 100
			} else {
				f, err = strconv.ParseFloat(p, 64)
			}
			if err != nil {
				return color.RGBA{}, false
			}
			rgb[i] = uint8(math.Max(0, math.Min(255, math.Round(f))))
		}
		alpha := uint8(255)
		if len(parts) > 3 {
			if a, err := strconv.ParseFloat(parts[3], 64); err == nil {
				if a <= 0 {
					return color.RGBA{}, false
				}
				alpha = uint8(math.Min(255, math.Round(a*255)))
			}
		}
		return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: alpha}, true
	}

	return color.RGBA{}, false
}

type longhand struct {
	name  string
	value string
}

var sides = [4]string{"top", "right", "bottom", "left"}

// expandShorthand maps box and border shorthands to their longhands
func expandShorthand(property, value string) []longhand {
	switch property {
	case "margin", "padding":
		vals := boxValues(value)
		out := make([]longhand, 0, 4)
		for i, side := range sides {
			out = append(out, longhand{property + "-" + side, vals[i]})
		}
		return out
	case "border-width", "border-color", "border-style":
		vals := boxValues(value)
		kind := strings.TrimPrefix(property, "border-")
		out := make([]longhand, 0, 4)
		for i, side := range sides {
			out = append(out, longhand{"border-" + side + "-" + kind, vals[i]})
		}
		return out
	case "border", "border-top", "border-right", "border-bottom", "border-left":
		width, styleName, col := borderParts(value)
		targets := sides[:]
		if property != "border" {
			targets = []string{strings.TrimPrefix(property, "border-")}
		}
		var out []longhand
		for _, side := range targets {
			out = append(out,
				longhand{"border-" + side + "-width", width},
				longhand{"border-" + side + "-style", styleName},
				longhand{"border-" + side + "-color", col})
		}
		return out
	case "background":
		for _, part := range strings.Fields(value) {
			if _, ok := ParseColor(part); ok {
				return []longhand{{"background-color", part}}
			}
		}
		if _, ok := ParseColor(value); ok {
			return []longhand{{"background-color", value}}
		}
		return nil
	}
	return []longhand{{property, value}}
}

// boxValues expands one to four values into top, right, bottom, left
func boxValues(value string) [4]string {
	f := strings.Fields(value)
	switch len(f) {
	case 1:
		return [4]string{f[0], f[0], f[0], f[0]}
	case 2:
		return [4]string{f[0], f[1], f[0], f[1]}
	case 3:
		return [4]string{f[0], f[1], f[2], f[1]}
	case 4:
		return [4]string{f[0], f[1], f[2], f[3]}
	}
	return [4]string{"0", "0", "0", "0"}
}

func borderParts(value string) (width, styleName, col string) {
	width, styleName, col = "medium", "none", "currentcolor"
	for _, part := range strings.Fields(value) {
		switch p := strings.ToLower(part); {
		case p == "none" || p == "solid" || p == "dashed" || p == "dotted" || p == "double" || p == "hidden":
			styleName = p
		case p == "thin" || p == "medium" || p == "thick":
			width = p
		default:
			if _, ok := ParseColor(p); ok {
				col = p
			} else if _, ok := ParseLength(p, DefaultFontSize, 0); ok {
				width = p
			}
		}
	}
	return width, styleName, col
}

// BorderWidth returns the used width of a border side in points
func (s ComputedStyle) BorderWidth(side string) float64 {
	st := s.Get("border-" + side + "-style")
	if st == "" || st == "none" || st == "hidden" {
		return 0
	}
	switch w := s.Get("border-" + side + "-width"); w {
	case "thin":
		return 0.75
	case "", "medium":
		return 2.25
	case "thick":
		return 3.75
	default:
		v, _ := ParseLength(w, s.FontSize(), 0)
		return v
	}
}

// BorderColor returns the color of a border side, defaulting to the text color
func (s ComputedStyle) BorderColor(side string) color.RGBA {
	if c, ok := ParseColor(s.Get("border-" + side + "-color")); ok {
		return c
	}
	if c, ok := s.Color("color"); ok {
		return c
	}
	return color.RGBA{A: 255}
}

// DefaultUserAgentStylesheet is applied before author styles
const DefaultUserAgentStylesheet = `
html, body {
  margin: 0;
  padding: 0;
  font-family: 'Times New Roman', Times, serif;
  font-size: 16px;
  line-height: normal;
  color: #000000;
}
h1 { font-size: 2em; margin: 0.67em 0; font-weight: bold; }
h2 { font-size: 1.5em; margin: 0.75em 0; font-weight: bold; }
h3 { font-size: 1.17em; margin: 0.83em 0; font-weight: bold; }
h4 { font-size: 1em; margin: 1.12em 0; font-weight: bold; }
h5 { font-size: 0.83em; margin: 1.5em 0; font-weight: bold; }
h6 { font-size: 0.75em; margin: 1.67em 0; font-weight: bold; }
p { margin: 1em 0; }
b, strong, th { font-weight: bold; }
i, em { font-style: italic; }
u { text-decoration: underline; }
a { color: #0000EE; text-decoration: underline; }
table { border-collapse: collapse; border-spacing: 0; }
th, td { padding: 0.2em 0.5em; }
ul, ol { margin: 1em 0; padding-left: 40px; }
ul { list-style-type: disc; }
ol { list-style-type: decimal; }
blockquote { margin: 1em 40px; }
pre { font-family: monospace; white-space: pre; margin: 1em 0; }
code { font-family: monospace; }
hr { border-top: 1px solid #000000; margin: 0.5em 0; }
#rsp-ignore-element { display: none; }
`
