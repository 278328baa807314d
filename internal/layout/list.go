package layout

import (
	"strconv"
	"strings"

	"github.com/gompdf/smartprint/internal/parser/html"
)

// MarkerAttribute carries a precomputed list marker
const MarkerAttribute = "data-marker"

// marker returns the marker text of list item n. A data-marker attribute
// wins; otherwise the marker follows the list-style-type of the item.
func (e *Engine) marker(n *html.Node) string {
	if m, ok := n.Attribute(MarkerAttribute); ok {
		return m
	}
	index := 1
	if p := n.Parent; p != nil {
		if start, err := strconv.Atoi(p.AttrOr("start", "")); err == nil {
			index = start
		}
		for c := p.FirstChild; c != nil && c != n; c = c.NextSibling {
			if c.Type == html.ElementNode && e.display(c) == "list-item" {
				index++
			}
		}
	}
	kind := e.styleOf(n).Get("list-style-type")
	if kind == "" && n.Parent != nil && n.Parent.IsElement("ol") {
		kind = "decimal"
	}
	return Marker(kind, index)
}

// Marker formats the list marker for a 1-based index
func Marker(kind string, index int) string {
	switch strings.ToLower(kind) {
	case "none":
		return ""
	case "decimal":
		return strconv.Itoa(index) + "."
	case "lower-alpha", "lower-latin":
		return alpha(index) + "."
	case "upper-alpha", "upper-latin":
		return strings.ToUpper(alpha(index)) + "."
	case "lower-roman":
		return roman(index) + "."
	case "upper-roman":
		return strings.ToUpper(roman(index)) + "."
	case "circle":
		return "o"
	}
	return "•"
}

func alpha(n int) string {
	if n <= 0 {
		return strconv.Itoa(n)
	}
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('a' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

var romans = []struct {
	value  int
	symbol string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

func roman(n int) string {
	if n <= 0 || n >= 4000 {
		return strconv.Itoa(n)
	}
	var sb strings.Builder
	for _, r := range romans {
		for n >= r.value {
			sb.WriteString(r.symbol)
			n -= r.value
		}
	}
	return sb.String()
}
