package style

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gompdf/smartprint/internal/parser/css"
	"github.com/gompdf/smartprint/internal/parser/html"
)

// Specificity represents the specificity of a CSS selector
type Specificity struct {
	ID      int
	Class   int
	Element int
}

// StyleProperty represents a computed style property
type StyleProperty struct {
	Name        string
	Value       string
	Important   bool
	Source      Source
	Specificity Specificity
}

// Source represents the source of a style property
type Source int

const (
	SourceInherited Source = iota
	SourceUserAgent
	SourceAuthor
	SourceInline
)

// ComputedStyle represents the computed style for an element
type ComputedStyle map[string]StyleProperty

// inherited lists the properties that flow from parent to child
var inherited = map[string]bool{
	"color":           true,
	"font-family":     true,
	"font-size":       true,
	"font-style":      true,
	"font-weight":     true,
	"line-height":     true,
	"text-align":      true,
	"text-decoration": true,
	"white-space":     true,
	"list-style-type": true,
	"visibility":      true,
}

// StyleEngine handles the CSS cascade and style computation
type StyleEngine struct {
	parser          *css.Parser
	userAgentStyles *css.Stylesheet
	authorStyles    []*css.Stylesheet
	log             *zap.Logger
}

// NewStyleEngine creates a new style engine. A nil user agent stylesheet
// selects the built-in default.
func NewStyleEngine(userAgent *css.Stylesheet, log *zap.Logger) *StyleEngine {
	if log == nil {
		log = zap.NewNop()
	}
	parser := css.NewParser(log)
	if userAgent == nil {
		userAgent, _ = parser.ParseString(DefaultUserAgentStylesheet)
	}
	return &StyleEngine{
		parser:          parser,
		userAgentStyles: userAgent,
		log:             log.Named("style"),
	}
}

// AddStylesheet adds an author stylesheet to the style engine
func (e *StyleEngine) AddStylesheet(stylesheet *css.Stylesheet) {
	e.authorStyles = append(e.authorStyles, stylesheet)
}

// Stylesheets returns the author stylesheets
func (e *StyleEngine) Stylesheets() []*css.Stylesheet {
	return e.authorStyles
}

// ComputeStyles computes styles for all elements below root. Inherited
// properties flow from the parent; font sizes are resolved to points.
func (e *StyleEngine) ComputeStyles(root *html.Node) map[*html.Node]ComputedStyle {
	result := make(map[*html.Node]ComputedStyle)
	e.computeStylesRecursive(root, rootStyle(), result)
	e.log.Debug("Computed styles", zap.Int("elements", len(result)))
	return result
}

// rootStyle is the initial style every tree inherits from
func rootStyle() ComputedStyle {
	style := make(ComputedStyle)
	style.set("font-size", "12pt", SourceInherited)
	style.set("line-height", "normal", SourceInherited)
	style.set("color", "#000000", SourceInherited)
	style.set("font-family", "serif", SourceInherited)
	return style
}

// computeStylesRecursive computes styles for an element and its children
func (e *StyleEngine) computeStylesRecursive(node *html.Node, parent ComputedStyle, result map[*html.Node]ComputedStyle) {
	if node == nil {
		return
	}

	current := parent
	if node.Type == html.ElementNode {
		current = e.computeStyleForElement(node, parent)
		result[node] = current
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		e.computeStylesRecursive(child, current, result)
	}
}

// computeStyleForElement computes the style for a single element
func (e *StyleEngine) computeStyleForElement(node *html.Node, parent ComputedStyle) ComputedStyle {
	style := make(ComputedStyle)

	e.applyStylesheet(style, node, e.userAgentStyles, SourceUserAgent)
	for _, stylesheet := range e.authorStyles {
		e.applyStylesheet(style, node, stylesheet, SourceAuthor)
	}
	e.applyInlineStyles(style, node)

	parentSize := parent.FontSize()
	if p, ok := style["font-size"]; ok {
		p.Value = formatPoints(resolveFontSize(p.Value, parentSize))
		style["font-size"] = p
	}

	for name := range inherited {
		if _, ok := style[name]; ok {
			if style[name].Value != "inherit" {
				continue
			}
		}
		if p, ok := parent[name]; ok {
			style[name] = StyleProperty{Name: name, Value: p.Value, Source: SourceInherited}
		}
	}

	return style
}

// applyStylesheet applies styles from a stylesheet to an element
func (e *StyleEngine) applyStylesheet(style ComputedStyle, node *html.Node, stylesheet *css.Stylesheet, source Source) {
	if stylesheet == nil {
		return
	}
	for _, rule := range stylesheet.Rules {
		for _, selector := range rule.Selectors {
			if e.selectorMatches(node, selector) {
				specificity := calculateSpecificity(selector)
				e.applyDeclarations(style, rule.Declarations, specificity, source)
			}
		}
	}
}

// applyInlineStyles applies inline styles to an element
func (e *StyleEngine) applyInlineStyles(style ComputedStyle, node *html.Node) {
	if attr, ok := node.Attribute("style"); ok && strings.TrimSpace(attr) != "" {
		e.applyDeclarations(style, e.parser.ParseDeclarations(attr), Specificity{1, 0, 0}, SourceInline)
	}
}

// applyDeclarations applies CSS declarations to a style, expanding shorthands
func (e *StyleEngine) applyDeclarations(style ComputedStyle, declarations []*css.Declaration, specificity Specificity, source Source) {
	for _, decl := range declarations {
		for _, longhand := range expandShorthand(decl.Property, decl.Value) {
			existing, exists := style[longhand.name]

			// Later declarations win on equal importance, origin and specificity.
			if !exists ||
				(decl.Important && !existing.Important) ||
				(decl.Important == existing.Important && source > existing.Source) ||
				(decl.Important == existing.Important && source == existing.Source &&
					compareSpecificity(specificity, existing.Specificity) >= 0) {
				style[longhand.name] = StyleProperty{
					Name:        longhand.name,
					Value:       longhand.value,
					Important:   decl.Important,
					Source:      source,
					Specificity: specificity,
				}
			}
		}
	}
}

// selectorMatches checks if an element matches a CSS selector
func (e *StyleEngine) selectorMatches(node *html.Node, selector string) bool {
	parts := selectorParts(selector)
	if len(parts) == 0 || node == nil || isCombinator(parts[len(parts)-1]) {
		return false
	}
	return matchFrom(node, parts, len(parts)-1)
}

// selectorParts splits a complex selector into compound selectors and the
// combinators between them. Combinators may be written without spaces.
func selectorParts(selector string) []string {
	var sb strings.Builder
	depth := 0
	for _, r := range selector {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0 && (r == '>' || r == '+' || r == '~'):
			sb.WriteString(" " + string(r) + " ")
			continue
		}
		sb.WriteRune(r)
	}
	return strings.Fields(sb.String())
}

func isCombinator(part string) bool {
	return part == ">" || part == "+" || part == "~"
}

// matchFrom matches parts[:i+1] with parts[i] matching node
func matchFrom(node *html.Node, parts []string, i int) bool {
	if !matchCompoundSelector(node, parts[i]) {
		return false
	}
	if i == 0 {
		return true
	}
	combinator, j := " ", i-1
	if isCombinator(parts[j]) {
		combinator, j = parts[j], j-1
	}
	if j < 0 || isCombinator(parts[j]) {
		return false
	}

	switch combinator {
	case ">":
		return matchFrom(parentElement(node), parts, j)
	case "+":
		return matchFrom(previousElement(node), parts, j)
	case "~":
		for s := previousElement(node); s != nil; s = previousElement(s) {
			if matchFrom(s, parts, j) {
				return true
			}
		}
	default:
		for a := parentElement(node); a != nil; a = parentElement(a) {
			if matchFrom(a, parts, j) {
				return true
			}
		}
	}
	return false
}

func parentElement(n *html.Node) *html.Node {
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		return p
	}
	return nil
}

func previousElement(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// matchCompoundSelector matches a single compound selector against a node.
// Compound selectors can be forms like:
//   - tag
//   - .class
//   - #id
//   - tag.class
//   - tag#id.class1.class2
//   - tag[attr] or tag[attr=value]
//
// Pseudo-classes never match.
func matchCompoundSelector(node *html.Node, sel string) bool {
	if node == nil || node.Type != html.ElementNode || sel == "" {
		return false
	}
	if strings.Contains(sel, ":") {
		return false
	}

	var attrs []string
	for {
		open := strings.Index(sel, "[")
		if open < 0 {
			break
		}
		end := strings.Index(sel[open:], "]")
		if end < 0 {
			return false
		}
		attrs = append(attrs, sel[open+1:open+end])
		sel = sel[:open] + sel[open+end+1:]
	}

	var wantTag string
	var wantID string
	var wantClasses []string

	i := 0
	if i < len(sel) && sel[i] != '.' && sel[i] != '#' {
		j := i
		for j < len(sel) && sel[j] != '#' && sel[j] != '.' {
			j++
		}
		wantTag = sel[i:j]
		i = j
	}
	for i < len(sel) {
		j := i + 1
		for j < len(sel) && sel[j] != '.' && sel[j] != '#' {
			j++
		}
		switch sel[i] {
		case '#':
			wantID = sel[i+1 : j]
		case '.':
			wantClasses = append(wantClasses, sel[i+1:j])
		}
		i = j
	}

	if wantTag != "" && wantTag != "*" && !strings.EqualFold(wantTag, node.Data) {
		return false
	}
	if wantID != "" && node.ID() != wantID {
		return false
	}
	for _, need := range wantClasses {
		if !node.HasClass(need) {
			return false
		}
	}
	for _, a := range attrs {
		name, want, hasValue := strings.Cut(a, "=")
		have, ok := node.Attribute(strings.TrimSpace(name))
		if !ok {
			return false
		}
		if hasValue && have != css.Unquote(want) {
			return false
		}
	}

	return true
}

// calculateSpecificity calculates the specificity of a CSS selector
func calculateSpecificity(selector string) Specificity {
	specificity := Specificity{}

	specificity.ID = strings.Count(selector, "#")
	specificity.Class = strings.Count(selector, ".") +
		strings.Count(selector, "[") +
		strings.Count(selector, ":")
	for _, part := range selectorParts(selector) {
		if !isCombinator(part) && part[0] != '.' && part[0] != '#' && part[0] != '[' && part[0] != '*' {
			specificity.Element++
		}
	}

	return specificity
}

// compareSpecificity compares two specificities
func compareSpecificity(a, b Specificity) int {
	if a.ID != b.ID {
		return a.ID - b.ID
	}
	if a.Class != b.Class {
		return a.Class - b.Class
	}
	return a.Element - b.Element
}

func (s ComputedStyle) set(name, value string, source Source) {
	s[name] = StyleProperty{Name: name, Value: value, Source: source}
}

// Get returns the value of a property or an empty string
func (s ComputedStyle) Get(name string) string {
	return s[name].Value
}

// Inline serializes the style as a style attribute value with properties in
// name order
func (s ComputedStyle) Inline() string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(s[name].Value)
	}
	return sb.String()
}

// Inherited returns the subset of s that children inherit, as used for
// anonymous boxes
func (s ComputedStyle) Inherited() ComputedStyle {
	out := make(ComputedStyle, len(inherited))
	for name, prop := range s {
		if inherited[name] {
			out[name] = prop
		}
	}
	return out
}
