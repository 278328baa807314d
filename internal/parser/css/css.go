package css

import (
	"bytes"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser represents a CSS parser
type Parser struct {
	log *zap.Logger
}

// Rule represents a CSS rule
type Rule struct {
	Selectors    []string
	Declarations []*Declaration
}

// Declaration represents a CSS declaration (property-value pair)
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// FontFace is a parsed @font-face rule
type FontFace struct {
	Family string
	Weight string
	Style  string
	Src    []string
}

// Stylesheet represents a parsed CSS stylesheet
type Stylesheet struct {
	Rules     []*Rule
	FontFaces []FontFace
}

// NewParser creates a new CSS parser
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css")}
}

// ParseString parses CSS from a string
func (p *Parser) ParseString(content string) (*Stylesheet, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse parses CSS from an io.Reader. Rules inside @media blocks are kept
// when the media query applies to print.
func (p *Parser) Parse(r io.Reader) (*Stylesheet, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	sheet := &Stylesheet{}
	parser := css.NewParser(parse.NewInput(bytes.NewReader(content)), false)
	p.parseRules(parser, sheet, false)

	if err := parser.Err(); err != nil && err != io.EOF {
		p.log.Debug("CSS parse error", zap.Error(err))
	}
	return sheet, nil
}

// parseRules consumes rulesets until the input ends or, when nested, until
// the enclosing at-rule block closes.
func (p *Parser) parseRules(parser *css.Parser, sheet *Stylesheet, nested bool) {
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.EndAtRuleGrammar:
			if nested {
				return
			}
		case css.BeginRulesetGrammar:
			selectors := splitSelectors(data, parser.Values())
			decls := p.parseDeclarations(parser)
			if len(selectors) > 0 && len(decls) > 0 {
				sheet.Rules = append(sheet.Rules, &Rule{Selectors: selectors, Declarations: decls})
			}
		case css.BeginAtRuleGrammar:
			switch strings.ToLower(string(data)) {
			case "@media":
				query := strings.ToLower(tokensString(parser.Values()))
				if mediaApplies(query) {
					p.parseRules(parser, sheet, true)
				} else {
					p.log.Debug("Skipping @media block", zap.String("query", query))
					skipBlock(parser)
				}
			case "@font-face":
				if ff := fontFace(p.parseDeclarations(parser)); ff.Family != "" {
					sheet.FontFaces = append(sheet.FontFaces, ff)
				}
			default:
				p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))
				skipBlock(parser)
			}
		case css.AtRuleGrammar:
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))
		}
	}
}

// ParseDeclarations parses the content of a style attribute
func (p *Parser) ParseDeclarations(content string) []*Declaration {
	parser := css.NewParser(parse.NewInput(strings.NewReader(content)), true)
	return p.parseDeclarations(parser)
}

func (p *Parser) parseDeclarations(parser *css.Parser) []*Declaration {
	var decls []*Declaration
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar, css.EndAtRuleGrammar:
			return decls
		case css.DeclarationGrammar:
			value, important := declarationValue(parser.Values())
			if value == "" {
				continue
			}
			decls = append(decls, &Declaration{
				Property:  strings.ToLower(string(data)),
				Value:     value,
				Important: important,
			})
		}
	}
}

// declarationValue joins value tokens, collapsing whitespace and stripping !important
func declarationValue(tokens []css.Token) (string, bool) {
	important := false
	n := len(tokens)
	for n > 0 && tokens[n-1].TokenType == css.WhitespaceToken {
		n--
	}
	if n >= 2 && tokens[n-1].TokenType == css.IdentToken && strings.EqualFold(string(tokens[n-1].Data), "important") {
		i := n - 2
		for i >= 0 && tokens[i].TokenType == css.WhitespaceToken {
			i--
		}
		if i >= 0 && tokens[i].TokenType == css.DelimToken && string(tokens[i].Data) == "!" {
			important = true
			n = i
		}
	}
	return tokensString(tokens[:n]), important
}

func tokensString(tokens []css.Token) string {
	var sb strings.Builder
	space := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = sb.Len() > 0
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.Write(t.Data)
	}
	return sb.String()
}

func splitSelectors(data []byte, values []css.Token) []string {
	raw := strings.TrimSuffix(strings.TrimSpace(string(data)+tokensString(values)), "{")
	var selectors []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.Join(strings.Fields(s), " "); s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

func mediaApplies(query string) bool {
	if query == "" {
		return true
	}
	for _, q := range strings.Split(query, ",") {
		q = strings.TrimSpace(q)
		if strings.HasPrefix(q, "print") || strings.HasPrefix(q, "all") || strings.HasPrefix(q, "only print") {
			return true
		}
	}
	return false
}

func skipBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

func fontFace(decls []*Declaration) FontFace {
	var ff FontFace
	for _, d := range decls {
		switch d.Property {
		case "font-family":
			ff.Family = Unquote(d.Value)
		case "font-weight":
			ff.Weight = strings.ToLower(d.Value)
		case "font-style":
			ff.Style = strings.ToLower(d.Value)
		case "src":
			for _, part := range strings.Split(d.Value, ",") {
				if u := URL(part); u != "" {
					ff.Src = append(ff.Src, u)
				}
			}
		}
	}
	return ff
}

// URL extracts the address from a url(...) value
func URL(value string) string {
	value = strings.TrimSpace(value)
	start := strings.Index(strings.ToLower(value), "url(")
	if start < 0 {
		return ""
	}
	rest := value[start+4:]
	end := strings.Index(rest, ")")
	if end < 0 {
		return ""
	}
	return Unquote(strings.TrimSpace(rest[:end]))
}

// Unquote removes matching single or double quotes
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
