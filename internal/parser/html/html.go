package html

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node types re-exported for callers that do not import x/net/html
const (
	TextNode     = html.TextNode
	ElementNode  = html.ElementNode
	DocumentNode = html.DocumentNode
	CommentNode  = html.CommentNode
)

// Parser represents an HTML parser
type Parser struct{}

// Node represents an HTML node in the document tree
type Node struct {
	Type        html.NodeType
	Data        string
	Attr        []html.Attribute
	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node
}

// Document represents a parsed HTML document
type Document struct {
	Root *Node
}

// NewParser creates a new HTML parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseString parses HTML from a string
func (p *Parser) ParseString(content string) (*Document, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse parses HTML from an io.Reader
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	root := convertNode(node, nil)
	return &Document{Root: root}, nil
}

// ParseFragment parses markup in the context of a body element and returns
// the top-level nodes.
func (p *Parser) ParseFragment(content string) ([]*Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, err
	}

	result := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		result = append(result, convertNode(n, nil))
	}
	return result, nil
}

// convertNode converts an html.Node to our Node structure
func convertNode(n *html.Node, parent *Node) *Node {
	if n == nil {
		return nil
	}

	node := &Node{
		Type:   n.Type,
		Data:   n.Data,
		Attr:   n.Attr,
		Parent: parent,
	}

	var lastChild *Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		child := convertNode(c, node)
		if node.FirstChild == nil {
			node.FirstChild = child
		}
		if lastChild != nil {
			lastChild.NextSibling = child
			child.PrevSibling = lastChild
		}
		lastChild = child
	}
	node.LastChild = lastChild

	return node
}

// Body returns the body element of the document or the root when absent
func (d *Document) Body() *Node {
	if body := d.Root.Find(func(n *Node) bool { return n.IsElement("body") }); body != nil {
		return body
	}
	return d.Root
}

// Render renders the document back to HTML
func (d *Document) Render() (string, error) {
	return OuterHTML(d.Root)
}

// OuterHTML serializes a node and its whole subtree
func OuterHTML(n *Node) (string, error) {
	var buf bytes.Buffer
	if err := renderNode(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderNode renders a node and its children to HTML
func renderNode(w io.Writer, n *Node) error {
	if n == nil {
		return nil
	}
	return html.Render(w, toHTML(n))
}

// toHTML converts the subtree rooted at n back to x/net/html nodes
func toHTML(n *Node) *html.Node {
	node := &html.Node{
		Type: n.Type,
		Data: n.Data,
		Attr: n.Attr,
	}
	if n.Type == html.ElementNode {
		node.DataAtom = atom.Lookup([]byte(n.Data))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		node.AppendChild(toHTML(c))
	}
	return node
}

// IsElement reports whether n is an element, optionally with one of the given tags
func (n *Node) IsElement(tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if strings.EqualFold(n.Data, t) {
			return true
		}
	}
	return false
}

// Attribute returns the value of the named attribute
func (n *Node) Attribute(name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or def
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attribute(name); ok {
		return v
	}
	return def
}

// SetAttribute sets or replaces an attribute value
func (n *Node) SetAttribute(name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			attrs := append([]html.Attribute(nil), n.Attr...)
			attrs[i].Val = value
			n.Attr = attrs
			return
		}
	}
	n.Attr = append(append([]html.Attribute(nil), n.Attr...), html.Attribute{Key: name, Val: value})
}

// ID returns the id attribute
func (n *Node) ID() string {
	return n.AttrOr("id", "")
}

// Classes returns the class list
func (n *Node) Classes() []string {
	return strings.Fields(n.AttrOr("class", ""))
}

// HasClass reports whether the class list contains class
func (n *Node) HasClass(class string) bool {
	for _, c := range n.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends class unless it is already present
func (n *Node) AddClass(class string) {
	if n.HasClass(class) {
		return
	}
	n.SetAttribute("class", strings.TrimSpace(n.AttrOr("class", "")+" "+class))
}

// Children returns the element children of n
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// TextContent returns the concatenated text of the subtree
func (n *Node) TextContent() string {
	var sb strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// Walk visits the subtree in document order; returning false skips children
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		c.Walk(fn)
	}
}

// Find returns the first node in document order matching fn
func (n *Node) Find(fn func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if fn(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// AppendChild adds c as the last child of n
func (n *Node) AppendChild(c *Node) {
	c.Parent = n
	c.PrevSibling = n.LastChild
	c.NextSibling = nil
	if n.LastChild != nil {
		n.LastChild.NextSibling = c
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
}

// InsertBefore inserts c before the child ref of n
func (n *Node) InsertBefore(c, ref *Node) {
	if ref == nil {
		n.AppendChild(c)
		return
	}
	c.Parent = n
	c.NextSibling = ref
	c.PrevSibling = ref.PrevSibling
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = c
	} else {
		n.FirstChild = c
	}
	ref.PrevSibling = c
}

// Remove detaches n from its parent
func (n *Node) Remove() {
	p := n.Parent
	if p == nil {
		return
	}
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	} else {
		p.FirstChild = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	} else {
		p.LastChild = n.PrevSibling
	}
	n.Parent, n.PrevSibling, n.NextSibling = nil, nil, nil
}

// NewElement creates a detached element node
func NewElement(tag string, attrs ...html.Attribute) *Node {
	return &Node{Type: html.ElementNode, Data: tag, Attr: attrs}
}

// NewText creates a detached text node
func NewText(text string) *Node {
	return &Node{Type: html.TextNode, Data: text}
}

// Attr builds an attribute
func Attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}
