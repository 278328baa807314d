package document

import "github.com/gompdf/smartprint/internal/parser/html"

// Reserved markers recognized in the content
const (
	// BreakAttribute set to "true" forces a page break.
	BreakAttribute = "data-break"
	// IgnoreID marks content excluded from pagination.
	IgnoreID = "rsp-ignore-element"
	// BlankPageID marks an element emitted as a page of its own.
	BlankPageID = "rsp-blank-page"
	// ListID marks a list whose items paginate individually.
	ListID = "rsp-list"
	// SpacingClass marks a block followed by paragraph spacing.
	SpacingClass = "rsp-add-p-spacing"
	// ParagraphClass marks a paragraph split into one block per line.
	ParagraphClass = "rsp-paragraph"
	// ParagraphLineID identifies the blocks produced from a paragraph.
	ParagraphLineID = "rsp-paragraph-line"
)

// IsBreak reports a forced page break element
func IsBreak(n *html.Node) bool {
	v, ok := n.Attribute(BreakAttribute)
	return ok && v == "true"
}

// IsIgnored reports an element excluded from pagination
func IsIgnored(n *html.Node) bool {
	return n.ID() == IgnoreID
}

// IsBlankPage reports a blank page element
func IsBlankPage(n *html.Node) bool {
	return n.ID() == BlankPageID
}

// IsList reports a paginated list container
func IsList(n *html.Node) bool {
	return n.ID() == ListID
}

// IsSpacingOwner reports a block followed by paragraph spacing
func IsSpacingOwner(n *html.Node) bool {
	return n.HasClass(SpacingClass)
}
