// Package richtext renders Contentful rich-text documents as HTML templ
// components.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Node types of the rich-text document model.
const (
	Document           = "document"
	Paragraph          = "paragraph"
	Heading1           = "heading-1"
	Heading2           = "heading-2"
	Heading3           = "heading-3"
	Heading4           = "heading-4"
	Heading5           = "heading-5"
	Heading6           = "heading-6"
	UnorderedList      = "unordered-list"
	OrderedList        = "ordered-list"
	ListItem           = "list-item"
	Quote              = "blockquote"
	HR                 = "hr"
	Table              = "table"
	TableRow           = "table-row"
	TableCell          = "table-cell"
	TableHeaderCell    = "table-header-cell"
	Hyperlink          = "hyperlink"
	EntryHyperlink     = "entry-hyperlink"
	AssetHyperlink     = "asset-hyperlink"
	EmbeddedAssetBlock = "embedded-asset-block"
	Text               = "text"
)

// Mark types applied to text nodes.
const (
	MarkBold      = "bold"
	MarkItalic    = "italic"
	MarkUnderline = "underline"
	MarkCode      = "code"
)

// Node is one element of a rich-text tree. The root node has type Document.
type Node struct {
	NodeType string   `json:"nodeType"`
	Data     NodeData `json:"data"`
	Content  []Node   `json:"content,omitempty"`
	Value    string   `json:"value,omitempty"`
	Marks    []Mark   `json:"marks,omitempty"`
}

// Mark is a text decoration.
type Mark struct {
	Type string `json:"type"`
}

// NodeData carries the node-specific payload: the URI of a hyperlink or the
// target of an embedded asset.
type NodeData struct {
	URI    string  `json:"uri,omitempty"`
	Target *Target `json:"target,omitempty"`
}

// Target is a link to an entry or asset. Fields is set once the link has
// been resolved against the response includes.
type Target struct {
	Sys    TargetSys     `json:"sys"`
	Fields *TargetFields `json:"fields,omitempty"`
}

// TargetSys identifies a link target.
type TargetSys struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	LinkType string `json:"linkType,omitempty"`
}

// TargetFields is the subset of asset fields needed to render an embedded image.
type TargetFields struct {
	Title  string `json:"title,omitempty"`
	URL    string `json:"url,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Walk calls fn for n and every descendant in document order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for i := range n.Content {
		n.Content[i].Walk(fn)
	}
}

// Render returns a templ.Component that writes doc as HTML.
func Render(doc Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderHTML(&buf, doc)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderHTML writes the HTML representation of doc to buf.
func RenderHTML(buf *bytes.Buffer, doc Node) {
	renderNode(buf, doc)
}

func renderChildren(buf *bytes.Buffer, n Node) {
	for _, child := range n.Content {
		renderNode(buf, child)
	}
}

func wrap(buf *bytes.Buffer, tag string, n Node) {
	buf.WriteString("<" + tag + ">")
	renderChildren(buf, n)
	buf.WriteString("</" + tag + ">")
}

func renderNode(buf *bytes.Buffer, n Node) {
	switch n.NodeType {
	case Text:
		buf.WriteString(formatText(n.Value, n.Marks))
	case Paragraph:
		wrap(buf, "p", n)
	case Heading1, Heading2, Heading3, Heading4, Heading5, Heading6:
		wrap(buf, "h"+strings.TrimPrefix(n.NodeType, "heading-"), n)
	case UnorderedList:
		wrap(buf, "ul", n)
	case OrderedList:
		wrap(buf, "ol", n)
	case ListItem:
		wrap(buf, "li", n)
	case Quote:
		wrap(buf, "blockquote", n)
	case HR:
		buf.WriteString("<hr/>")
	case Table:
		buf.WriteString("<table><tbody>")
		renderChildren(buf, n)
		buf.WriteString("</tbody></table>")
	case TableRow:
		wrap(buf, "tr", n)
	case TableCell:
		wrap(buf, "td", n)
	case TableHeaderCell:
		wrap(buf, "th", n)
	case Hyperlink:
		href := safeURL(n.Data.URI)
		if href == "" {
			renderChildren(buf, n)
			return
		}
		buf.WriteString(`<a href="` + href + `"`)
		if isExternal(n.Data.URI) {
			buf.WriteString(` target="_blank" rel="noopener noreferrer"`)
		}
		buf.WriteString(">")
		renderChildren(buf, n)
		buf.WriteString("</a>")
	case EmbeddedAssetBlock:
		renderEmbeddedAsset(buf, n)
	default:
		// document, entry and asset hyperlinks, and unknown nodes
		renderChildren(buf, n)
	}
}

// formatText escapes value and applies marks, first mark innermost.
func formatText(value string, marks []Mark) string {
	s := html.EscapeString(value)
	for _, m := range marks {
		switch m.Type {
		case MarkBold:
			s = "<strong>" + s + "</strong>"
		case MarkItalic:
			s = "<em>" + s + "</em>"
		case MarkUnderline:
			s = "<u>" + s + "</u>"
		case MarkCode:
			s = "<code>" + s + "</code>"
		}
	}
	return s
}

func renderEmbeddedAsset(buf *bytes.Buffer, n Node) {
	t := n.Data.Target
	if t == nil || t.Fields == nil || t.Fields.URL == "" {
		return
	}
	src := safeURL(AbsoluteURL(t.Fields.URL))
	if src == "" {
		return
	}
	buf.WriteString(`<img loading="lazy" decoding="async" src="` + src + `" alt="` + html.EscapeString(t.Fields.Title) + `"`)
	if t.Fields.Width > 0 && t.Fields.Height > 0 {
		buf.WriteString(` width="` + strconv.Itoa(t.Fields.Width) + `" height="` + strconv.Itoa(t.Fields.Height) + `"`)
	}
	buf.WriteString("/>")
}

// AbsoluteURL turns a protocol-relative asset URL ("//host/path") into an
// https URL. Other URLs are returned unchanged.
func AbsoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

// PlainText returns the concatenated text of doc, with block elements
// separated by a single space.
func PlainText(doc Node) string {
	var parts []string
	var b strings.Builder
	var walk func(n Node)
	walk = func(n Node) {
		if n.NodeType == Text {
			b.WriteString(n.Value)
			return
		}
		for _, c := range n.Content {
			walk(c)
		}
		if n.NodeType == Hyperlink || b.Len() == 0 {
			return
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			parts = append(parts, s)
		}
		b.Reset()
	}
	walk(doc)
	return strings.Join(parts, " ")
}

func isExternal(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func safeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
