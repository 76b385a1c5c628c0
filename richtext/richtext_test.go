package richtext

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func text(v string, marks ...string) Node {
	n := Node{NodeType: Text, Value: v}
	for _, m := range marks {
		n.Marks = append(n.Marks, Mark{Type: m})
	}
	return n
}

func block(nodeType string, children ...Node) Node {
	return Node{NodeType: nodeType, Content: children}
}

func render(doc Node) string {
	var buf bytes.Buffer
	RenderHTML(&buf, doc)
	return buf.String()
}

func TestRenderBlocks(t *testing.T) {
	tests := []struct {
		name     string
		doc      Node
		expected string
	}{
		{"paragraph", block(Document, block(Paragraph, text("Boil water."))), "<p>Boil water.</p>"},
		{"heading", block(Document, block(Heading2, text("Prep"))), "<h2>Prep</h2>"},
		{"unordered list", block(Document, block(UnorderedList,
			block(ListItem, block(Paragraph, text("one"))),
			block(ListItem, block(Paragraph, text("two"))),
		)), "<ul><li><p>one</p></li><li><p>two</p></li></ul>"},
		{"ordered list", block(Document, block(OrderedList, block(ListItem, text("first")))), "<ol><li>first</li></ol>"},
		{"quote", block(Document, block(Quote, block(Paragraph, text("yum")))), "<blockquote><p>yum</p></blockquote>"},
		{"hr", block(Document, block(HR)), "<hr/>"},
		{"table", block(Document, block(Table, block(TableRow, block(TableHeaderCell, text("a")), block(TableCell, text("b"))))),
			"<table><tbody><tr><th>a</th><td>b</td></tr></tbody></table>"},
		{"unknown node renders children", block(Document, block("custom-block", text("kept"))), "kept"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(tt.doc); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRenderMarks(t *testing.T) {
	tests := []struct {
		node     Node
		expected string
	}{
		{text("salt", MarkBold), "<strong>salt</strong>"},
		{text("salt", MarkItalic), "<em>salt</em>"},
		{text("salt", MarkUnderline), "<u>salt</u>"},
		{text("salt", MarkCode), "<code>salt</code>"},
		{text("salt", MarkBold, MarkItalic), "<em><strong>salt</strong></em>"},
		{text("salt", "sparkle"), "salt"},
	}
	for _, tt := range tests {
		if got := render(tt.node); got != tt.expected {
			t.Errorf("marks %v: got %q, want %q", tt.node.Marks, got, tt.expected)
		}
	}
}

func TestRenderEscapesText(t *testing.T) {
	got := render(block(Paragraph, text(`<script>alert("x")</script> & more`)))
	if strings.Contains(got, "<script>") {
		t.Errorf("text should be escaped, got %q", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") || !strings.Contains(got, "&amp; more") {
		t.Errorf("unexpected escaping: %q", got)
	}
}

func TestRenderHyperlink(t *testing.T) {
	tests := []struct {
		uri      string
		expected string
	}{
		{"https://example.com/a?b=1&c=2", `<a href="https://example.com/a?b=1&amp;c=2" target="_blank" rel="noopener noreferrer">link</a>`},
		{"/recipes/pasta", `<a href="/recipes/pasta">link</a>`},
		{"mailto:chef@example.com", `<a href="mailto:chef@example.com">link</a>`},
		{"javascript:alert(1)", "link"},
		{"", "link"},
	}
	for _, tt := range tests {
		n := Node{NodeType: Hyperlink, Data: NodeData{URI: tt.uri}, Content: []Node{text("link")}}
		if got := render(n); got != tt.expected {
			t.Errorf("uri %q: got %q, want %q", tt.uri, got, tt.expected)
		}
	}
}

func TestRenderEmbeddedAsset(t *testing.T) {
	resolved := Node{NodeType: EmbeddedAssetBlock, Data: NodeData{Target: &Target{
		Sys:    TargetSys{ID: "a1", Type: "Link", LinkType: "Asset"},
		Fields: &TargetFields{Title: "Step 3", URL: "//images.example/s3.jpg", Width: 400, Height: 300},
	}}}
	got := render(resolved)
	want := `<img loading="lazy" decoding="async" src="https://images.example/s3.jpg" alt="Step 3" width="400" height="300"/>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	unresolved := Node{NodeType: EmbeddedAssetBlock, Data: NodeData{Target: &Target{Sys: TargetSys{ID: "a2"}}}}
	if got := render(unresolved); got != "" {
		t.Errorf("unresolved asset should render nothing, got %q", got)
	}
}

func TestDecodeContentfulDocument(t *testing.T) {
	raw := `{"nodeType":"document","data":{},"content":[
		{"nodeType":"paragraph","data":{},"content":[
			{"nodeType":"text","value":"Mix ","marks":[],"data":{}},
			{"nodeType":"text","value":"gently","marks":[{"type":"bold"}],"data":{}},
			{"nodeType":"hyperlink","data":{"uri":"https://example.com"},"content":[
				{"nodeType":"text","value":" here","marks":[],"data":{}}]}
		]}
	]}`
	var doc Node
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	got := render(doc)
	want := `<p>Mix <strong>gently</strong><a href="https://example.com" target="_blank" rel="noopener noreferrer"> here</a></p>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderComponent(t *testing.T) {
	var buf bytes.Buffer
	doc := block(Document, block(Paragraph, text("Serve hot.")))
	if err := Render(doc).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.String() != "<p>Serve hot.</p>" {
		t.Errorf("got %q", buf.String())
	}
}

func TestPlainText(t *testing.T) {
	doc := block(Document,
		block(Heading2, text("Method")),
		block(Paragraph, text("Chop the "), text("onions", MarkBold), text(".")),
		block(UnorderedList, block(ListItem, block(Paragraph, text("Fry")))),
	)
	if got, want := PlainText(doc), "Method Chop the onions. Fry"; got != want {
		t.Errorf("PlainText = %q, want %q", got, want)
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := map[string]string{
		"//images.example/x.jpg":       "https://images.example/x.jpg",
		"https://images.example/x.jpg": "https://images.example/x.jpg",
		"":                             "",
	}
	for in, want := range tests {
		if got := AbsoluteURL(in); got != want {
			t.Errorf("AbsoluteURL(%q) = %q, want %q", in, got, want)
		}
	}
}
