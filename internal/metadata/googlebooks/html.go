package googlebooks

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// descriptionMarkdown converts an HTML description to Markdown. Plain text
// is returned unchanged. If conversion fails the tags are stripped instead.
func descriptionMarkdown(s string) string {
	if s == "" || !containsHTML(s) {
		return strings.TrimSpace(s)
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return stripHTML(s)
	}
	return strings.TrimSpace(markdown)
}

// stripHTML removes HTML tags and returns plain text with whitespace collapsed.
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var buf strings.Builder
	extractText(doc, &buf)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// extractText recursively extracts text content from HTML nodes.
func extractText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString(" ")
		}
	}
}
