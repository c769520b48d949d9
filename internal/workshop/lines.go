package workshop

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// textLines flattens a page to its trimmed, non-empty text lines in
// document order. Script and style contents are dropped. This mirrors
// how the label-driven parsers see the page: pure text, one node or
// source line per entry.
func textLines(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			for _, raw := range strings.Split(n.Data, "\n") {
				if line := strings.TrimSpace(raw); line != "" {
					lines = append(lines, line)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return lines, nil
}

// hasPrefixFold reports whether s starts with prefix, ASCII case-insensitively.
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// containsFold reports whether substr occurs in s, ASCII case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// trimQuotes strips straight and curly double quotes from both ends.
func trimQuotes(s string) string {
	return strings.Trim(s, "“”\"")
}
