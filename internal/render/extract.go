package render

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
)

// ExtractSidebarLinks parses rendered HTML and returns the links inside the
// navigation sidebar, in document order.
func ExtractSidebarLinks(r io.Reader) ([]SidebarItem, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "failed to parse HTML").Build()
	}

	nav := findSidebar(doc)
	if nav == nil {
		return nil, nil
	}

	var items []SidebarItem
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" {
				items = append(items, SidebarItem{
					Label: extractText(n),
					Href:  href,
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(nav)
	return items, nil
}

// findSidebar locates the sidebar nav element.
func findSidebar(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "nav" {
		for _, class := range strings.Fields(getAttr(n, "class")) {
			if class == "docnav-sidebar" {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findSidebar(c); found != nil {
			return found
		}
	}
	return nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// extractText extracts text content from an HTML node and its children.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}
	return strings.TrimSpace(text.String())
}
