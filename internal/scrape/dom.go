package scrape

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// parseHTML parses a page into a node tree. html.Parse tolerates the
// malformed markup real pages carry.
func parseHTML(content string) (*html.Node, error) {
	return html.Parse(strings.NewReader(content))
}

// textContent returns the visible text under n, chunks joined by single
// spaces with runs of whitespace collapsed.
func textContent(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return normalizeSpace(strings.Join(parts, " "))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// attr returns the value of the named attribute on n.
func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// hasClass reports whether n carries the given class token.
func hasClass(n *html.Node, class string) bool {
	val, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(val) {
		if c == class {
			return true
		}
	}
	return false
}

// findAll collects every descendant element with the given tag name,
// in document order.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// findFirstClass returns the first descendant matching tag and class.
func findFirstClass(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirstClass(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

// findAllClass collects every descendant matching tag and class.
func findAllClass(n *html.Node, tag, class string) []*html.Node {
	var out []*html.Node
	for _, el := range findAll(n, tag) {
		if hasClass(el, class) {
			out = append(out, el)
		}
	}
	return out
}

// findText returns the first text node whose content satisfies match.
func findText(n *html.Node, match func(string) bool) *html.Node {
	if n.Type == html.TextNode && match(n.Data) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findText(c, match); found != nil {
			return found
		}
	}
	return nil
}

// nextElementSibling returns the first following sibling that is an
// element, skipping text and comment nodes.
func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// nextSiblingClass returns the first following sibling matching tag and
// class, however many other siblings sit in between.
func nextSiblingClass(n *html.Node, tag, class string) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && s.Data == tag && hasClass(s, class) {
			return s
		}
	}
	return nil
}

// resolveURL makes href absolute against base. Fragment-only,
// javascript: and mailto: links resolve to the empty string, as do
// schemes other than http and https.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
