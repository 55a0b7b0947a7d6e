// Package extract turns markup fragments from feeds and scraped pages into
// the plain strings the analyzer works on.
package extract

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PlainText returns the visible text of an HTML fragment with whitespace
// collapsed. Feed descriptions often arrive as escaped markup; plain strings
// pass through unchanged apart from whitespace.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapseSpace(fragment)
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), bodyContext())
	if err != nil {
		return collapseSpace(fragment)
	}

	var buf strings.Builder
	for _, n := range nodes {
		visibleText(n, &buf)
	}
	return collapseSpace(buf.String())
}

// bodyContext is the parse context for fragments. The parser rejects a
// context node whose DataAtom does not match its Data.
func bodyContext() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Body.String(),
		DataAtom: atom.Body,
	}
}

func visibleText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "iframe":
			return
		case "br", "p", "div", "li":
			buf.WriteByte(' ')
		}
	}

	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, buf)
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ResolveURL resolves href against base. It returns "" for anchors,
// javascript:/mailto: links and anything that is not http(s).
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if b, err := url.Parse(base); err == nil {
		ref = b.ResolveReference(ref)
	}

	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

// Snippet shortens s to at most n runes, adding "..." when it was cut
func Snippet(s string, n int) string {
	s = collapseSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
