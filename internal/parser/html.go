package parser

import (
	"io"
	"strings"

	"github.com/treeline-ai/treeline/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML runbooks, typically exported from wikis. It maps
// h1-h6 to sections and skips chrome elements like nav and footer.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	title := findTitle(doc)
	if title == "" {
		title = TitleFromFilename(filename)
	}

	b := newSectionBuilder(title)
	walk(findBody(doc), b)
	return b.Tree(title), nil
}

func walk(n *html.Node, b *sectionBuilder) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "nav", "footer", "header", "aside":
			return
		case "h1", "h2", "h3", "h4", "h5", "h6":
			b.Heading(int(n.Data[1]-'0'), textContent(n))
			return
		case "p", "li", "td", "th", "blockquote", "pre":
			b.Text(textContent(n))
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, b)
	}
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(textContent(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return n
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
