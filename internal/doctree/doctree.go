package doctree

import (
	"strings"
)

// DocTree is the root of a parsed runbook document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Children []*DocNode // Subsections
}

// Flatten renders the tree back into heading-structured markdown. Heading
// levels follow nesting depth, capped at h6. The synthesis pipeline consumes
// this flattened form so heading boundaries survive regardless of the
// original upload format (docx, pdf, html, ...).
func (t *DocTree) Flatten() string {
	var sb strings.Builder
	for _, child := range t.Children {
		flattenNode(&sb, child, 1)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func flattenNode(sb *strings.Builder, node *DocNode, level int) {
	if node.Title != "" {
		if level > 6 {
			level = 6
		}
		sb.WriteString(strings.Repeat("#", level))
		sb.WriteString(" ")
		sb.WriteString(node.Title)
		sb.WriteString("\n\n")
	}
	if node.Text != "" {
		sb.WriteString(node.Text)
		sb.WriteString("\n\n")
	}
	for _, child := range node.Children {
		flattenNode(sb, child, level+1)
	}
}

// PlainText extracts all text content without headings, for hashing and
// size accounting.
func (t *DocTree) PlainText() string {
	var sb strings.Builder
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			if n.Text != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(n.Text)
			}
			walk(n.Children)
		}
	}
	walk(t.Children)
	return sb.String()
}
