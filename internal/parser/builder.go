package parser

import (
	"strings"

	"github.com/treeline-ai/treeline/internal/doctree"
)

// sectionBuilder assembles a DocTree from a linear stream of heading and
// text events, nesting sections by heading level. All format parsers feed
// it, so heading semantics are identical regardless of upload format.
type sectionBuilder struct {
	root  *doctree.DocNode
	stack []builderFrame
	text  strings.Builder
}

type builderFrame struct {
	node  *doctree.DocNode
	level int
}

func newSectionBuilder(title string) *sectionBuilder {
	root := &doctree.DocNode{Title: title}
	return &sectionBuilder{
		root:  root,
		stack: []builderFrame{{node: root, level: 0}},
	}
}

// Heading closes the pending text block and opens a new section at the
// given level (1-6), popping back to the nearest shallower ancestor.
func (b *sectionBuilder) Heading(level int, title string) {
	b.flush()
	node := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, builderFrame{node: node, level: level})
}

// Text appends a block of body text to the current section.
func (b *sectionBuilder) Text(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *sectionBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	if t != "" {
		top := b.stack[len(b.stack)-1].node
		if top.Text != "" {
			top.Text += "\n\n" + t
		} else {
			top.Text = t
		}
	}
	b.text.Reset()
}

// Tree finalizes the build. A document with no headings at all becomes a
// single untitled child so downstream stages always see children.
func (b *sectionBuilder) Tree(title string) *doctree.DocTree {
	b.flush()
	tree := &doctree.DocTree{Title: title, Children: b.root.Children}
	if len(tree.Children) == 0 && b.root.Text != "" {
		tree.Children = []*doctree.DocNode{{Text: b.root.Text}}
	}
	return tree
}
