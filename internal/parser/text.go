package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/treeline-ai/treeline/internal/doctree"
)

// TextParser handles plain text runbooks. Blank lines delimit paragraphs;
// there is no heading structure to recover, so the whole document lands in
// one section.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	title := TitleFromFilename(filename)
	b := newSectionBuilder(title)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024)

	var para strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if para.Len() > 0 {
				b.Text(para.String())
				para.Reset()
			}
			continue
		}
		if para.Len() > 0 {
			para.WriteByte('\n')
		}
		para.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if para.Len() > 0 {
		b.Text(para.String())
	}

	return b.Tree(title), nil
}
