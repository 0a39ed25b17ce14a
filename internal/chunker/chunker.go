package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MaxChunks is the hard ceiling on chunks per document. Documents that would
// need more are rejected before any oracle call is made.
const MaxChunks = 10

// DefaultMaxTokens is the per-chunk token budget when none is configured.
const DefaultMaxTokens = 12000

// Chunk is an ordered, token-bounded slice of the source document.
type Chunk struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	EstTokens int    `json:"est_tokens"`
}

// ContentTooLargeError reports a document that exceeds the chunk ceiling.
type ContentTooLargeError struct {
	Tokens       int
	ChunksNeeded int
	MaxChunks    int
}

func (e *ContentTooLargeError) Error() string {
	return fmt.Sprintf("content too large: ~%d tokens would need %d chunks (max %d)",
		e.Tokens, e.ChunksNeeded, e.MaxChunks)
}

// ValidateSize fails fast when the document cannot fit inside MaxChunks
// chunks of maxTokensPerChunk each. It runs before any expensive work.
func ValidateSize(input string, maxTokensPerChunk int) error {
	if maxTokensPerChunk <= 0 {
		maxTokensPerChunk = DefaultMaxTokens
	}
	tokens := EstimateTokens(input)
	needed := (tokens + maxTokensPerChunk - 1) / maxTokensPerChunk
	if needed > MaxChunks {
		return &ContentTooLargeError{
			Tokens:       tokens,
			ChunksNeeded: needed,
			MaxChunks:    MaxChunks,
		}
	}
	return nil
}

// Split divides input into token-bounded chunks at structural boundaries.
//
// Input that fits the budget is returned unmodified as a single chunk.
// Otherwise the text is split at top-level (h1/h2) heading boundaries and
// consecutive sections are greedily packed per chunk, with any preamble
// before the first heading re-prefixed onto every chunk so each keeps the
// document's framing context. A single section exceeding the budget is
// hard-split by character count; documents with no headings fall back to
// pure character splitting.
func Split(input string, maxTokensPerChunk int) []Chunk {
	if maxTokensPerChunk <= 0 {
		maxTokensPerChunk = DefaultMaxTokens
	}
	if EstimateTokens(input) <= maxTokensPerChunk {
		return []Chunk{{Index: 0, Text: input, EstTokens: EstimateTokens(input)}}
	}

	src := []byte(input)
	starts := headingStarts(src)
	if len(starts) == 0 {
		return indexChunks(hardSplit(input, maxTokensPerChunk))
	}

	preamble := strings.TrimSpace(input[:starts[0]])
	// A preamble that eats more than half the budget would starve the
	// sections it frames; carry it once instead of re-prefixing.
	reprefix := preamble != "" && EstimateTokens(preamble) <= maxTokensPerChunk/2

	var sections []string
	for i, start := range starts {
		end := len(input)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		sections = append(sections, strings.TrimRight(input[start:end], "\n"))
	}

	preambleTokens := 0
	if reprefix {
		preambleTokens = EstimateTokens(preamble) + 1 // +1 for the separator
	}
	sectionBudget := maxTokensPerChunk - preambleTokens

	var texts []string
	if preamble != "" && !reprefix {
		texts = append(texts, hardSplit(preamble, maxTokensPerChunk)...)
	}

	var current []string
	currentTokens := 0
	flush := func() {
		if len(current) == 0 {
			return
		}
		body := strings.Join(current, "\n\n")
		if reprefix {
			body = preamble + "\n\n" + body
		}
		texts = append(texts, body)
		current = current[:0]
		currentTokens = 0
	}

	for _, section := range sections {
		tokens := EstimateTokens(section)
		if tokens > sectionBudget {
			// Oversized section: flush what we have and hard-split it.
			flush()
			for _, piece := range hardSplit(section, sectionBudget) {
				if reprefix {
					piece = preamble + "\n\n" + piece
				}
				texts = append(texts, piece)
			}
			continue
		}
		if currentTokens+tokens > sectionBudget && currentTokens > 0 {
			flush()
		}
		current = append(current, section)
		currentTokens += tokens + 1
	}
	flush()

	return indexChunks(texts)
}

func indexChunks(texts []string) []Chunk {
	chunks := make([]Chunk, 0, len(texts))
	for i, t := range texts {
		chunks = append(chunks, Chunk{Index: i, Text: t, EstTokens: EstimateTokens(t)})
	}
	return chunks
}

// headingStarts returns the byte offsets of the lines that open level 1-2
// headings, in document order. Offsets point at the start of the heading
// line so the "#" markers stay attached to their section.
func headingStarts(src []byte) []int {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var starts []int
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > 2 {
			continue
		}
		if h.Lines().Len() == 0 {
			continue
		}
		start := h.Lines().At(0).Start
		for start > 0 && src[start-1] != '\n' {
			start--
		}
		starts = append(starts, start)
	}
	return starts
}

// hardSplit cuts text into pieces of at most maxTokens by character count,
// backing up to rune boundaries so multi-byte characters are never split.
func hardSplit(input string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = 1
	}
	maxBytes := maxTokens * 4

	var pieces []string
	for len(input) > maxBytes {
		cut := maxBytes
		for cut > 0 && !utf8.RuneStart(input[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxBytes
		}
		pieces = append(pieces, input[:cut])
		input = input[cut:]
	}
	if input != "" {
		pieces = append(pieces, input)
	}
	return pieces
}
