// Package segmenter splits raw text into paragraphs, sentences and
// fixed-size overlapping chunks for embedding.
package segmenter

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

// paragraphBreak matches blank-line boundaries: runs of two or more newlines.
var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// Paragraphs splits text on blank-line boundaries. Leading and trailing
// whitespace is trimmed from each paragraph; empty paragraphs are dropped.
func Paragraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Sentences splits a paragraph on terminal punctuation (. ? !) followed by
// whitespace or end of input. The punctuation stays attached to the
// preceding sentence. Trailing text without terminal punctuation is
// emitted as a final sentence.
func Sentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '?', '!':
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
				// mid-token punctuation, e.g. "3.14" or "?!"
				continue
			}
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}

	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Chunk splits text into chunks of at most maxChunkChars characters,
// accumulating whole sentences joined by single spaces. A single sentence
// longer than maxChunkChars is emitted whole: truncating mid-sentence
// would corrupt its embedding.
//
// With overlap enabled, a second buffer trails the main buffer by one
// sentence so that each emitted chunk carries the first sentence of the
// next chunk as trailing context.
func Chunk(text string, maxChunkChars int, overlap bool) []domain.Chunk {
	var chunks []domain.Chunk
	for _, para := range Paragraphs(text) {
		chunks = appendParagraphChunks(chunks, para, maxChunkChars, overlap)
	}
	return chunks
}

// ParagraphChunks returns one chunk per paragraph, the alternative ingest
// mode for documents whose paragraphs are already retrieval-sized.
func ParagraphChunks(text string) []domain.Chunk {
	paras := Paragraphs(text)
	chunks := make([]domain.Chunk, 0, len(paras))
	for _, p := range paras {
		chunks = append(chunks, domain.Chunk{Text: p})
	}
	return chunks
}

func appendParagraphChunks(chunks []domain.Chunk, para string, maxChunkChars int, overlap bool) []domain.Chunk {
	var current, trailing string
	first := true

	for _, sentence := range Sentences(para) {
		if overlap {
			if first {
				trailing = sentence
			} else {
				trailing += " " + sentence
			}
		}

		switch {
		case len(current)+len(sentence) > maxChunkChars && current != "":
			if overlap && trailing != "" {
				chunks = append(chunks, domain.Chunk{Text: trailing, OverlapVariant: true})
			} else {
				chunks = append(chunks, domain.Chunk{Text: current})
			}
			if overlap {
				trailing = sentence
			}
			current = sentence
			first = false
		case first:
			current = sentence
			first = false
		default:
			current += " " + sentence
		}
	}

	if overlap && trailing != "" {
		chunks = append(chunks, domain.Chunk{Text: trailing, OverlapVariant: true})
	} else if current != "" {
		chunks = append(chunks, domain.Chunk{Text: current})
	}
	return chunks
}
