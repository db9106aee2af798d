package text

import (
	"regexp"
	"strings"
)

// minSentenceLength filters punctuation fragments and stray markup that the
// boundary regex would otherwise promote to sentences.
const minSentenceLength = 10

// Chunk is a sentence-bounded, length-bounded slice of a section body.
type Chunk struct {
	Text           string
	SentenceCount  int
	CharacterCount int
	Index          int
}

// sentenceBoundaryRe marks sentence endings: terminal punctuation followed by
// whitespace or end of line, and blank lines as paragraph separators.
var sentenceBoundaryRe = regexp.MustCompile(`(?m)[.!?]+\s+|[.!?]+$|\n\s*\n`)

// DetectSentences splits text at punctuation-plus-whitespace and blank-line
// boundaries. Fragments of minSentenceLength bytes or fewer are discarded as
// noise; a longer unterminated trailing remainder is kept as a final
// sentence.
func DetectSentences(text string) []string {
	var sentences []string
	last := 0

	for _, loc := range sentenceBoundaryRe.FindAllStringIndex(text, -1) {
		sentence := strings.TrimSpace(text[last:loc[1]])
		if len(sentence) > minSentenceLength {
			sentences = append(sentences, sentence)
		}
		last = loc[1]
	}

	if last < len(text) {
		if remaining := strings.TrimSpace(text[last:]); len(remaining) > minSentenceLength {
			sentences = append(sentences, remaining)
		}
	}

	return sentences
}

// MergeSentencesByLength greedily packs sentences into chunks of at most
// maxLength bytes. A sentence always joins an empty chunk regardless of its
// own length, so no chunk is ever empty and a single oversized sentence
// becomes its own over-budget chunk instead of being dropped.
func MergeSentencesByLength(sentences []string, maxLength int) []Chunk {
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	var cur Chunk

	flush := func() {
		if cur.SentenceCount > 0 {
			cur.Index = len(chunks)
			chunks = append(chunks, cur)
			cur = Chunk{}
		}
	}

	for _, sentence := range sentences {
		candidate := sentence
		if cur.Text != "" {
			candidate = cur.Text + " " + sentence
		}

		if len(candidate) <= maxLength || cur.SentenceCount == 0 {
			cur.Text = candidate
			cur.SentenceCount++
			cur.CharacterCount = len(candidate)
		} else {
			flush()
			cur = Chunk{Text: sentence, SentenceCount: 1, CharacterCount: len(sentence)}
		}
	}

	flush()
	return chunks
}

// ChunkBySentence bounds a section body by maxLength. Text that already fits
// is returned as a single chunk without any sentence analysis; otherwise it
// is split into sentences and re-merged. Text with no detectable sentence
// boundaries also comes back as one (over-budget) chunk.
func ChunkBySentence(text string, maxLength int) []Chunk {
	if len(text) <= maxLength {
		return []Chunk{{Text: text, SentenceCount: 1, CharacterCount: len(text)}}
	}

	sentences := DetectSentences(text)
	if len(sentences) == 0 {
		return []Chunk{{Text: text, SentenceCount: 1, CharacterCount: len(text)}}
	}

	return MergeSentencesByLength(sentences, maxLength)
}
