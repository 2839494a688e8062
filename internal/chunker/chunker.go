// Package chunker splits extracted text into bounded, overlapping windows for
// embedding. Pure and deterministic: identical input always yields identical
// chunks, so reprocessing a document is restartable.
package chunker

import (
	"regexp"
	"strings"
)

const (
	DefaultMaxChunkSize = 1000
	DefaultOverlap      = 100
)

var (
	paragraphSplitter = regexp.MustCompile(`\n\n+`)
	sentenceSplitter  = regexp.MustCompile(`([^.!?]*[.!?]+)\s+`)
)

// Chunk splits text into chunks of at most maxChunkSize characters, seeding
// each paragraph-boundary flush with the trailing words of the previous chunk.
// The word count of the overlap is overlapSize/5 — a rough character-to-word
// ratio inherited from the reference deployment, kept here rather than
// promised as a structural guarantee.
func Chunk(text string, maxChunkSize, overlapSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if overlapSize < 0 {
		overlapSize = 0
	}

	var chunks []string
	current := ""

	for _, paragraph := range paragraphSplitter.Split(text, -1) {
		if len(current)+len(paragraph) > maxChunkSize {
			if current != "" {
				chunks = append(chunks, strings.TrimSpace(current))
				current = overlapTail(current, overlapSize/5) + " " + paragraph
			} else {
				// A single paragraph exceeds the limit on its own: fall back
				// to sentence boundaries, then to a hard character cut.
				chunks, current = splitOversized(chunks, paragraph, maxChunkSize)
			}
		} else {
			current += "\n\n" + paragraph
		}
	}

	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	filtered := chunks[:0]
	for _, c := range chunks {
		if len(c) > 0 {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// overlapTail returns the last n words of s.
func overlapTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Split(s, " ")
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}

// splitOversized handles a paragraph longer than maxChunkSize by accumulating
// sentences, hard-cutting any single sentence that still exceeds the limit.
// Returns the updated chunk list and the remaining unflushed buffer.
func splitOversized(chunks []string, paragraph string, maxChunkSize int) ([]string, string) {
	current := ""
	for _, sentence := range splitSentences(paragraph) {
		if len(current)+len(sentence) > maxChunkSize {
			if current != "" {
				chunks = append(chunks, strings.TrimSpace(current))
				current = sentence
			} else {
				for len(sentence) > maxChunkSize {
					chunks = append(chunks, sentence[:maxChunkSize])
					sentence = sentence[maxChunkSize:]
				}
				current = sentence
			}
		} else {
			current += " " + sentence
		}
	}
	return chunks, current
}

// splitSentences splits on terminal punctuation followed by whitespace. Any
// trailing text without terminal punctuation is kept as a final sentence.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceSplitter.FindAllStringSubmatchIndex(text, -1) {
		sentences = append(sentences, strings.TrimSpace(text[loc[2]:loc[3]]))
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}
