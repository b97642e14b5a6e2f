// Package chunker splits page text into overlapping chunks bounded by a
// character budget.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// Splitter accumulates paragraphs into chunks of at most maxChars characters,
// carrying the last overlap characters of each emitted chunk into the next one.
type Splitter struct {
	maxChars int
	overlap  int
}

func NewSplitter(maxChars, overlap int) *Splitter {
	if maxChars <= 0 {
		maxChars = 1500
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Splitter{maxChars: maxChars, overlap: overlap}
}

// Split cuts one page's text into ordered chunks. Paragraphs are the
// non-empty trimmed lines of the input; they are joined with newlines until
// adding the next paragraph would push the chunk past maxChars, at which
// point the chunk is emitted and the next one starts with the emitted
// chunk's overlap tail. The budget is a trigger, not a hard cap: a single
// paragraph longer than maxChars still becomes one oversized chunk.
func (s *Splitter) Split(text string) []string {
	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	var chunks []string
	acc := ""
	for _, p := range paragraphs {
		switch {
		case acc != "" && utf8.RuneCountInString(acc)+utf8.RuneCountInString(p)+1 > s.maxChars:
			chunks = append(chunks, acc)
			acc = tail(acc, s.overlap) + "\n" + p
		case acc == "":
			acc = p
		default:
			acc += "\n" + p
		}
	}
	if acc != "" {
		chunks = append(chunks, acc)
	}
	return chunks
}

// tail returns the last n characters of s. Это срез по рунам, без оглядки
// на границы слов.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
