// Package tokenizer turns raw text into normalized, stemmed terms. It
// lower-cases input, drops non-ASCII characters, replaces punctuation with
// spaces, removes stop-words and short words, and applies a suffix-stripping
// stemmer. Indexing and querying share this package so both sides agree on
// term shape.
package tokenizer

import "strings"

// punctuation is the standard ASCII punctuation set. Each of these
// characters becomes a word boundary.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var stopWords = map[string]struct{}{
	"the": {}, "be": {}, "to": {}, "of": {}, "and": {}, "a": {},
	"in": {}, "that": {}, "have": {}, "i": {}, "it": {}, "for": {},
	"not": {}, "on": {}, "with": {}, "he": {}, "as": {}, "you": {},
	"do": {}, "at": {}, "this": {}, "but": {}, "his": {}, "by": {},
	"from": {}, "they": {}, "we": {}, "say": {}, "her": {}, "she": {},
	"or": {}, "an": {}, "will": {}, "my": {}, "one": {}, "all": {},
	"would": {}, "there": {}, "their": {}, "what": {}, "so": {},
	"up": {}, "out": {}, "if": {}, "about": {}, "who": {}, "get": {},
	"which": {}, "go": {}, "me": {},
}

// suffixes is checked in order; only the first match is stripped. The order
// is part of the index contract: changing it invalidates existing terms.
var suffixes = []string{"ing", "ed", "es", "s", "ly", "tion", "ness", "ment"}

// Normalize breaks one line of raw text into lowercased candidate words.
// Non-ASCII characters are dropped outright (no transliteration),
// punctuation becomes a word boundary, and stop-words and words of two
// characters or fewer are removed. The result is empty when the line has no
// qualifying words.
func Normalize(text string) []string {
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 128:
		case strings.ContainsRune(punctuation, r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	candidates := strings.Fields(b.String())
	words := candidates[:0]
	for _, w := range candidates {
		if len(w) <= 2 {
			continue
		}
		if _, isStop := stopWords[w]; isStop {
			continue
		}
		words = append(words, w)
	}
	return words
}

// Stem strips the first matching suffix from word, provided the remaining
// prefix stays longer than two characters beyond the suffix length. Words
// with no qualifying suffix come back unchanged. Only one suffix is ever
// removed per call.
func Stem(word string) string {
	for _, suffix := range suffixes {
		if strings.HasSuffix(word, suffix) && len(word) > len(suffix)+2 {
			return word[:len(word)-len(suffix)]
		}
	}
	return word
}

// Terms runs the full pipeline (Normalize then Stem) and returns the ordered
// term sequence for one line of text.
func Terms(text string) []string {
	words := Normalize(text)
	for i, w := range words {
		words[i] = Stem(w)
	}
	return words
}
