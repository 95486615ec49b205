package sparse

import (
	"regexp"
	"strings"
)

// wordRegex matches runs of letters, digits and underscores.
var wordRegex = regexp.MustCompile(`[a-z0-9_]+`)

// Tokenize converts text into lowercase terms, splitting on anything
// that is not alphanumeric. Chunk text and query text must go through
// the same tokenizer or term statistics stop lining up.
func Tokenize(text string) []string {
	return wordRegex.FindAllString(strings.ToLower(text), -1)
}

// termFrequencies counts occurrences of each term.
func termFrequencies(terms []string) map[string]int {
	freqs := make(map[string]int, len(terms))
	for _, term := range terms {
		freqs[term]++
	}
	return freqs
}
