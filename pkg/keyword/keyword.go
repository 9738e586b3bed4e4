// Package keyword summarizes a group of texts by their most characteristic
// terms, scored with term frequency weighted by inverse document frequency.
// It is used to label clusters with representative vocabulary.
package keyword

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern splits on non-word boundaries.
var tokenPattern = regexp.MustCompile(`\W+`)

// stopWords are never reported as keywords.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "any": {}, "can": {}, "had": {}, "her": {},
	"was": {}, "one": {}, "our": {}, "out": {}, "has": {}, "him": {},
	"his": {}, "how": {}, "its": {}, "may": {}, "new": {}, "now": {},
	"old": {}, "see": {}, "two": {}, "way": {}, "who": {}, "did": {},
	"get": {}, "she": {}, "too": {}, "use": {}, "that": {}, "this": {},
	"with": {}, "from": {}, "they": {}, "will": {}, "would": {},
	"there": {}, "their": {}, "what": {}, "about": {}, "which": {},
	"when": {}, "were": {}, "been": {}, "have": {}, "more": {},
	"your": {}, "than": {}, "them": {}, "then": {}, "into": {},
	"over": {}, "some": {}, "only": {}, "also": {}, "just": {},
	"other": {}, "these": {}, "those": {}, "such": {}, "very": {},
}

// Extractor computes TF-IDF keywords over a set of documents.
type Extractor struct{}

// NewExtractor creates a keyword extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// TopKeywords returns the n highest-scoring terms across texts, ordered by
// score descending. Tokens are lowercased, split on non-word characters, and
// dropped when shorter than three characters or on the stop-word list. Each
// term scores tf * log(N / df), where tf is its total occurrence count, N
// the number of texts, and df the number of texts containing it. Ties keep
// first-encountered-term order, so the output is deterministic.
func (x *Extractor) TopKeywords(texts []string, n int) []string {
	if n <= 0 || len(texts) == 0 {
		return []string{}
	}

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	var order []string // terms in first-encountered order

	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, token := range tokenPattern.Split(strings.ToLower(text), -1) {
			if len(token) <= 2 {
				continue
			}
			if _, stop := stopWords[token]; stop {
				continue
			}
			if termFreq[token] == 0 {
				order = append(order, token)
			}
			termFreq[token]++
			if _, dup := seen[token]; !dup {
				seen[token] = struct{}{}
				docFreq[token]++
			}
		}
	}

	docCount := float64(len(texts))
	scores := make(map[string]float64, len(order))
	for _, term := range order {
		scores[term] = float64(termFreq[term]) * math.Log(docCount/float64(docFreq[term]))
	}

	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if n > len(order) {
		n = len(order)
	}
	return order[:n]
}
