package ocr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"
)

type TextAnalysis struct {
	Sentences []string `json:"sentences"`
	Keywords  []string `json:"keywords"`
	Entities  []string `json:"entities,omitempty"`
}

var nounTags = map[string]bool{"NN": true, "NNS": true, "NNP": true, "NNPS": true}

const maxKeywords = 15

// Analyze splits recognized text into sentences and picks the most frequent
// nouns as keywords.
func Analyze(text string) (*TextAnalysis, error) {
	res := &TextAnalysis{Sentences: []string{}, Keywords: []string{}}
	if strings.TrimSpace(text) == "" {
		return res, nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze text: %w", err)
	}

	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			res.Sentences = append(res.Sentences, t)
		}
	}

	counts := make(map[string]int)
	first := make(map[string]int)
	for i, tok := range doc.Tokens() {
		if !nounTags[tok.Tag] || len(tok.Text) < 3 {
			continue
		}
		word := strings.ToLower(tok.Text)
		if _, seen := first[word]; !seen {
			first[word] = i
		}
		counts[word]++
	}

	for w := range counts {
		res.Keywords = append(res.Keywords, w)
	}
	sort.Slice(res.Keywords, func(i, j int) bool {
		a, b := res.Keywords[i], res.Keywords[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return first[a] < first[b]
	})
	if len(res.Keywords) > maxKeywords {
		res.Keywords = res.Keywords[:maxKeywords]
	}

	for _, e := range doc.Entities() {
		res.Entities = append(res.Entities, e.Text)
	}
	return res, nil
}
