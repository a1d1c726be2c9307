package search

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Minimal stopwords for filtering noise
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"in": true, "on": true, "to": true, "for": true, "by": true, "with": true,
	"at": true, "from": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "it": true, "its": true,
	"what": true, "who": true, "how": true, "about": true,
}

// TopByKeyword scores results by query-token overlap (title hits weighted
// double, plus a full-phrase bonus, length-normalized) and returns the n
// best. The chosen results keep their original source order so rank
// information survives the cut.
func TopByKeyword(query string, results []Result, n int) []Result {
	if n <= 0 || len(results) == 0 {
		return []Result{}
	}
	if len(results) <= n {
		out := make([]Result, len(results))
		copy(out, results)
		return out
	}

	qTokens := queryTokens(query)
	if len(qTokens) == 0 {
		out := make([]Result, n)
		copy(out, results[:n])
		return out
	}

	type scored struct {
		idx   int
		score int
	}
	scoredList := make([]scored, 0, len(results))

	fullPhrase := strings.Join(qTokens, " ")
	for i, r := range results {
		title := strings.ToLower(r.Title)
		snippet := strings.ToLower(r.Snippet)

		titleHits := 0
		snippetHits := 0
		for _, tok := range qTokens {
			if strings.Contains(title, tok) {
				titleHits++
			}
			if strings.Contains(snippet, tok) {
				snippetHits++
			}
		}

		phraseBonus := 0
		if strings.Contains(title, fullPhrase) {
			phraseBonus += 2
		} else if strings.Contains(snippet, fullPhrase) {
			phraseBonus++
		}

		score := titleHits*2 + snippetHits + phraseBonus
		// Normalize by document length to avoid bias toward longer snippets
		textLen := float64(len(title) + len(snippet) + 10)
		normalized := float64(score) / math.Log(textLen)
		scoredList = append(scoredList, scored{idx: i, score: int(normalized * 100)})
	}

	sort.SliceStable(scoredList, func(i, j int) bool {
		return scoredList[i].score > scoredList[j].score
	})

	chosen := make([]int, 0, n)
	for i := 0; i < n && i < len(scoredList); i++ {
		chosen = append(chosen, scoredList[i].idx)
	}
	sort.Ints(chosen)

	out := make([]Result, 0, len(chosen))
	for _, idx := range chosen {
		out = append(out, results[idx])
	}
	return out
}

func queryTokens(query string) []string {
	tokens := tokenRe.FindAllString(strings.ToLower(strings.TrimSpace(query)), -1)
	var kept []string
	for _, t := range tokens {
		if !stopwords[t] && len(t) > 1 {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return tokens
	}
	return kept
}
