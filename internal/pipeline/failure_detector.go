package pipeline

import "regexp"

// FailurePattern pairs an inability-to-answer expression with the language
// it covers, so the table can be extended without code changes.
type FailurePattern struct {
	Pattern     *regexp.Regexp
	LanguageTag string
}

// FailureDetector scans generated replies for signals that the persona
// could not answer. A match makes the caller eligible for exactly one
// fallback retrieval cycle.
type FailureDetector struct {
	patterns []FailurePattern
}

// NewFailureDetector builds a detector from the given table; a nil or empty
// table gets the defaults.
func NewFailureDetector(patterns []FailurePattern) *FailureDetector {
	if len(patterns) == 0 {
		patterns = DefaultFailurePatterns()
	}
	return &FailureDetector{patterns: patterns}
}

// Match reports whether the reply signals inability to answer and, if so,
// the language tag of the first matching pattern.
func (d *FailureDetector) Match(reply string) (string, bool) {
	for _, p := range d.patterns {
		if p.Pattern.MatchString(reply) {
			return p.LanguageTag, true
		}
	}
	return "", false
}

// DefaultFailurePatterns covers the inability phrasings seen in generated
// replies across six languages.
func DefaultFailurePatterns() []FailurePattern {
	return []FailurePattern{
		{regexp.MustCompile(`(?i)\bi\s+(don'?t|do\s+not|cannot|can'?t)\s+(know|answer|say|tell)`), "en"},
		{regexp.MustCompile(`(?i)\bi'?m\s+not\s+(sure|certain|familiar)`), "en"},
		{regexp.MustCompile(`(?i)\b(outside|beyond)\s+my\s+(competence|knowledge|expertise)`), "en"},
		{regexp.MustCompile(`(?i)\bi\s+have\s+no\s+(information|knowledge|idea)`), "en"},
		{regexp.MustCompile(`(?i)\bi\s+(don'?t|do\s+not)\s+have\s+(that|this|any|enough)\s+(information|data|knowledge)`), "en"},
		{regexp.MustCompile(`(?i)no\s+(lo\s+)?s[eé]\b`), "es"},
		{regexp.MustCompile(`(?i)no\s+tengo\s+(esa\s+|esta\s+)?informaci[oó]n`), "es"},
		{regexp.MustCompile(`(?i)no\s+puedo\s+responder`), "es"},
		{regexp.MustCompile(`(?i)je\s+ne\s+sais\s+pas`), "fr"},
		{regexp.MustCompile(`(?i)je\s+ne\s+peux\s+pas\s+r[eé]pondre`), "fr"},
		{regexp.MustCompile(`分かりません|わかりません|知りません|存じません|お答えできません`), "ja"},
		{regexp.MustCompile(`我不知道|不清楚|无法回答|我没有这方面的信息`), "zh"},
		{regexp.MustCompile(`모르겠습니다|모르겠어요|답변할 수 없습니다`), "ko"},
	}
}
