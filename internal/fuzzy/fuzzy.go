// Package fuzzy scores and highlights query/text pairs.
//
// Scores live in [0, 100]: 100 for an exact (case-insensitive) match or an
// empty query, 80+ for substring containment, and an accumulated
// per-character score for scattered subsequence matches. The bonus
// constants are empirically tuned against the hosting application's
// catalog; change them only with ranking data in hand.
package fuzzy

import (
	"strings"
	"unicode"
)

// Scoring carries the tuned weights. DefaultScoring is what every caller
// in this module uses; the struct exists so experiments can override
// individual weights without forking the matcher.
type Scoring struct {
	// SubstringBase is the floor for substring containment.
	SubstringBase float64
	// PrefixBonusMax is the extra credit for a prefix match, scaled by
	// query length over text length.
	PrefixBonusMax float64
	// CharMatch is the base credit per matched subsequence character.
	CharMatch float64
	// ConsecutiveRun multiplies the length of the current adjacent run.
	ConsecutiveRun float64
	// WordBoundary rewards a match at index 0 or after a space, hyphen,
	// or underscore.
	WordBoundary float64
	// CamelCase rewards a matched uppercase character past index 0.
	CamelCase float64
	// MinPartial is the floor for any positive scaled score.
	MinPartial float64
}

// DefaultScoring holds the production weights.
var DefaultScoring = Scoring{
	SubstringBase:  80,
	PrefixBonusMax: 20,
	CharMatch:      10,
	ConsecutiveRun: 2,
	WordBoundary:   5,
	CamelCase:      3,
	MinPartial:     10,
}

// Score rates how well query matches text, from 0 (no match) to 100
// (exact). It never panics: empty inputs degrade to 100 (empty query
// matches everything) or 0 (empty text against a real query).
func Score(query, text string) float64 {
	return DefaultScoring.Score(query, text)
}

// Score rates query against text using this weight set.
func (sc Scoring) Score(query, text string) float64 {
	if query == "" {
		return 100
	}
	if text == "" {
		return 0
	}

	q := strings.ToLower(query)
	t := strings.ToLower(text)
	if q == t {
		return 100
	}

	if strings.Contains(t, q) {
		score := sc.SubstringBase
		if strings.HasPrefix(t, q) {
			score += sc.PrefixBonusMax * float64(len(q)) / float64(len(t))
		}
		return clamp(score)
	}

	return clamp(sc.subsequence(q, t, text))
}

// subsequence walks text left to right, advancing a query cursor on each
// character match and accumulating positional bonuses.
func (sc Scoring) subsequence(q, t, original string) float64 {
	qr := []rune(q)
	tr := []rune(t)
	or := []rune(original)

	var score float64
	matched := 0
	last := -2 // text index of the previous match
	run := 0   // length of the current adjacent run

	for i := 0; i < len(tr) && matched < len(qr); i++ {
		if tr[i] != qr[matched] {
			continue
		}
		score += sc.CharMatch
		if i == last+1 {
			run++
			score += sc.ConsecutiveRun * float64(run)
		} else {
			run = 1
		}
		if i == 0 || isBoundary(tr[i-1]) {
			score += sc.WordBoundary
		}
		if i > 0 && i < len(or) && unicode.IsUpper(or[i]) {
			score += sc.CamelCase
		}
		last = i
		matched++
	}

	if matched == 0 {
		return 0
	}

	// Partial subsequence coverage scales the score down proportionally.
	score *= float64(matched) / float64(len(qr))
	if score > 0 && score < sc.MinPartial {
		score = sc.MinPartial
	}
	return score
}

func isBoundary(r rune) bool {
	return r == ' ' || r == '-' || r == '_'
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Span is one segment of highlighted text. The UI layer decides how
// matched segments are rendered.
type Span struct {
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
}

// Highlight splits text into alternating plain and matched spans by
// greedily consuming query characters in a single left-to-right scan,
// the same order the scorer matches in. It computes no score.
func Highlight(text, query string) []Span {
	if text == "" {
		return nil
	}
	qr := []rune(strings.ToLower(query))

	var spans []Span
	var cur []rune
	curMatched := false
	flush := func() {
		if len(cur) > 0 {
			spans = append(spans, Span{Text: string(cur), Matched: curMatched})
			cur = cur[:0]
		}
	}

	qi := 0
	for _, r := range text {
		m := qi < len(qr) && unicode.ToLower(r) == qr[qi]
		if m {
			qi++
		}
		if m != curMatched {
			flush()
			curMatched = m
		}
		cur = append(cur, r)
	}
	flush()
	return spans
}
