package classifier

import (
	"math"
	"strings"
	"unicode"

	"finadvisor/internal/domain/advice"
	"finadvisor/pkg/logger"
)

const (
	// WordWeight is the score each word of a matched trigger contributes, so
	// "roth conversion" (1.0) outranks a lone "tax" (0.5)
	WordWeight = 0.5

	// MinScore is the lowest score that selects an intent; below it the
	// question is classified GENERAL with zero confidence
	MinScore = 0.5

	// ConfidenceScale is the score that maps to full confidence
	ConfidenceScale = 3.0
)

type trigger struct {
	phrase string
	weight float64
	token  bool
}

type compiledIntent struct {
	intent   advice.Intent
	triggers []trigger
}

// Classifier scores a question against one domain's keyword table. It holds
// no mutable state and is safe for concurrent use.
type Classifier struct {
	domain  advice.Domain
	intents []compiledIntent
	log     *logger.Logger
}

// New compiles a keyword table
func New(table Table) *Classifier {
	c := &Classifier{
		domain:  table.Domain,
		intents: make([]compiledIntent, 0, len(table.Entries)),
		log:     logger.Get().With("component", "classifier", "domain", table.Domain),
	}
	for _, entry := range table.Entries {
		ci := compiledIntent{intent: entry.Intent}
		for _, raw := range entry.Triggers {
			if t, ok := compileTrigger(raw); ok {
				ci.triggers = append(ci.triggers, t)
			}
		}
		c.intents = append(c.intents, ci)
	}
	return c
}

// NewForDomain builds a classifier from the built-in table
func NewForDomain(d advice.Domain) (*Classifier, bool) {
	table, ok := TableFor(d)
	if !ok {
		return nil, false
	}
	return New(table), true
}

// Domain returns the domain this classifier was built for
func (c *Classifier) Domain() advice.Domain {
	return c.domain
}

// Classify never fails. Ties on score go to the intent listed first in the table.
func (c *Classifier) Classify(question string) advice.ClassificationResult {
	text := normalize(question)
	tokens := tokenize(text)

	result := advice.ClassificationResult{
		Domain:          c.domain,
		Intent:          advice.IntentGeneral,
		MatchedKeywords: []string{},
		Entities:        ExtractEntities(text, tokens),
		Question:        question,
	}

	bestScore := 0.0
	var bestMatches []string
	best := -1
	for i, ci := range c.intents {
		score, matches := ci.score(text, tokens)
		if score > bestScore {
			best, bestScore, bestMatches = i, score, matches
		}
	}

	if best >= 0 && bestScore >= MinScore {
		result.Intent = c.intents[best].intent
		result.Score = bestScore
		result.Confidence = math.Min(bestScore/ConfidenceScale, 1)
		result.MatchedKeywords = bestMatches
	}

	c.log.Debugw("Classified question",
		"intent", result.Intent,
		"confidence", result.Confidence,
		"matched_keywords", result.MatchedKeywords,
	)
	return result
}

func (ci compiledIntent) score(text string, tokens map[string]bool) (float64, []string) {
	var score float64
	var matches []string
	for _, t := range ci.triggers {
		if t.matches(text, tokens) {
			score += t.weight
			matches = append(matches, t.phrase)
		}
	}
	return score, matches
}

func compileTrigger(raw string) (trigger, bool) {
	phrase := normalize(raw)
	if phrase == "" {
		return trigger{}, false
	}
	words := len(strings.Fields(phrase))
	return trigger{
		phrase: phrase,
		weight: WordWeight * float64(words),
		token:  words == 1 && isWord(phrase),
	}, true
}

func (t trigger) matches(text string, tokens map[string]bool) bool {
	if t.token {
		return tokens[t.phrase]
	}
	return containsPhrase(text, t.phrase)
}

// normalize lower-cases and collapses whitespace
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isWord(s string) bool {
	for _, r := range s {
		if !isWordRune(r) {
			return false
		}
	}
	return true
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, f := range strings.FieldsFunc(text, func(r rune) bool { return !isWordRune(r) }) {
		tokens[f] = true
	}
	return tokens
}

// containsPhrase finds phrase in text without matching inside a longer word
func containsPhrase(text, phrase string) bool {
	for offset := 0; offset <= len(text)-len(phrase); {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		if boundary(text, start-1, phrase[0]) && boundary(text, end, phrase[len(phrase)-1]) {
			return true
		}
		offset = start + 1
	}
	return false
}

// boundary checks that the byte at pos does not continue the word at the
// phrase edge; punctuation edges never need a boundary
func boundary(text string, pos int, edge byte) bool {
	if pos < 0 || pos >= len(text) {
		return true
	}
	if !isWordRune(rune(edge)) {
		return true
	}
	return !isWordRune(rune(text[pos]))
}
