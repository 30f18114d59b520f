package usecase

import (
	"strings"
	"unicode"
)

// queryShape is orthogonal to intent: it captures whether the phrasing asks
// for one fact or an enumeration of many entities, which drives how much
// retrieved material the synthesizer consumes.
type queryShape int

const (
	shapeFocused queryShape = iota
	shapeList
)

// Trigger words grown out of real query logs; extend as new list phrasings
// show up rather than treating this as final.
var listTriggerWords = map[string]struct{}{
	"list":          {},
	"all":           {},
	"every":         {},
	"comprehensive": {},
	"numbers":       {},
	"past":          {},
	"years":         {},
}

func classifyQueryShape(queryText string) queryShape {
	for _, token := range tokenizeLower(queryText) {
		if _, ok := listTriggerWords[token]; ok {
			return shapeList
		}
	}
	return shapeFocused
}

// Conversational turns are short social messages with no information need;
// they bypass retrieval entirely.
var conversationalOpeners = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "thanks": {}, "thank": {},
	"ok": {}, "okay": {}, "cheers": {}, "great": {}, "awesome": {},
	"cool": {}, "bye": {}, "goodbye": {}, "morning": {}, "good": {},
	"yo": {}, "sure": {}, "yes": {}, "no": {}, "nice": {},
}

func isConversationalTurn(queryText string) bool {
	tokens := tokenizeLower(queryText)
	if len(tokens) == 0 || len(tokens) > 4 {
		return false
	}
	if strings.ContainsRune(queryText, '?') {
		return false
	}
	for _, token := range tokens {
		if _, ok := conversationalOpeners[token]; !ok {
			if token != "you" && token != "there" && token != "a" && token != "lot" && token != "much" {
				return false
			}
		}
	}
	return true
}

func tokenizeLower(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
