// Package safety screens chat messages for crisis language.
package safety

import "strings"

// Reason is recorded on every flagged message.
const Reason = "self-harm or crisis keywords detected"

// Substring matching only: negations such as "I will not kill myself" still
// flag, and "die" also matches words like "diet".
var crisisKeywords = []string{
	"suicide",
	"kill myself",
	"end my life",
	"self-harm",
	"cutting",
	"overdose",
	"hurt myself",
	"die",
	"death",
	"crisis",
	"emergency",
	"help me",
	"i can't take it anymore",
}

// Verdict is the outcome of screening one message.
type Verdict struct {
	Flagged bool
	Keyword string
}

// Check reports whether message contains any crisis keyword.
func Check(message string) Verdict {
	lower := strings.ToLower(message)
	for _, keyword := range crisisKeywords {
		if strings.Contains(lower, keyword) {
			return Verdict{Flagged: true, Keyword: keyword}
		}
	}
	return Verdict{}
}
