package emotion

import "strings"

// Label is the coarse emotion tag attached to a chat exchange.
type Label string

const (
	Sad      Label = "sad"
	Anxious  Label = "anxious"
	Stressed Label = "stressed"
	Neutral  Label = "neutral"
)

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	switch l {
	case Sad, Anxious, Stressed, Neutral:
		return true
	default:
		return false
	}
}

type bucket struct {
	label    Label
	keywords []string
}

// Order matters: the first bucket with a hit wins, so "stressed" and
// "overwhelmed" resolve to Anxious even though Stressed lists them too.
var keywordBuckets = []bucket{
	{Sad, []string{"sad", "depressed", "lonely", "hopeless", "down", "blue", "unhappy", "miserable"}},
	{Anxious, []string{"anxious", "nervous", "worried", "stressed", "panic", "fear", "scared", "overwhelmed"}},
	{Stressed, []string{"stressed", "overwhelmed", "pressure", "deadline", "exam", "assignment", "burnout"}},
}

// Detect returns the first label whose keywords occur in text, or Neutral.
func Detect(text string) Label {
	normalized := strings.ToLower(text)
	if strings.TrimSpace(normalized) == "" {
		return Neutral
	}

	for _, b := range keywordBuckets {
		for _, word := range b.keywords {
			if strings.Contains(normalized, word) {
				return b.label
			}
		}
	}
	return Neutral
}
