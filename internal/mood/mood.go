// ABOUTME: Keyword-based mood classifier for journal entry text.
// ABOUTME: Negative keywords take priority over positive ones when both appear.
package mood

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/2389-research/jotter/internal/models"
)

// Keyword sets list inflected forms explicitly; matching is on whole words.
var positiveWords = wordSet(
	"happy", "happier", "happiest", "happily", "happiness",
	"great", "greatest", "good", "better", "best",
	"excited", "exciting", "excitement",
	"love", "loved", "loves", "loving", "lovely",
	"joy", "joys", "joyful", "joyous",
	"wonderful", "grateful", "gratitude", "thankful", "proud",
	"calm", "calmer", "hopeful", "glad",
)

var negativeWords = wordSet(
	"sad", "sadder", "saddest", "sadly", "sadness",
	"anxious", "anxiously", "anxiety", "anxieties",
	"tired", "tiring", "tiredness", "exhausted",
	"hurt", "hurts", "hurting", "hurtful",
	"bad", "worse", "worst",
	"stress", "stressed", "stresses", "stressing", "stressful",
	"difficult", "difficulty", "difficulties",
	"angry", "anger", "angrily",
	"lonely", "loneliness", "worried", "worry", "worrying",
	"overwhelmed", "overwhelming", "afraid",
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Classify maps entry text to a mood tag by keyword membership.
func Classify(text string) models.Mood {
	folded := cases.Fold().String(text)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	var hasPositive, hasNegative bool
	for _, w := range words {
		if _, ok := negativeWords[w]; ok {
			hasNegative = true
		}
		if _, ok := positiveWords[w]; ok {
			hasPositive = true
		}
	}

	switch {
	case hasPositive && !hasNegative:
		return models.MoodPositive
	case hasNegative:
		return models.MoodReflective
	default:
		return models.MoodNeutral
	}
}
