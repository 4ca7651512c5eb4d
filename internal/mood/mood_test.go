// ABOUTME: Tests for the keyword mood classifier.
// ABOUTME: Covers each mood, the negative-priority tie-break, and word boundaries.
package mood

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/2389-research/jotter/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want models.Mood
	}{
		{"I am happy and grateful today", models.MoodPositive},
		{"I feel anxious and tired", models.MoodReflective},
		{"The weather is mild", models.MoodNeutral},
		{"happy but also anxious", models.MoodReflective},
		{"HAPPY!!!", models.MoodPositive},
		{"Stressed, but it was a GOOD day.", models.MoodReflective},
		{"", models.MoodNeutral},
		{"   ", models.MoodNeutral},
		{"so much sadness lately", models.MoodReflective},
		{"Difficulties at work again", models.MoodReflective},
		{"stressing about the move", models.MoodReflective},
		{"Loving the new routine", models.MoodPositive},
		// substrings of keywords inside other words do not count
		{"badminton at the goodwill store", models.MoodNeutral},
		{"Crusade planning", models.MoodNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassifyAlwaysReturnsValidMood(t *testing.T) {
	for _, text := range []string{"ß", "日本語のテキスト", "😀 love it", "\x00\xff"} {
		assert.True(t, Classify(text).IsValid(), "Classify(%q)", text)
	}
}
