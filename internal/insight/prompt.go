// ABOUTME: Builds the companion prompt sent to the language model.
// ABOUTME: Includes at most the ten most recent entries, each prefixed with its date.
package insight

import (
	"strings"

	"github.com/2389-research/jotter/internal/models"
)

// MaxPromptEntries caps how many entries are sent with one request.
const MaxPromptEntries = 10

const companionPrompt = `You are a compassionate, insightful therapy assistant. Analyze the user's recent journal entries.
1. Identify the core emotional themes (e.g., "Anxiety about future", "Gratitude for small things").
2. Spot patterns in their thinking (e.g., "You tend to catastrophize when tired").
3. Provide one actionable, gentle suggestion for the next week.
4. Keep the tone warm, safe, and encouraging.
5. Format with bold headings and bullet points.

Here are my recent journal entries:

`

// BuildPrompt renders entries, newest first as stored, into the request prompt.
func BuildPrompt(entries []models.Entry) string {
	if len(entries) > MaxPromptEntries {
		entries = entries[:MaxPromptEntries]
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, "["+e.Timestamp.UTC().Format("2006-01-02")+"]: "+e.Text)
	}
	return companionPrompt + strings.Join(parts, "\n\n")
}
