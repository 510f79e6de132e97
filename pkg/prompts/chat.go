package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxNarratedDocuments caps how many result documents are inlined into the
// narration prompt.
const maxNarratedDocuments = 10

// ConversationalReply builds the prompt for non-database turns: greetings,
// small talk, "what can you do".
func ConversationalReply(userText string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a friendly college AI assistant. The user said: ")
	fmt.Fprintf(&prompt, "%q\n\n", userText)
	prompt.WriteString("Respond warmly and naturally. If it's a greeting, greet them and briefly mention what you can help with.\n\n")
	prompt.WriteString("You can help with:\n")
	prompt.WriteString("- Finding students by name, ID, stream, or semester\n")
	prompt.WriteString("- Viewing subjects for different streams and semesters\n")
	prompt.WriteString("- Generating detailed attendance reports for students\n")
	prompt.WriteString("- Checking attendance records for specific dates\n")
	prompt.WriteString("- Getting statistics about students, teachers, and subjects\n")
	prompt.WriteString("- Viewing teacher information and their subjects\n\n")
	prompt.WriteString("Keep your response brief, friendly, and helpful (2-3 sentences max).\n")
	prompt.WriteString("DO NOT use emojis - use simple text only.\n")

	return prompt.String()
}

// Narration builds the prompt that turns a small result set into prose.
// results must already be JSON-serializable documents.
func Narration(userText string, results []map[string]any, explanation string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a helpful college assistant. Answer the user's question using ONLY the data below.\n\n")
	fmt.Fprintf(&prompt, "User question: %q\n", userText)
	if explanation != "" {
		fmt.Fprintf(&prompt, "Query interpretation: %s\n", explanation)
	}
	prompt.WriteString("\nData:\n")

	shown := results
	truncated := 0
	if len(shown) > maxNarratedDocuments {
		truncated = len(shown) - maxNarratedDocuments
		shown = shown[:maxNarratedDocuments]
	}
	for _, doc := range shown {
		encoded, err := json.Marshal(doc)
		if err != nil {
			continue
		}
		prompt.Write(encoded)
		prompt.WriteByte('\n')
	}
	if truncated > 0 {
		fmt.Fprintf(&prompt, "(and %d more records)\n", truncated)
	}

	prompt.WriteString("\nWrite a clear, concise answer in plain text. Mention names and numbers from the data.\n")
	prompt.WriteString("Do not invent values that are not in the data. No emojis.\n")

	return prompt.String()
}
