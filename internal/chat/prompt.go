package chat

import (
	"fmt"
	"strings"

	"github.com/halcyon0/halcyon/internal/user"
	"github.com/halcyon0/halcyon/internal/vector"
)

const personaPreamble = `You are a supportive mental well-being assistant. Use the provided context to answer the user's question with warmth and care.
Never give a medical diagnosis and never prescribe or recommend medication.
Keep your answer to at most three sentences.
If the context does not contain the answer, say that you don't know rather than guessing.`

const titlePrompt = `Summarize the following message as a conversation title of 3 to 5 words.
Return only the title, with no quotes and no trailing punctuation.

Message: %s

Title:`

// buildPrompt renders the full completion prompt: persona, retrieved
// context, recent history and the current question.
func buildPrompt(username string, hits []vector.Result, history []user.Exchange, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are speaking with %s.\n\n", username)
	b.WriteString(personaPreamble)
	b.WriteString("\n\nContext:\n")
	if len(hits) == 0 {
		b.WriteString("(no relevant material found)\n")
	}
	for _, hit := range hits {
		b.WriteString(hit.Document.Content)
		b.WriteString("\n---\n")
	}

	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		b.WriteString(renderHistory(history))
	}

	fmt.Fprintf(&b, "\nUser: %s\nAssistant:", question)
	return b.String()
}

// renderHistory formats exchanges as alternating User/Assistant lines
// in insertion order.
func renderHistory(history []user.Exchange) string {
	var b strings.Builder
	for _, ex := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", ex.Question, ex.Answer)
	}
	return b.String()
}
