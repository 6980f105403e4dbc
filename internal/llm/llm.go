// Package llm adapts the OpenAI API behind small capability
// interfaces so the rest of the code never sees SDK types.
package llm

import "context"

// Client produces a completion for a fully rendered prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
