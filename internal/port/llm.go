package port

import "context"

// ChatCompleter produces a completion from a system and user prompt.
type ChatCompleter interface {
	// Complete sends the prompts to the given model and returns its text.
	// An empty model selects the provider's configured default.
	Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error)
}
