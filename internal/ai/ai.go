package ai

import (
	"context"
	"errors"
)

var (
	// ErrQuotaExceeded indicates the completion provider rejected the call
	// because of rate or quota limits. Callers may back off and retry.
	ErrQuotaExceeded = errors.New("completion quota exceeded")
	// ErrEmptyResponse indicates the provider answered without any usable text.
	ErrEmptyResponse = errors.New("completion returned empty response")
)

// Generator is the text-completion capability the procurement pipeline
// depends on. Implementations wrap a concrete provider; tests use stubs.
type Generator interface {
	// GenerateContent sends the prompt and returns the generated text.
	GenerateContent(ctx context.Context, prompt string) (string, error)
	// GenerateJSON sends the prompt requesting strict structured (JSON)
	// output. The returned text is still unvalidated provider output.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}
