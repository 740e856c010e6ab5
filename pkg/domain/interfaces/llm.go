package interfaces

import (
	"context"

	"github.com/chatling/chatling/pkg/domain/model"
)

// LanguageModel is the narrow capability interface for the remote model:
// send an assembled prompt, get a single text completion back. Providers
// are swappable without touching the orchestrator.
type LanguageModel interface {
	Complete(ctx context.Context, prompt model.Prompt) (string, error)
}
