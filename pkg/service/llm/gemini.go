package llm

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
)

// Gemini backs the LanguageModel interface with the Gemini API through
// gollem. Each Complete call runs in a fresh session; conversational
// state lives in the assembled prompt, not in the provider.
type Gemini struct {
	client gollem.LLMClient
}

var _ interfaces.LanguageModel = &Gemini{}

// NewGemini creates a Gemini-backed language model client
func NewGemini(ctx context.Context, projectID, location string) (*Gemini, error) {
	client, err := gemini.New(ctx, projectID, location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client",
			goerr.V("project_id", projectID), goerr.V("location", location))
	}
	return &Gemini{client: client}, nil
}

func (c *Gemini) Complete(ctx context.Context, prompt model.Prompt) (string, error) {
	session, err := c.client.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create Gemini session", goerr.T(types.ErrTagUpstream))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt.Transcript()))
	if err != nil {
		return "", goerr.Wrap(err, "Gemini content generation failed", goerr.T(types.ErrTagUpstream))
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("Gemini returned empty response", goerr.T(types.ErrTagUpstream))
	}

	return strings.Join(resp.Texts, "\n"), nil
}
