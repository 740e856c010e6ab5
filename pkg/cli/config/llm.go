package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/service/llm"
)

// LLM holds CLI flags for the language model client
type LLM struct {
	backend        string
	endpoint       string
	apiKey         string
	model          string
	geminiProject  string
	geminiLocation string
}

// Flags returns CLI flags for language model configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-backend",
			Usage:       "Language model backend (openrouter or gemini)",
			Value:       "openrouter",
			Category:    "Language model",
			Sources:     cli.EnvVars("CHATLING_LLM_BACKEND"),
			Destination: &l.backend,
		},
		&cli.StringFlag{
			Name:        "llm-endpoint",
			Usage:       "Chat completion endpoint URL (openrouter backend)",
			Value:       "https://openrouter.ai/api/v1",
			Category:    "Language model",
			Sources:     cli.EnvVars("CHATLING_LLM_ENDPOINT"),
			Destination: &l.endpoint,
		},
		&cli.StringFlag{
			Name:        "llm-api-key",
			Usage:       "API key for the chat completion endpoint (openrouter backend)",
			Category:    "Language model",
			Sources:     cli.EnvVars("CHATLING_LLM_API_KEY"),
			Destination: &l.apiKey,
		},
		&cli.StringFlag{
			Name:        "llm-model",
			Usage:       "Completion model identifier (openrouter backend)",
			Category:    "Language model",
			Sources:     cli.EnvVars("CHATLING_LLM_MODEL"),
			Destination: &l.model,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID (gemini backend)",
			Category:    "Language model",
			Sources:     cli.EnvVars("CHATLING_GEMINI_PROJECT"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location (gemini backend)",
			Value:       "us-central1",
			Category:    "Language model",
			Sources:     cli.EnvVars("CHATLING_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
	}
}

// LogAttrs returns log attributes for the LLM configuration. The API
// key is deliberately omitted.
func (l *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("backend", l.backend),
		slog.String("endpoint", l.endpoint),
		slog.String("model", l.model),
	}
}

// Configure creates the language model client from the configured flags
func (l *LLM) Configure(ctx context.Context) (interfaces.LanguageModel, error) {
	switch l.backend {
	case "openrouter":
		var opts []llm.OpenRouterOption
		if l.model != "" {
			opts = append(opts, llm.WithModel(l.model))
		}
		client, err := llm.NewOpenRouter(l.endpoint, l.apiKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create openrouter client")
		}
		return client, nil

	case "gemini":
		if l.geminiProject == "" {
			return nil, goerr.New("gemini-project is required when using gemini backend")
		}
		client, err := llm.NewGemini(ctx, l.geminiProject, l.geminiLocation)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create gemini client")
		}
		return client, nil

	default:
		return nil, goerr.New("invalid llm backend", goerr.V("backend", l.backend))
	}
}
