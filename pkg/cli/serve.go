package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/chatling/chatling/pkg/cli/config"
	httpctrl "github.com/chatling/chatling/pkg/controller/http"
	"github.com/chatling/chatling/pkg/usecase"
	"github.com/chatling/chatling/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var fallbackMessage string
	var summaryThreshold int
	var summaryKeep int
	var contextBudget int
	var repoCfg config.Repository
	var llmCfg config.LLM
	var personaCfg config.Persona

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CHATLING_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "fallback-message",
			Usage:       "Reply sent when the language model is unavailable (empty disables the fallback)",
			Value:       "Oops! I'm having a moment here 😅 Could you try again in a bit?",
			Sources:     cli.EnvVars("CHATLING_FALLBACK_MESSAGE"),
			Destination: &fallbackMessage,
		},
		&cli.IntFlag{
			Name:        "summary-threshold",
			Usage:       "Unsummarized message count that triggers summarization",
			Value:       usecase.DefaultSummaryThreshold,
			Category:    "Memory",
			Sources:     cli.EnvVars("CHATLING_SUMMARY_THRESHOLD"),
			Destination: &summaryThreshold,
		},
		&cli.IntFlag{
			Name:        "summary-keep",
			Usage:       "Raw messages always kept verbatim after summarization",
			Value:       usecase.DefaultSummaryKeep,
			Category:    "Memory",
			Sources:     cli.EnvVars("CHATLING_SUMMARY_KEEP"),
			Destination: &summaryKeep,
		},
		&cli.IntFlag{
			Name:        "context-budget",
			Usage:       "Maximum assembled prompt size in runes",
			Value:       usecase.DefaultContextBudget,
			Category:    "Memory",
			Sources:     cli.EnvVars("CHATLING_CONTEXT_BUDGET"),
			Destination: &contextBudget,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, personaCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize language model client")
			}
			logger.LogAttrs(ctx, slog.LevelInfo, "Language model configured", llmCfg.LogAttrs()...)

			persona, err := personaCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load persona")
			}

			uc, err := usecase.New(repo, llmClient,
				usecase.WithPersona(persona),
				usecase.WithSummaryPolicy(int(summaryThreshold), int(summaryKeep)),
				usecase.WithContextBudget(int(contextBudget)),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}

			httpHandler := httpctrl.New(uc,
				httpctrl.WithFallbackMessage(fallbackMessage),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
