package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures so the HTTP layer can pick a response
// without inspecting error messages.
var (
	// ErrTagInvalidRequest marks malformed inbound payloads (4xx, not retried)
	ErrTagInvalidRequest = goerr.NewTag("invalid_request")

	// ErrTagStorage marks persistence layer failures (5xx)
	ErrTagStorage = goerr.NewTag("storage")

	// ErrTagUpstream marks exhausted language model calls
	ErrTagUpstream = goerr.NewTag("upstream_unavailable")

	// ErrTagContextTooLarge marks prompts that exceed budget even after
	// dropping all droppable tail messages
	ErrTagContextTooLarge = goerr.NewTag("context_too_large")

	// ErrTagSummarization marks best-effort summarization failures.
	// These are logged, never surfaced to the user.
	ErrTagSummarization = goerr.NewTag("summarization")
)
