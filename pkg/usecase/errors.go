package usecase

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/types"
)

// Sentinel errors for the conversation pipeline. Each carries the tag
// the HTTP layer uses to pick a response.
var (
	ErrInvalidRequest = goerr.New("invalid request",
		goerr.T(types.ErrTagInvalidRequest))

	ErrUpstreamUnavailable = goerr.New("language model unavailable",
		goerr.T(types.ErrTagUpstream))

	ErrContextTooLarge = goerr.New("assembled context exceeds budget",
		goerr.T(types.ErrTagContextTooLarge))
)
