// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the language-model dependency behind a small client
// interface. Failure modes are kept distinct: a timeout is retry-eligible,
// rate limiting calls for backoff, and an empty or malformed response is a
// contract violation. None of them is ever converted into a refusal answer.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates the model did not respond within the configured
	// timeout. Distinct from a refusal: the system does not know whether the
	// model could have answered.
	ErrTimeout = errors.New("model request timed out")

	// ErrRateLimited indicates the upstream service throttled the request.
	ErrRateLimited = errors.New("model service rate limited")

	// ErrService indicates any other upstream service failure.
	ErrService = errors.New("model service error")

	// ErrEmptyResponse indicates the model returned no usable content.
	ErrEmptyResponse = errors.New("model returned empty response")
)

// Client generates text for a prompt. Implementations must honor ctx for
// cancellation and deadlines and must map failures onto the package's
// sentinel errors so callers can distinguish them.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// serviceError wraps an upstream HTTP failure with its status and body.
func serviceError(status int, body string) error {
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Errorf("%w: status %d: %s", ErrService, status, body)
}
