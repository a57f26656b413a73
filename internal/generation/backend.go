// Package generation produces care plan text through pluggable backends.
package generation

import (
	"context"
	"errors"
	"fmt"
)

const (
	BackendOpenAI = "openai"
	BackendClaude = "claude"
	BackendMock   = "mock"
)

var ErrUnknownBackend = errors.New("unknown generation backend")

type Options struct {
	Temperature float64
	MaxTokens   int
}

// DefaultOptions are the sampling settings used for care plans.
func DefaultOptions() Options {
	return Options{Temperature: 0.7, MaxTokens: 2000}
}

// Backend generates text from a system instruction and a user prompt.
type Backend interface {
	Name() string
	Generate(ctx context.Context, system, user string, opts Options) (string, error)
}

// GenerationError is returned by every backend failure.
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func generationError(backend string, err error) error {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	return &GenerationError{Backend: backend, Err: err}
}
