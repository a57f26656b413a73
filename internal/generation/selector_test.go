package generation

import (
	"context"
	"errors"
	"testing"

	"careplan-service/config"
	"careplan-service/internal/testutil"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	calls int
}

func (b *failingBackend) Name() string { return "flaky" }

func (b *failingBackend) Generate(ctx context.Context, system, user string, opts Options) (string, error) {
	b.calls++
	return "", errors.New("vendor down")
}

func TestSelector_MockOverrideWins(t *testing.T) {
	s := NewSelector(config.LLMConfig{Provider: "openai", UseMock: true}, testutil.NewLogger())

	for _, hint := range []string{"", "claude", "openai", "nonexistent"} {
		b, err := s.Resolve(hint)
		require.NoError(t, err)
		assert.Equal(t, BackendMock, b.Name(), hint)
		assert.True(t, s.Supports(hint), hint)
	}
}

func TestSelector_HintThenDefault(t *testing.T) {
	s := NewSelector(config.LLMConfig{Provider: "Claude"}, testutil.NewLogger())

	b, err := s.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, BackendClaude, b.Name())

	b, err = s.Resolve(" OPENAI ")
	require.NoError(t, err)
	assert.Equal(t, BackendOpenAI, b.Name())

	again, err := s.Resolve("openai")
	require.NoError(t, err)
	assert.Same(t, b, again, "instances are cached")
}

func TestSelector_UnknownBackend(t *testing.T) {
	s := NewSelector(config.LLMConfig{}, testutil.NewLogger())

	_, err := s.Resolve("gemini")
	assert.ErrorIs(t, err, ErrUnknownBackend)
	assert.False(t, s.Supports("gemini"))
	assert.True(t, s.Supports(""))
	assert.True(t, s.Supports("Mock"))
	assert.Equal(t, []string{"claude", "mock", "openai"}, s.Known())
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	flaky := &failingBackend{}
	s := NewSelector(config.LLMConfig{Provider: "flaky"}, testutil.NewLogger())
	s.Register("flaky", func() Backend { return withBreaker(flaky, testutil.NewLogger()) })

	b, err := s.Resolve("")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := b.Generate(context.Background(), "s", "u", DefaultOptions())
		require.Error(t, err)
	}

	_, err = b.Generate(context.Background(), "s", "u", DefaultOptions())
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, flaky.calls, "open breaker does not call the vendor")
}
