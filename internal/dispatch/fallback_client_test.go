package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	resp  LLMResponse
	err   error
	calls int
}

func (s *scriptedLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.calls++
	return s.resp, s.err
}

func TestFallbackUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &scriptedLLM{resp: LLMResponse{Text: "primary"}}
	fallback := &scriptedLLM{resp: LLMResponse{Text: "fallback"}}
	client := NewFallbackLLMClient(primary, fallback, slog.Default())

	resp, err := client.Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Text)
	assert.Zero(t, fallback.calls)
}

func TestFallbackKicksInOnPrimaryFailure(t *testing.T) {
	primary := &scriptedLLM{err: errors.New("overloaded")}
	fallback := &scriptedLLM{resp: LLMResponse{Text: "fallback"}}
	client := NewFallbackLLMClient(primary, fallback, slog.Default())

	resp, err := client.Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFallbackReturnsLastErrorWhenBothFail(t *testing.T) {
	primary := &scriptedLLM{err: errors.New("primary down")}
	fallback := &scriptedLLM{err: errors.New("fallback down")}
	client := NewFallbackLLMClient(primary, fallback, slog.Default())

	_, err := client.Complete(context.Background(), LLMRequest{})
	assert.ErrorContains(t, err, "fallback down")
}

func TestFallbackWithoutSecondaryPropagates(t *testing.T) {
	primary := &scriptedLLM{err: errors.New("primary down")}
	client := NewFallbackLLMClient(primary, nil, nil)

	_, err := client.Complete(context.Background(), LLMRequest{})
	assert.ErrorContains(t, err, "primary down")
}
