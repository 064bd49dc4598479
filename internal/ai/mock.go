package ai

import (
	"context"
	"io"
)

// Mock is a local fallback provider used when OpenAI is not configured.
// Transcripts, replies, and audio are deterministic placeholders.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Transcribe(_ context.Context, audio io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, audio); err != nil {
		return "", err
	}
	return "simulated candidate answer", nil
}

func (m *Mock) Chat(_ context.Context, message string) (string, error) {
	return "Let's work on that. What part of \"" + message + "\" feels hardest to you?", nil
}

func (m *Mock) Respond(_ context.Context, question, _ string) (string, error) {
	if question == "" {
		return "Thanks for your answer. Could you expand on that with a concrete example?", nil
	}
	return "Thanks for your answer to \"" + question + "\". Could you expand on that with a concrete example?", nil
}

func (m *Mock) Synthesize(_ context.Context, text string) ([]byte, error) {
	return []byte(text), nil
}

func (m *Mock) GenerateFeedback(_ context.Context, _, _ string, _ int) Feedback {
	return DefaultFeedback()
}
