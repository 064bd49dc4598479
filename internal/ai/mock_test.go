package ai

import (
	"context"
	"strings"
	"testing"
)

func TestMockTranscribeDrainsReader(t *testing.T) {
	m := NewMock()

	text, err := m.Transcribe(context.Background(), strings.NewReader("pcm"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text == "" {
		t.Fatalf("Transcribe() = empty transcript")
	}
}

func TestMockRespondReferencesQuestion(t *testing.T) {
	m := NewMock()

	reply, err := m.Respond(context.Background(), "Why Go?", "Because of goroutines.")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !strings.Contains(reply, "Why Go?") {
		t.Fatalf("Respond() = %q, want question embedded", reply)
	}

	generic, err := m.Respond(context.Background(), "", "An answer.")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if generic == "" {
		t.Fatalf("Respond() with no question = empty")
	}
}

func TestMockChatEchoesMessage(t *testing.T) {
	m := NewMock()

	reply, err := m.Chat(context.Background(), "How should I prepare?")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !strings.Contains(reply, "How should I prepare?") {
		t.Fatalf("Chat() = %q, want message embedded", reply)
	}
}

func TestMockSynthesizeEchoesText(t *testing.T) {
	m := NewMock()

	audio, err := m.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(audio) == 0 {
		t.Fatalf("Synthesize() = empty audio")
	}
}

func TestDefaultFeedbackIsComplete(t *testing.T) {
	fb := DefaultFeedback()

	if fb.OverallScore != 70.0 {
		t.Fatalf("OverallScore = %v, want 70", fb.OverallScore)
	}
	if len(fb.Strengths) == 0 || len(fb.Improvements) == 0 {
		t.Fatalf("DefaultFeedback() missing lists: %+v", fb)
	}
	if fb.DetailedFeedback == "" {
		t.Fatalf("DetailedFeedback empty")
	}
}

func TestMockGenerateFeedbackFallsBackToDefault(t *testing.T) {
	m := NewMock()

	fb := m.GenerateFeedback(context.Background(), "Q", "T", 60)
	if fb.OverallScore != DefaultFeedback().OverallScore {
		t.Fatalf("GenerateFeedback() = %+v, want defaults", fb)
	}
}
