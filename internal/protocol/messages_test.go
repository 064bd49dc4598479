package protocol

import (
	"errors"
	"testing"
)

func TestParseClientMessageAuth(t *testing.T) {
	raw := []byte(`{"type":"auth","token":"abc.def.ghi"}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	auth, ok := msg.(Auth)
	if !ok {
		t.Fatalf("message type = %T, want Auth", msg)
	}
	if auth.Token != "abc.def.ghi" {
		t.Fatalf("Token = %q, want %q", auth.Token, "abc.def.ghi")
	}
}

func TestParseClientMessageSessionStart(t *testing.T) {
	raw := []byte(`{"type":"session_start","question":"Tell me about a time you disagreed with a teammate."}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	start, ok := msg.(SessionStart)
	if !ok {
		t.Fatalf("message type = %T, want SessionStart", msg)
	}
	if start.Question == "" {
		t.Fatalf("unexpected session start: %+v", start)
	}
}

func TestParseClientMessageAudioURI(t *testing.T) {
	raw := []byte(`{"type":"audio_uri","key":"uploads/u1/answer.m4a","timestamp":1712000000123}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	audio, ok := msg.(AudioURI)
	if !ok {
		t.Fatalf("message type = %T, want AudioURI", msg)
	}
	if audio.Key != "uploads/u1/answer.m4a" {
		t.Fatalf("Key = %q, want %q", audio.Key, "uploads/u1/answer.m4a")
	}
	if audio.Timestamp != 1712000000123 {
		t.Fatalf("Timestamp = %d, want %d", audio.Timestamp, 1712000000123)
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageRejectsMalformedJSON(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":`))
	if err == nil {
		t.Fatalf("ParseClientMessage() error = nil, want non-nil")
	}
	if errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want a decode error, not ErrUnsupportedType", err)
	}
}

func TestParseClientMessageRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"auth without token", `{"type":"auth"}`},
		{"session_start without question", `{"type":"session_start"}`},
		{"audio_uri without key", `{"type":"audio_uri","timestamp":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseClientMessage([]byte(tc.raw)); err == nil {
				t.Fatalf("ParseClientMessage(%s) error = nil, want validation error", tc.raw)
			}
		})
	}
}
