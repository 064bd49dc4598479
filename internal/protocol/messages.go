package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants on the realtime
// transcription channel.
type MessageType string

// Inbound types.
const (
	TypeAuth         MessageType = "auth"
	TypeSessionStart MessageType = "session_start"
	TypeAudioURI     MessageType = "audio_uri"
)

// Outbound types.
const (
	TypeAuthSuccess MessageType = "auth_success"
	TypeTranscript  MessageType = "transcript"
	TypeAIAudioURL  MessageType = "ai_audio_url"
	TypeError       MessageType = "error"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// Auth must be the first message on a connection.
type Auth struct {
	Type  MessageType `json:"type"`
	Token string      `json:"token"`
}

// SessionStart stores the interview question for the rest of the connection.
type SessionStart struct {
	Type     MessageType `json:"type"`
	Question string      `json:"question"`
}

// AudioURI points at a recorded answer already uploaded to object storage.
type AudioURI struct {
	Type      MessageType `json:"type"`
	Key       string      `json:"key"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

type AuthSuccess struct {
	Type MessageType `json:"type"`
}

type Transcript struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

// AIAudioURL carries a time-limited fetch URL for a synthesized reply plus
// the text it was rendered from.
type AIAudioURL struct {
	Type MessageType `json:"type"`
	URL  string      `json:"url"`
	Text string      `json:"text"`
}

type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// ParseClientMessage decodes a raw inbound frame into its typed variant.
// Unknown type tags return ErrUnsupportedType so the caller can ignore them
// without treating the frame as malformed.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeAuth:
		var msg Auth
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Token == "" {
			return nil, errors.New("invalid auth: token missing")
		}
		return msg, nil
	case TypeSessionStart:
		var msg SessionStart
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Question == "" {
			return nil, errors.New("invalid session_start: question missing")
		}
		return msg, nil
	case TypeAudioURI:
		var msg AudioURI
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Key == "" {
			return nil, errors.New("invalid audio_uri: key missing")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
