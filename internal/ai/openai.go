package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const coachSystemPrompt = "You are an experienced interview coach helping users practice for job interviews. " +
	"Provide constructive feedback, ask relevant follow-up questions, and help users " +
	"improve their interview skills. Be supportive but honest in your assessments."

const feedbackSystemPrompt = "You are an expert interview coach. Analyze interview responses and provide " +
	"constructive, actionable feedback."

// Feedback is the structured assessment generated for a completed session.
type Feedback struct {
	OverallScore       float64  `json:"overall_score"`
	CommunicationScore float64  `json:"communication_score"`
	TechnicalScore     float64  `json:"technical_score"`
	ClarityScore       float64  `json:"clarity_score"`
	Strengths          []string `json:"strengths"`
	Improvements       []string `json:"improvements"`
	DetailedFeedback   string   `json:"detailed_feedback"`
}

// Client wraps the OpenAI API for chat, transcription, and speech synthesis.
type Client struct {
	client       openai.Client
	model        string
	whisperModel string
	ttsModel     string
	ttsVoice     string
}

func New(apiKey, model, whisperModel, ttsModel, ttsVoice string) *Client {
	return &Client{
		client:       openai.NewClient(option.WithAPIKey(apiKey)),
		model:        model,
		whisperModel: whisperModel,
		ttsModel:     ttsModel,
		ttsVoice:     ttsVoice,
	}
}

// Transcribe decodes recorded speech to text with Whisper.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(c.whisperModel),
		File:  audio,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	return resp.Text, nil
}

// Chat answers a free-form coaching message outside any interview turn.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(coachSystemPrompt),
			openai.UserMessage(message),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(500),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Respond generates the coach's next-turn reply to a candidate answer.
func (c *Client) Respond(ctx context.Context, question, transcript string) (string, error) {
	user := transcript
	if question != "" {
		user = fmt.Sprintf("Interview question: %s\n\nCandidate's answer: %s\n\n"+
			"React to the answer as the interviewer and ask one follow-up question.", question, transcript)
	}
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(coachSystemPrompt),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(500),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Synthesize renders text to speech, returning encoded audio bytes.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(c.ttsModel),
		Voice: openai.AudioSpeechNewParamsVoice(c.ttsVoice),
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	return audio, nil
}

// GenerateFeedback scores a completed interview answer. API or decode
// failures fall back to a fixed default assessment rather than erroring;
// feedback is advisory and must not fail session completion.
func (c *Client) GenerateFeedback(ctx context.Context, question, transcript string, durationSeconds int) Feedback {
	prompt := fmt.Sprintf(`Analyze this interview response and provide detailed feedback.

Question: %s

Response: %s

Duration: %d seconds

Please provide:
1. An overall score (0-100)
2. Communication score (0-100)
3. Technical score (0-100)
4. Clarity score (0-100)
5. Top 3 strengths
6. Top 3 areas for improvement
7. Detailed feedback paragraph

Format your response as JSON with keys: overall_score, communication_score, technical_score, clarity_score, strengths (array), improvements (array), detailed_feedback (string).`,
		question, transcript, durationSeconds)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(feedbackSystemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0.5),
	})
	if err != nil {
		log.Printf("feedback generation failed: %v", err)
		return DefaultFeedback()
	}
	if len(resp.Choices) == 0 {
		log.Printf("feedback generation returned no choices")
		return DefaultFeedback()
	}

	var fb Feedback
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &fb); err != nil {
		log.Printf("feedback decode failed: %v", err)
		return DefaultFeedback()
	}
	return fb
}

// DefaultFeedback is returned when feedback generation fails.
func DefaultFeedback() Feedback {
	return Feedback{
		OverallScore:       70.0,
		CommunicationScore: 70.0,
		TechnicalScore:     70.0,
		ClarityScore:       70.0,
		Strengths: []string{
			"Attempted to answer the question",
			"Showed engagement",
			"Completed the response",
		},
		Improvements: []string{
			"Provide more specific examples",
			"Structure your response better",
			"Expand on technical details",
		},
		DetailedFeedback: "Your response shows effort. Focus on providing more concrete examples and " +
			"structuring your answers using frameworks like STAR (Situation, Task, Action, Result).",
	}
}
