package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/carevista/carevista/internal/platform/apperr"
)

// The assistant structures patient-reported information and nothing else.
// It must never name conditions, suggest causes, or recommend treatment;
// the doctor is the sole clinical authority.
const summarySystemPrompt = `You are a medical information organizer for a rural telemedicine platform.

Your ONLY role is to:
1. Structure patient-reported symptoms into a clear, organized format
2. Summarize what the patient described in their own words
3. Extract timeline information if mentioned

YOU MUST NEVER:
- Name or suggest any disease or condition
- Suggest any cause for symptoms
- Recommend any treatment, medication, or remedy
- Give any medical advice whatsoever
- Provide probabilities or diagnoses
- Speculate about what might be wrong
- Suggest when to see a doctor (that decision is already made)

OUTPUT FORMAT (JSON only, no extra text):
{
  "chiefComplaint": "Brief description of main issue in patient's words",
  "symptomTimeline": "When symptoms started and any progression",
  "severity": "Patient's own description of how severe it feels",
  "pastHistory": "Only if patient mentioned relevant history and consented",
  "additionalNotes": "Any other details patient mentioned"
}

Remember: You are ONLY organizing information, NOT providing medical assessment.`

// Summary is the structured, non-clinical intake summary produced from a
// patient transcript. ChiefComplaint is mandatory; a response without it
// counts as a provider failure.
type Summary struct {
	ChiefComplaint  string `json:"chiefComplaint"`
	SymptomTimeline string `json:"symptomTimeline,omitempty"`
	Severity        string `json:"severity,omitempty"`
	PastHistory     string `json:"pastHistory,omitempty"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`
}

// SummaryResult carries either a structured summary or, when every
// provider failed, the raw transcript with AIFailed set. The doctor
// always gets something to read.
type SummaryResult struct {
	Summary       *Summary `json:"summary,omitempty"`
	Provider      string   `json:"ai_provider,omitempty"`
	AIFailed      bool     `json:"ai_failed"`
	RawTranscript string   `json:"raw_transcript,omitempty"`
}

// Completer is a single chat-completion backend.
type Completer interface {
	Name() string
	Complete(ctx context.Context, system, user string, jsonOnly bool) (string, error)
}

// ChatClient talks to an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	http   *resty.Client
	name   string
	model  string
	logger zerolog.Logger
}

func NewChatClient(name, baseURL, apiKey, model string, timeout time.Duration, logger zerolog.Logger) *ChatClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &ChatClient{
		http:   client,
		name:   name,
		model:  model,
		logger: logger.With().Str("llm", name).Logger(),
	}
}

func (c *ChatClient) Name() string { return c.name }

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *ChatClient) Complete(ctx context.Context, system, user string, jsonOnly bool) (string, error) {
	req := chatRequest{
		Model:       c.model,
		Temperature: 0.3,
		MaxTokens:   500,
	}
	if system != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: system})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: user})
	if jsonOnly {
		req.ResponseFormat = &respFormat{Type: "json_object"}
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("call %s: %w", c.name, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%s returned status %d", c.name, resp.StatusCode())
	}
	if out.Error != nil {
		return "", fmt.Errorf("%s error: %s", c.name, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.name)
	}
	return out.Choices[0].Message.Content, nil
}

// Orchestrator runs completions against the primary backend and fails over
// to the secondary. Summarization degrades to the raw transcript when both
// are down; it never blocks intake.
type Orchestrator struct {
	chain  []Completer
	logger zerolog.Logger
}

func NewOrchestrator(logger zerolog.Logger, completers ...Completer) *Orchestrator {
	chain := make([]Completer, 0, len(completers))
	for _, c := range completers {
		if c != nil {
			chain = append(chain, c)
		}
	}
	return &Orchestrator{chain: chain, logger: logger}
}

// Summarize produces a structured summary of the transcript, trying each
// backend in order. All backends failing is not an error: the result
// carries the raw transcript with AIFailed set.
func (o *Orchestrator) Summarize(ctx context.Context, transcript string) (*SummaryResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, apperr.Validation("transcript must not be empty")
	}

	userPrompt := fmt.Sprintf(`Patient said:
"""
%s
"""

Organize this into the structured format. Remember: ONLY organize, do NOT diagnose or advise.`, transcript)

	for _, c := range o.chain {
		content, err := c.Complete(ctx, summarySystemPrompt, userPrompt, true)
		if err != nil {
			o.logger.Warn().Err(err).Str("provider", c.Name()).Msg("summary provider failed")
			continue
		}
		summary, err := parseSummary(content)
		if err != nil {
			o.logger.Warn().Err(err).Str("provider", c.Name()).Msg("summary response unusable")
			continue
		}
		return &SummaryResult{Summary: summary, Provider: c.Name()}, nil
	}

	o.logger.Error().Msg("all summary providers failed, returning raw transcript")
	return &SummaryResult{AIFailed: true, RawTranscript: transcript}, nil
}

func parseSummary(content string) (*Summary, error) {
	var s Summary
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return nil, fmt.Errorf("parse summary JSON: %w", err)
	}
	if strings.TrimSpace(s.ChiefComplaint) == "" {
		return nil, fmt.Errorf("summary missing chiefComplaint")
	}
	return &s, nil
}

// Translate renders text into the target language. Unlike Summarize there
// is no degraded result; callers decide what to do when it errors.
func (o *Orchestrator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == targetLang {
		return text, nil
	}

	prompt := fmt.Sprintf(`Translate the following text from %s to %s.
Only output the translation, nothing else.

Text:
%s`, sourceLang, targetLang, text)

	for _, c := range o.chain {
		content, err := c.Complete(ctx, "", prompt, false)
		if err != nil {
			o.logger.Warn().Err(err).Str("provider", c.Name()).Msg("translation provider failed")
			continue
		}
		if translated := strings.TrimSpace(content); translated != "" {
			return translated, nil
		}
	}
	return "", apperr.Provider("translation unavailable")
}
