package providers

import (
	"bytes"
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/carevista/carevista/internal/platform/apperr"
)

// whisperLanguages maps spoken-language names to Whisper language codes.
var whisperLanguages = map[string]string{
	"english": "en",
	"tamil":   "ta",
	"hindi":   "hi",
	"telugu":  "te",
}

// SupportedLanguages lists the languages the transcription service accepts.
func SupportedLanguages() []string {
	return []string{"english", "tamil", "hindi", "telugu"}
}

// STTResult is a raw transcription. No interpretation happens here; the
// service returns exactly what the patient said.
type STTResult struct {
	Transcript       string `json:"transcript"`
	DetectedLanguage string `json:"detected_language"`
}

// WhisperClient calls a Whisper transcription service over HTTP.
type WhisperClient struct {
	http   *resty.Client
	logger zerolog.Logger
}

// NewWhisperClient returns nil when baseURL is empty; transcription is then
// reported as unconfigured rather than failing at startup.
func NewWhisperClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *WhisperClient {
	if baseURL == "" {
		return nil
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &WhisperClient{http: client, logger: logger}
}

// Transcribe sends audio bytes for transcription with a language hint.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, filename, language string) (*STTResult, error) {
	if c == nil {
		return nil, apperr.Provider("speech-to-text is not configured")
	}
	if len(audio) == 0 {
		return nil, apperr.Validation("audio must not be empty")
	}

	lang, ok := whisperLanguages[language]
	if !ok {
		lang = "en"
	}

	var out STTResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(audio)).
		SetFormData(map[string]string{"language": lang}).
		SetResult(&out).
		Post("/transcribe")
	if err != nil {
		return nil, apperr.Provider("transcription failed: %v", err)
	}
	if resp.IsError() {
		return nil, apperr.Provider("transcription service returned status %d", resp.StatusCode())
	}

	c.logger.Info().
		Str("language", lang).
		Str("detected", out.DetectedLanguage).
		Int("audio_bytes", len(audio)).
		Msg("audio transcribed")

	return &out, nil
}

// Available reports whether the transcription backend is configured.
func (c *WhisperClient) Available() bool { return c != nil }
