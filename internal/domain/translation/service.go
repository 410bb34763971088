package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/cache"
	"github.com/carevista/carevista/internal/platform/providers"
)

const cacheTTL = 24 * time.Hour

// Translator is the model-backed fallback for text the static dictionary
// does not cover.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Result reports which stage produced the translation.
type Result struct {
	Text       string `json:"text"`
	Translated string `json:"translated"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Stage      string `json:"stage"`
}

// Translation stages, in lookup order.
const (
	StageDictionary = "dictionary"
	StageCache      = "cache"
	StageModel      = "model"
	StageEcho       = "echo"
)

type Service struct {
	kv     cache.KV
	llm    Translator
	logger zerolog.Logger
}

func NewService(kv cache.KV, llm Translator, logger zerolog.Logger) *Service {
	return &Service{kv: kv, llm: llm, logger: logger}
}

func supportedLanguage(lang string) bool {
	for _, l := range providers.SupportedLanguages() {
		if l == lang {
			return true
		}
	}
	return false
}

func cacheKey(text, sourceLang, targetLang string) string {
	sum := sha256.Sum256([]byte(text))
	return "translate:" + sourceLang + ":" + targetLang + ":" + hex.EncodeToString(sum[:])
}

// Translate resolves text through the cheapest available stage: static
// dictionary, then cache, then the model chain. When everything misses or
// fails, the original text is returned unchanged rather than an error;
// a readable original beats a blocked screen.
func (s *Service) Translate(ctx context.Context, text, sourceLang, targetLang string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("text is required")
	}
	if !supportedLanguage(sourceLang) {
		return nil, apperr.Validation("unsupported source language %q", sourceLang)
	}
	if !supportedLanguage(targetLang) {
		return nil, apperr.Validation("unsupported target language %q", targetLang)
	}

	result := &Result{Text: text, SourceLang: sourceLang, TargetLang: targetLang}
	if sourceLang == targetLang {
		result.Translated = text
		result.Stage = StageEcho
		return result, nil
	}

	if translated, ok := lookupStatic(text, sourceLang, targetLang); ok {
		result.Translated = translated
		result.Stage = StageDictionary
		return result, nil
	}

	key := cacheKey(text, sourceLang, targetLang)
	if cached, err := s.kv.Get(ctx, key); err == nil {
		result.Translated = cached
		result.Stage = StageCache
		return result, nil
	} else if err != cache.ErrMiss {
		s.logger.Warn().Err(err).Msg("translation cache read failed")
	}

	translated, err := s.llm.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		s.logger.Warn().Err(err).Msg("model translation failed, echoing original")
		result.Translated = text
		result.Stage = StageEcho
		return result, nil
	}

	if err := s.kv.Set(ctx, key, translated, cacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("translation cache write failed")
	}
	result.Translated = translated
	result.Stage = StageModel
	return result, nil
}
