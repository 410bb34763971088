package translation

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/cache"
)

type fakeTranslator struct {
	out   string
	err   error
	calls int
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.out != "" {
		return f.out, nil
	}
	return "model(" + text + ")", nil
}

func newTestService() (*Service, *fakeTranslator, *cache.MemoryKV) {
	kv := cache.NewMemoryKV()
	llm := &fakeTranslator{}
	return NewService(kv, llm, zerolog.Nop()), llm, kv
}

func TestTranslateDictionaryHitSkipsModel(t *testing.T) {
	svc, llm, _ := newTestService()
	result, err := svc.Translate(context.Background(), "Hello", "english", "tamil")
	if err != nil {
		t.Fatal(err)
	}
	if result.Stage != StageDictionary {
		t.Errorf("stage = %q", result.Stage)
	}
	if result.Translated != "வணக்கம்" {
		t.Errorf("translated = %q", result.Translated)
	}
	if llm.calls != 0 {
		t.Error("model called on dictionary hit")
	}
}

func TestTranslateCachesModelResult(t *testing.T) {
	svc, llm, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Translate(ctx, "my knee hurts when climbing stairs", "english", "hindi")
	if err != nil {
		t.Fatal(err)
	}
	if first.Stage != StageModel {
		t.Errorf("first stage = %q", first.Stage)
	}

	second, err := svc.Translate(ctx, "my knee hurts when climbing stairs", "english", "hindi")
	if err != nil {
		t.Fatal(err)
	}
	if second.Stage != StageCache {
		t.Errorf("second stage = %q", second.Stage)
	}
	if second.Translated != first.Translated {
		t.Error("cache returned different translation")
	}
	if llm.calls != 1 {
		t.Errorf("model calls = %d, want 1", llm.calls)
	}
}

func TestTranslateModelFailureEchoes(t *testing.T) {
	svc, llm, _ := newTestService()
	llm.err = apperr.Provider("translation unavailable")

	result, err := svc.Translate(context.Background(), "my knee hurts", "english", "hindi")
	if err != nil {
		t.Fatal(err)
	}
	if result.Stage != StageEcho {
		t.Errorf("stage = %q", result.Stage)
	}
	if result.Translated != "my knee hurts" {
		t.Errorf("translated = %q, want original echoed", result.Translated)
	}
}

func TestTranslateSameLanguageEchoes(t *testing.T) {
	svc, llm, _ := newTestService()
	result, err := svc.Translate(context.Background(), "hello", "tamil", "tamil")
	if err != nil {
		t.Fatal(err)
	}
	if result.Stage != StageEcho || result.Translated != "hello" {
		t.Errorf("result = %+v", result)
	}
	if llm.calls != 0 {
		t.Error("model called for same-language request")
	}
}

func TestTranslateValidatesLanguages(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Translate(context.Background(), "hello", "english", "french")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	_, err = svc.Translate(context.Background(), " ", "english", "tamil")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("blank text: err = %v, want validation", err)
	}
}
