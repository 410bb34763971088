package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if lang := r.FormValue("language"); lang != "ta" {
			t.Errorf("language = %q, want ta", lang)
		}
		json.NewEncoder(w).Encode(STTResult{Transcript: "head hurts", DetectedLanguage: "ta"})
	}))
	defer srv.Close()

	c := NewWhisperClient(srv.URL, 5*time.Second, zerolog.Nop())
	result, err := c.Transcribe(context.Background(), []byte("audio-bytes"), "note.webm", "tamil")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Transcript != "head hurts" {
		t.Errorf("transcript = %q", result.Transcript)
	}
}

func TestTranscribeUnknownLanguageDefaultsToEnglish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if lang := r.FormValue("language"); lang != "en" {
			t.Errorf("language = %q, want en", lang)
		}
		json.NewEncoder(w).Encode(STTResult{Transcript: "ok", DetectedLanguage: "en"})
	}))
	defer srv.Close()

	c := NewWhisperClient(srv.URL, 5*time.Second, zerolog.Nop())
	if _, err := c.Transcribe(context.Background(), []byte("audio"), "note.webm", "klingon"); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
}

func TestTranscribeUnconfigured(t *testing.T) {
	var c *WhisperClient
	if c.Available() {
		t.Error("nil client reports available")
	}
	if _, err := c.Transcribe(context.Background(), []byte("audio"), "a.webm", "english"); err == nil {
		t.Fatal("expected provider error for unconfigured client")
	}
}

func TestTranscribeEmptyAudio(t *testing.T) {
	c := NewWhisperClient("http://localhost:9", time.Second, zerolog.Nop())
	if _, err := c.Transcribe(context.Background(), nil, "a.webm", "english"); err == nil {
		t.Fatal("expected validation error for empty audio")
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewWhisperClient(srv.URL, 5*time.Second, zerolog.Nop())
	if _, err := c.Transcribe(context.Background(), []byte("audio"), "a.webm", "english"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
