package providers

import (
	"testing"
	"time"
)

func TestBuildAndVerifyToken(t *testing.T) {
	b := NewRTCTokenBuilder("app-1", "cert-secret")

	token, err := b.BuildToken("appointment-42", 1001, time.Hour)
	if err != nil {
		t.Fatalf("BuildToken: %v", err)
	}

	uid, err := b.VerifyToken(token, "appointment-42")
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if uid != 1001 {
		t.Errorf("uid = %d, want 1001", uid)
	}
}

func TestVerifyTokenWrongChannel(t *testing.T) {
	b := NewRTCTokenBuilder("app-1", "cert-secret")
	token, err := b.BuildToken("appointment-42", 1001, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.VerifyToken(token, "appointment-43"); err == nil {
		t.Fatal("expected error for wrong channel")
	}
}

func TestVerifyTokenTampered(t *testing.T) {
	b := NewRTCTokenBuilder("app-1", "cert-secret")
	token, err := b.BuildToken("appointment-42", 1001, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	tampered := "x" + token[1:]
	if _, err := b.VerifyToken(tampered, "appointment-42"); err == nil {
		t.Fatal("expected error for tampered token")
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	b := NewRTCTokenBuilder("app-1", "cert-secret")
	token, err := b.BuildToken("appointment-42", 1001, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.VerifyToken(token, "appointment-42"); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestBuildTokenUnconfigured(t *testing.T) {
	b := NewRTCTokenBuilder("", "")
	if _, err := b.BuildToken("appointment-42", 1001, time.Hour); err == nil {
		t.Fatal("expected error when provider is not configured")
	}
}
