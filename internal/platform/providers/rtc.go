package providers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carevista/carevista/internal/platform/apperr"
)

// RTCTokenBuilder mints channel-scoped join tokens for the video provider.
// A token is bound to one channel and one numeric uid and expires on its
// own; it grants nothing beyond joining that channel.
type RTCTokenBuilder struct {
	appID          string
	appCertificate string
}

func NewRTCTokenBuilder(appID, appCertificate string) *RTCTokenBuilder {
	return &RTCTokenBuilder{appID: appID, appCertificate: appCertificate}
}

// Configured reports whether provider credentials are present.
func (b *RTCTokenBuilder) Configured() bool {
	return b.appID != "" && b.appCertificate != ""
}

type rtcTokenPayload struct {
	AppID     string `json:"app_id"`
	Channel   string `json:"channel"`
	UID       uint32 `json:"uid"`
	ExpiresAt int64  `json:"expires_at"`
}

// BuildToken mints a token for the given channel and uid, valid for ttl.
func (b *RTCTokenBuilder) BuildToken(channel string, uid uint32, ttl time.Duration) (string, error) {
	if !b.Configured() {
		return "", apperr.Provider("rtc provider is not configured")
	}
	if channel == "" {
		return "", apperr.Validation("channel must not be empty")
	}

	payload := rtcTokenPayload{
		AppID:     b.appID,
		Channel:   channel,
		UID:       uid,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal rtc token payload: %w", err)
	}

	body := base64.RawURLEncoding.EncodeToString(raw)
	return body + "." + b.sign(body), nil
}

// VerifyToken checks the signature and expiry and that the token is bound
// to the expected channel.
func (b *RTCTokenBuilder) VerifyToken(token, channel string) (uint32, error) {
	if !b.Configured() {
		return 0, apperr.Provider("rtc provider is not configured")
	}

	var body, sig string
	for i := len(token) - 1; i >= 0; i-- {
		if token[i] == '.' {
			body, sig = token[:i], token[i+1:]
			break
		}
	}
	if body == "" || !hmac.Equal([]byte(sig), []byte(b.sign(body))) {
		return 0, apperr.Unauthorized("invalid rtc token")
	}

	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return 0, apperr.Unauthorized("invalid rtc token")
	}
	var payload rtcTokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, apperr.Unauthorized("invalid rtc token")
	}
	if payload.Channel != channel {
		return 0, apperr.Unauthorized("token is bound to another channel")
	}
	if time.Now().Unix() > payload.ExpiresAt {
		return 0, apperr.Unauthorized("rtc token expired")
	}
	return payload.UID, nil
}

func (b *RTCTokenBuilder) sign(body string) string {
	mac := hmac.New(sha256.New, []byte(b.appCertificate))
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
