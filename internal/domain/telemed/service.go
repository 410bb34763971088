package telemed

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"time"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/audit"
	"github.com/carevista/carevista/internal/platform/providers"
)

const maxAllocationAttempts = 5

type Service struct {
	repo    Repository
	tokens  *providers.RTCTokenBuilder
	auditor audit.Recorder
	ttl     time.Duration
	now     func() time.Time
}

func NewService(repo Repository, tokens *providers.RTCTokenBuilder, auditor audit.Recorder, ttl time.Duration) *Service {
	return &Service{repo: repo, tokens: tokens, auditor: auditor, ttl: ttl, now: time.Now}
}

// candidateUID hashes the actor id into the uid space. Collisions are
// resolved by the allocation table, not by the hash: the salt varies per
// attempt and the stored row is the single source of truth.
func candidateUID(actorID string, attempt int) uint32 {
	h := fnv.New32a()
	h.Write([]byte(actorID))
	for i := 0; i < attempt; i++ {
		h.Write([]byte{'#'})
	}
	uid := h.Sum32()
	if uid == 0 {
		uid = 1
	}
	return uid
}

// allocateUID returns the actor's uid, assigning one on first use. The
// insert's unique constraint arbitrates both uid collisions and concurrent
// allocations for the same actor.
func (s *Service) allocateUID(ctx context.Context, actorID string) (uint32, error) {
	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		existing, err := s.repo.GetUID(ctx, actorID)
		if err != nil {
			return 0, err
		}
		if existing != nil {
			return existing.UID, nil
		}

		a := &UIDAssignment{
			ActorID:    actorID,
			UID:        candidateUID(actorID, attempt),
			AssignedAt: s.now(),
		}
		err = s.repo.Insert(ctx, a)
		if err == nil {
			return a.UID, nil
		}
		if !errors.Is(err, ErrUIDTaken) {
			return 0, err
		}
	}
	return 0, apperr.Provider("could not allocate an rtc uid")
}

// IssueToken mints a call token for the actor on the given channel.
func (s *Service) IssueToken(ctx context.Context, actorID, actorRole, channel string) (*TokenGrant, error) {
	if !s.tokens.Configured() {
		return nil, apperr.Provider("video calling is not configured")
	}
	if strings.TrimSpace(channel) == "" {
		return nil, apperr.Validation("channel is required")
	}

	uid, err := s.allocateUID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.ttl)
	token, err := s.tokens.BuildToken(channel, uid, s.ttl)
	if err != nil {
		return nil, err
	}

	entry := audit.NewEntry("telemed.token", actorID, actorRole).
		ForResource("rtc_channel", channel)
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}

	return &TokenGrant{Token: token, Channel: channel, UID: uid, ExpiresAt: expiresAt}, nil
}
