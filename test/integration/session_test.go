package integration

import (
	"context"
	"testing"
	"time"

	"github.com/carevista/carevista/internal/domain/session"
	"github.com/carevista/carevista/internal/platform/apperr"
)

func TestAssistedSessionSingleActivePerActor(t *testing.T) {
	ctx := context.Background()
	truncateAll(t, ctx)

	repo := session.NewRepoPG(globalDB.Pool)
	actorID := uniqueID("hw")
	now := time.Now().UTC()

	mk := func(patientID string) *session.Session {
		return &session.Session{
			ActorID:        actorID,
			PatientID:      patientID,
			Status:         session.StatusActive,
			CreatedAt:      now,
			LastActivityAt: now,
			ExpiresAt:      now.Add(30 * time.Minute),
		}
	}

	first := mk(uniqueID("patient"))
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create first session: %v", err)
	}

	t.Run("SecondActiveInsertConflicts", func(t *testing.T) {
		err := repo.Create(ctx, mk(uniqueID("patient")))
		if apperr.KindOf(err) != apperr.KindConflict {
			t.Fatalf("err = %v, want conflict", err)
		}
	})

	t.Run("NewSessionAllowedAfterEnd", func(t *testing.T) {
		ended := now.Add(time.Minute)
		first.Status = session.StatusEnded
		first.EndedAt = &ended
		if err := repo.Update(ctx, first); err != nil {
			t.Fatalf("end first session: %v", err)
		}

		if err := repo.Create(ctx, mk(uniqueID("patient"))); err != nil {
			t.Fatalf("create after end: %v", err)
		}
	})
}
