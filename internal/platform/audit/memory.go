package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRecorder keeps entries in memory. Used in tests and as a stand-in
// when no database is wired.
type MemoryRecorder struct {
	mu      sync.Mutex
	Entries []Entry
	// FailNext forces the next Record call to return this error.
	FailNext error
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailNext != nil {
		err := r.FailNext
		r.FailNext = nil
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.Entries = append(r.Entries, *entry)
	return nil
}

func (r *MemoryRecorder) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.Entries {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
