package discussion

import (
	"time"

	"github.com/google/uuid"
)

// Post is a doctor-to-doctor discussion thread. Posts are de-identified by
// construction: the scanner rejects identifying content before storage, and
// no patient linkage column exists.
type Post struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Reply struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PostID    uuid.UUID `db:"post_id" json:"post_id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
