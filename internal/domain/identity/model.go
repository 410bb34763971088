package identity

import "time"

// TempIDPrefix marks temporary patient identities minted during assisted
// sessions. The prefix keeps the namespace distinct from provider-issued
// subject ids.
const TempIDPrefix = "temp-"

// User maps to the users table. The id is the identity provider's subject.
type User struct {
	ID                string    `db:"id" json:"id"`
	Role              string    `db:"role" json:"role"`
	DisplayName       string    `db:"display_name" json:"display_name"`
	PreferredLanguage string    `db:"preferred_language" json:"preferred_language,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// TempPatient maps to the temporary_patients table.
type TempPatient struct {
	ID          string     `db:"id" json:"id"`
	DisplayName string     `db:"display_name" json:"display_name"`
	Language    string     `db:"language" json:"language,omitempty"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	LinkedTo    *string    `db:"linked_to" json:"linked_to,omitempty"`
	LinkedAt    *time.Time `db:"linked_at" json:"linked_at,omitempty"`
}

// Linked reports whether the temporary identity has been merged into a
// permanent one.
func (t *TempPatient) Linked() bool { return t.LinkedTo != nil }
