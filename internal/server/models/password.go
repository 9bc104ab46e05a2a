package models

import "time"

// PasswordEntry is a secondary record created opportunistically when a
// domain record carries portal credentials (e.g., a doctor's patient-portal
// login). Identity is (Source, SourceReference).
//
// The password is stored in plaintext: entries exist so family members can
// read a shared credential back, and the hosted database is the trust
// boundary. Flagged in the data model docs rather than hidden.
type PasswordEntry struct {
	ID              string    `db:"id"`
	Source          string    `db:"source"`
	SourceReference string    `db:"source_reference"`
	Name            string    `db:"name"`
	Website         string    `db:"website"`
	Username        string    `db:"username"`
	Password        string    `db:"password"`
	Category        string    `db:"category"`
	Notes           string    `db:"notes"`
	Metadata        Metadata  `db:"metadata"`
	CreatedBy       string    `db:"created_by"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}
