package models

import "time"

// Document is a secondary record keyed by FileURL (a durable storage URL,
// unique). A second upload with the same URL updates metadata instead of
// duplicating the row.
type Document struct {
	ID              string     `db:"id"`
	Title           string     `db:"title"`
	FileURL         string     `db:"file_url"`
	FileSize        int64      `db:"file_size"`
	FileType        string     `db:"file_type"`
	Category        string     `db:"category"`
	Source          string     `db:"source"`
	SourceReference string     `db:"source_reference"`
	AssignedTo      StringList `db:"assigned_to"`
	Metadata        Metadata   `db:"metadata"`
	CreatedBy       string     `db:"created_by"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}
