package models

import (
	"database/sql"
	"time"
)

// Sync audit operation types.
const (
	AuditOpCreate = "create"
	AuditOpUpdate = "update"
	AuditOpDelete = "delete"
	AuditOpSync   = "sync"
)

// Sync audit statuses.
const (
	AuditStatusPending    = "pending"
	AuditStatusSuccess    = "success"
	AuditStatusFailed     = "failed"
	AuditStatusRolledBack = "rolled_back"
)

// SyncAudit is an append-only forensic record of one sync-engine step.
// RequestID correlates the pending and terminal rows of one logical
// operation. Rows are write-once; only the terminal status/completion
// fields distinguish them. Never used for control flow.
type SyncAudit struct {
	ID            string         `db:"id"`
	RequestID     string         `db:"request_id"`
	OperationType string         `db:"operation_type"`
	SourceTable   string         `db:"source_table"`
	SourceID      string         `db:"source_id"`
	TargetTable   string         `db:"target_table"`
	TargetID      string         `db:"target_id"`
	Status        string         `db:"status"`
	ErrorMessage  string         `db:"error_message"`
	Metadata      Metadata       `db:"metadata"`
	CreatedBy     string         `db:"created_by"`
	CreatedAt     time.Time      `db:"created_at"`
	CompletedAt   sql.NullTime   `db:"completed_at"`
}
