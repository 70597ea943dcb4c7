package models

import "time"

// AuditLogEntry records a privileged action. Entries are append-only.
type AuditLogEntry struct {
	ID      int64     `json:"id"`
	Date    time.Time `json:"date"`
	ActorID string    `json:"user_id"`
	Action  string    `json:"action"`
}

// AuditLogFilter narrows an audit listing. Empty fields match everything.
type AuditLogFilter struct {
	ActorID string // exact match
	Action  string // substring match
	Limit   int    // 0 means no limit
}
