// Package audit records privileged actions and lists them for admins.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/repositories"
)

// Log is the append-only audit trail.
type Log struct {
	repo   repositories.AuditLogRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewLog creates an audit log over repo.
func NewLog(repo repositories.AuditLogRepository, logger *slog.Logger) *Log {
	return &Log{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Append records action on behalf of actorID.
func (l *Log) Append(ctx context.Context, actorID, action string) error {
	entry := &models.AuditLogEntry{
		Date:    l.now(),
		ActorID: actorID,
		Action:  action,
	}
	if err := l.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	l.logger.Debug("audit", "user_id", actorID, "action", action)
	return nil
}

// Record appends and only logs a failure. The mutation it follows has
// already been committed.
func (l *Log) Record(ctx context.Context, actorID, action string) {
	if err := l.Append(ctx, actorID, action); err != nil {
		l.logger.Error("audit append failed", "user_id", actorID, "action", action, "error", err)
	}
}

// List returns entries filtered by actor and action substring, newest first.
func (l *Log) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	filter.ActorID = strings.TrimSpace(filter.ActorID)
	filter.Action = strings.TrimSpace(filter.Action)
	entries, err := l.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	return entries, nil
}

// Action renders an action description in the canonical form
// "subject verb (k1=v1, k2=v2)".
func Action(what string, kv ...string) string {
	if len(kv) == 0 {
		return what
	}
	var b strings.Builder
	b.WriteString(what)
	b.WriteString(" (")
	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(kv[i])
		b.WriteByte('=')
		b.WriteString(kv[i+1])
	}
	b.WriteByte(')')
	return b.String()
}
