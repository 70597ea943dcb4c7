package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roundreview/internal/domain/models"
	"roundreview/internal/repository/memory"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAction(t *testing.T) {
	tests := []struct {
		name string
		what string
		kv   []string
		want string
	}{
		{"no args", "settings update", nil, "settings update"},
		{"one pair", "project add", []string{"project_id", "p1"}, "project add (project_id=p1)"},
		{"many pairs", "project user add", []string{"project_id", "p1", "user_id", "u1", "role", "Owner"},
			"project user add (project_id=p1, user_id=u1, role=Owner)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Action(tt.what, tt.kv...))
		})
	}
}

func TestLog_AppendAndList(t *testing.T) {
	ctx := context.Background()
	l := NewLog(memory.NewStore().AuditLogs(), discard())
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	l.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}

	require.NoError(t, l.Append(ctx, "u1", "project add (project_id=p1)"))
	require.NoError(t, l.Append(ctx, "u2", "system property update (key=WEBHOOKS_DISABLED, value=TRUE)"))
	require.NoError(t, l.Append(ctx, "u1", "project object delete (project_id=p1, object_id=o1)"))

	all, err := l.List(ctx, models.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Date.After(all[1].Date))
	assert.True(t, all[1].Date.After(all[2].Date))

	mine, err := l.List(ctx, models.AuditLogFilter{ActorID: " u1 ", Action: "object"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "project object delete (project_id=p1, object_id=o1)", mine[0].Action)
}

type failingRepo struct{}

func (failingRepo) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	return errors.New("disk full")
}

func (failingRepo) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	return nil, errors.New("disk full")
}

func TestLog_RecordSwallowsErrors(t *testing.T) {
	l := NewLog(failingRepo{}, discard())
	assert.Error(t, l.Append(context.Background(), "u1", "x"))
	assert.NotPanics(t, func() { l.Record(context.Background(), "u1", "x") })
}
