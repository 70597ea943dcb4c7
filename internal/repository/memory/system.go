package memory

import (
	"context"
	"sort"
	"strings"

	"roundreview/internal/domain/models"
)

type propertyRepo struct{ s *Store }

func (r *propertyRepo) Get(ctx context.Context, key models.SystemPropertyKey) (*string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.props[key]
	if !ok {
		return nil, nil
	}
	return strPtr(v), nil
}

func (r *propertyRepo) List(ctx context.Context) (map[models.SystemPropertyKey]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[models.SystemPropertyKey]string, len(r.s.props))
	for k, v := range r.s.props {
		out[k] = v
	}
	return out, nil
}

func (r *propertyRepo) Set(ctx context.Context, key models.SystemPropertyKey, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.props[key] = value
	return nil
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextAuditID++
	entry.ID = r.s.nextAuditID
	if entry.Date.IsZero() {
		entry.Date = r.s.now()
	}
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

func (r *auditRepo) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.AuditLogEntry{}
	for _, e := range r.s.audit {
		if filter.ActorID != "" && e.ActorID != filter.ActorID {
			continue
		}
		if filter.Action != "" && !strings.Contains(e.Action, filter.Action) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
