// Package sysprop holds the system actor's feature flags behind a read-through
// cache that is invalidated on every write.
package sysprop

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	"roundreview/internal/domain/repositories"
)

// Store is the process-wide system property service. Reads may run
// concurrently; writes are serialized per key.
type Store struct {
	repo       repositories.SystemPropertyRepository
	txManager  repositories.TransactionManager
	logger     *slog.Logger
	ttl        time.Duration
	fallbackMB int
	now        func() time.Time

	mu       sync.RWMutex
	cache    map[models.SystemPropertyKey]string
	loadedAt time.Time
	valid    bool
	gen      uint64

	loads    singleflight.Group
	keyMu    sync.Mutex
	keyLocks map[models.SystemPropertyKey]*sync.Mutex
}

// NewStore creates a store. A zero ttl reads through to storage on every call.
// fallbackMB is the upload cap used when the stored value is absent or invalid.
func NewStore(
	repo repositories.SystemPropertyRepository,
	txManager repositories.TransactionManager,
	ttl time.Duration,
	fallbackMB int,
	logger *slog.Logger,
) *Store {
	return &Store{
		repo:       repo,
		txManager:  txManager,
		logger:     logger,
		ttl:        ttl,
		fallbackMB: fallbackMB,
		now:        time.Now,
		keyLocks:   make(map[models.SystemPropertyKey]*sync.Mutex),
	}
}

// Get returns the current value of key, or its default when never written.
func (s *Store) Get(ctx context.Context, key models.SystemPropertyKey) (string, error) {
	if _, ok := models.ParseSystemPropertyKey(string(key)); !ok {
		return "", &domain.ValidationError{Message: fmt.Sprintf("unknown system property %q", key)}
	}
	values, err := s.snapshot(ctx)
	if err != nil {
		return "", err
	}
	if v, ok := values[key]; ok {
		return v, nil
	}
	return key.Default(s.fallbackMB), nil
}

// All returns every property in display order, with descriptions.
func (s *Store) All(ctx context.Context) ([]models.SystemProperty, error) {
	values, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	keys := models.SystemPropertyKeys()
	out := make([]models.SystemProperty, 0, len(keys))
	for _, key := range keys {
		v, ok := values[key]
		if !ok {
			v = key.Default(s.fallbackMB)
		}
		out = append(out, models.SystemProperty{Key: key, Value: v, Description: key.Description()})
	}
	return out, nil
}

// Flags returns a typed snapshot of every property.
func (s *Store) Flags(ctx context.Context) (models.SystemFlags, error) {
	values, err := s.snapshot(ctx)
	if err != nil {
		return models.SystemFlags{}, err
	}
	return models.FlagsFromValues(values, s.fallbackMB), nil
}

// Set writes a batch of properties atomically. Every key and value is
// validated first; one bad entry rejects the whole batch and nothing is written.
func (s *Store) Set(ctx context.Context, updates map[models.SystemPropertyKey]string) error {
	if len(updates) == 0 {
		return &domain.ValidationError{Message: "no properties to update"}
	}

	keys := make([]models.SystemPropertyKey, 0, len(updates))
	for key, value := range updates {
		if _, ok := models.ParseSystemPropertyKey(string(key)); !ok {
			return &domain.ValidationError{Message: fmt.Sprintf("unknown system property %q", key)}
		}
		if err := key.Validate(value); err != nil {
			return &domain.ValidationError{Message: fmt.Sprintf("invalid value for %s: %v", key, err)}
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	unlock := s.lockKeys(keys)
	defer unlock()

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for _, key := range keys {
			if err := s.repo.Set(txCtx, key, updates[key]); err != nil {
				return fmt.Errorf("set system property %s: %w", key, err)
			}
		}
		return nil
	})
	s.Invalidate()
	if err != nil {
		return err
	}

	for _, key := range keys {
		s.logger.Info("system property updated", "key", string(key), "value", updates[key])
	}
	return nil
}

// Seed writes the default of every key that has no stored value.
func (s *Store) Seed(ctx context.Context) error {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list system properties: %w", err)
	}

	missing := make(map[models.SystemPropertyKey]string)
	for _, key := range models.SystemPropertyKeys() {
		if _, ok := stored[key]; !ok {
			missing[key] = key.Default(s.fallbackMB)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if err := s.Set(ctx, missing); err != nil {
		return fmt.Errorf("seed system properties: %w", err)
	}
	s.logger.Info("system properties seeded", "count", len(missing))
	return nil
}

// Invalidate drops the cached snapshot.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.cache = nil
	s.gen++
	s.mu.Unlock()
}

func (s *Store) snapshot(ctx context.Context) (map[models.SystemPropertyKey]string, error) {
	s.mu.RLock()
	if s.valid && s.ttl > 0 && s.now().Sub(s.loadedAt) < s.ttl {
		values := s.cache
		s.mu.RUnlock()
		return values, nil
	}
	gen := s.gen
	s.mu.RUnlock()

	// The flight is shared; one caller's cancellation must not fail the rest.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.loads.Do(fmt.Sprintf("load-%d", gen), func() (interface{}, error) {
		values, err := s.repo.List(loadCtx)
		if err != nil {
			return nil, fmt.Errorf("load system properties: %w", err)
		}

		s.mu.Lock()
		if s.gen == gen {
			s.cache = values
			s.loadedAt = s.now()
			s.valid = true
		}
		s.mu.Unlock()
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[models.SystemPropertyKey]string), nil
}

// lockKeys acquires the per-key write locks in sorted order.
func (s *Store) lockKeys(keys []models.SystemPropertyKey) func() {
	locks := make([]*sync.Mutex, 0, len(keys))
	s.keyMu.Lock()
	for _, key := range keys {
		l, ok := s.keyLocks[key]
		if !ok {
			l = &sync.Mutex{}
			s.keyLocks[key] = l
		}
		locks = append(locks, l)
	}
	s.keyMu.Unlock()

	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}
