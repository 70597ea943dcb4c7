package sysprop

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	"roundreview/internal/domain/repositories"
	"roundreview/internal/repository/memory"
)

type countingRepo struct {
	repositories.SystemPropertyRepository
	lists atomic.Int32
}

func (r *countingRepo) List(ctx context.Context) (map[models.SystemPropertyKey]string, error) {
	r.lists.Add(1)
	return r.SystemPropertyRepository.List(ctx)
}

type ctxAwareRepo struct {
	repositories.SystemPropertyRepository
}

func (r ctxAwareRepo) List(ctx context.Context) (map[models.SystemPropertyKey]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.SystemPropertyRepository.List(ctx)
}

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *countingRepo) {
	t.Helper()
	mem := memory.NewStore()
	repo := &countingRepo{SystemPropertyRepository: mem.SystemProperties()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(repo, mem.TxManager(), ttl, 16, logger), repo
}

func TestSet_UploadSizeBounds(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 0)

	err := s.Set(ctx, map[models.SystemPropertyKey]string{models.PropObjectMaxUploadSizeMB: "17"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = s.Set(ctx, map[models.SystemPropertyKey]string{models.PropObjectMaxUploadSizeMB: "0"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, s.Set(ctx, map[models.SystemPropertyKey]string{models.PropObjectMaxUploadSizeMB: "16"}))
	v, err := s.Get(ctx, models.PropObjectMaxUploadSizeMB)
	require.NoError(t, err)
	assert.Equal(t, "16", v)
}

func TestSet_InvalidValueAbortsWholeBatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 0)

	err := s.Set(ctx, map[models.SystemPropertyKey]string{
		models.PropWebhooksDisabled:      "TRUE",
		models.PropObjectMaxUploadSizeMB: "abc",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	v, err := s.Get(ctx, models.PropWebhooksDisabled)
	require.NoError(t, err)
	assert.Equal(t, "FALSE", v)
}

func TestSet_UnknownKeyRejected(t *testing.T) {
	s, _ := newTestStore(t, 0)
	err := s.Set(context.Background(), map[models.SystemPropertyKey]string{"MAINTENANCE_MODE": "TRUE"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFlags_DefaultsAndOverrides(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 0)

	flags, err := s.Flags(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SystemFlags{ObjectMaxUploadSizeMB: 16}, flags)

	require.NoError(t, s.Set(ctx, map[models.SystemPropertyKey]string{
		models.PropProjectCreateDisabled: "TRUE",
		models.PropObjectMaxUploadSizeMB: "4",
	}))
	flags, err = s.Flags(ctx)
	require.NoError(t, err)
	assert.True(t, flags.ProjectCreateDisabled)
	assert.False(t, flags.ObjectDeleteDisabled)
	assert.Equal(t, int64(4*1024*1024), flags.MaxUploadBytes())
}

func TestSnapshot_CachesUntilWrite(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore(t, time.Hour)

	for i := 0; i < 5; i++ {
		_, err := s.Flags(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), repo.lists.Load())

	require.NoError(t, s.Set(ctx, map[models.SystemPropertyKey]string{models.PropUserLoginDisabled: "TRUE"}))
	flags, err := s.Flags(ctx)
	require.NoError(t, err)
	assert.True(t, flags.UserLoginDisabled)
	assert.Equal(t, int32(2), repo.lists.Load())
}

func TestSnapshot_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore(t, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.Flags(ctx)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = s.Flags(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), repo.lists.Load())
}

func TestSnapshot_LoadIgnoresCallerCancellation(t *testing.T) {
	mem := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewStore(ctxAwareRepo{mem.SystemProperties()}, mem.TxManager(), time.Hour, 16, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flags, err := s.Flags(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, flags.ObjectMaxUploadSizeMB)

	// the shared load populated the cache for everyone else
	_, err = s.Flags(context.Background())
	require.NoError(t, err)
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Flags(ctx)
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			value := models.PropertyFalse
			if i%2 == 0 {
				value = models.PropertyTrue
			}
			assert.NoError(t, s.Set(ctx, map[models.SystemPropertyKey]string{models.PropWebhooksDisabled: value}))
		}(i)
	}
	wg.Wait()

	v, err := s.Get(ctx, models.PropWebhooksDisabled)
	require.NoError(t, err)
	assert.Contains(t, []string{models.PropertyTrue, models.PropertyFalse}, v)
}

func TestSeed_WritesOnlyMissingKeys(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 0)
	require.NoError(t, s.Set(ctx, map[models.SystemPropertyKey]string{models.PropWebhooksDisabled: "TRUE"}))

	require.NoError(t, s.Seed(ctx))

	props, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, props, len(models.SystemPropertyKeys()))
	for _, p := range props {
		assert.NotEmpty(t, p.Description)
		switch p.Key {
		case models.PropWebhooksDisabled:
			assert.Equal(t, "TRUE", p.Value)
		case models.PropObjectMaxUploadSizeMB:
			assert.Equal(t, "16", p.Value)
		default:
			assert.Equal(t, "FALSE", p.Value)
		}
	}
}
