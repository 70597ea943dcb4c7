package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roundreview/internal/domain/models"
)

const systemUser = "00000000-0000-0000-0000-000000000001"

type staticFlags struct {
	flags models.SystemFlags
	err   error
}

func (f staticFlags) Flags(ctx context.Context) (models.SystemFlags, error) {
	return f.flags, f.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type call struct {
	url  string
	body string
}

type recordingSender struct {
	mu      sync.Mutex
	calls   []call
	err     error
	block   chan struct{}
	active  map[string]int
	maxSeen atomic.Int32
	started chan string
}

func newRecordingSender() *recordingSender {
	return &recordingSender{active: make(map[string]int), started: make(chan string, 16)}
}

func (s *recordingSender) Send(ctx context.Context, url string, body []byte) error {
	s.mu.Lock()
	s.calls = append(s.calls, call{url: url, body: string(body)})
	s.active[url]++
	if n := int32(s.active[url]); n > s.maxSeen.Load() {
		s.maxSeen.Store(n)
	}
	block := s.block
	s.mu.Unlock()

	s.started <- url
	if block != nil {
		<-block
	}

	s.mu.Lock()
	s.active[url]--
	s.mu.Unlock()
	return s.err
}

func (s *recordingSender) Calls() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

func testConfig() Config {
	return Config{
		BaseDelay:     time.Second,
		Stagger:       2 * time.Second,
		Grace:         300 * time.Second,
		Timeout:       time.Second,
		MaxQueue:      16,
		MaxConcurrent: 4,
		BusyDelay:     5 * time.Millisecond,
	}
}

func newTestDispatcher(t *testing.T, cfg Config, sender Sender, flags FlagReader) (*Dispatcher, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	d := NewDispatcher(cfg, sender, flags, systemUser, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.now = clock.Now
	t.Cleanup(d.Stop)
	return d, clock
}

func enabled() staticFlags {
	return staticFlags{flags: models.SystemFlags{ObjectMaxUploadSizeMB: 16}}
}

func status(v string) map[string]string {
	return map[string]string{"status": v}
}

func TestEnqueue_FiltersRecipientsAndStaggers(t *testing.T) {
	d, clock := newTestDispatcher(t, testConfig(), newRecordingSender(), enabled())
	t0 := clock.Now()

	recipients := []models.WebhookRecipient{
		{UserID: "u1", Role: models.Owner, WebhookURL: "http://owner"},
		{UserID: "u2", Role: models.Reviewer, WebhookURL: "http://reviewer"},
		{UserID: "u3", Role: models.Member, WebhookURL: "http://member"},
		{UserID: "u4", Role: models.Reviewer},
		{UserID: systemUser, Role: models.Owner, WebhookURL: "http://system"},
		{UserID: "u5", Role: models.Owner, WebhookURL: "http://flagged-system", IsSystem: true},
		{UserID: "u6", Role: models.Owner, WebhookURL: "http://owner2"},
	}
	d.Enqueue(context.Background(), "p1", "o1", status("Approved"), recipients)

	assert.Equal(t, 3, d.Pending())

	at, ok := d.Scheduled(JobID("o1", "u1"))
	require.True(t, ok)
	assert.Equal(t, t0.Add(time.Second), at)

	at, ok = d.Scheduled(JobID("o1", "u2"))
	require.True(t, ok)
	assert.Equal(t, t0.Add(3*time.Second), at)

	at, ok = d.Scheduled(JobID("o1", "u6"))
	require.True(t, ok)
	assert.Equal(t, t0.Add(5*time.Second), at)

	_, ok = d.Scheduled(JobID("o1", "u3"))
	assert.False(t, ok)
}

func TestEnqueue_ReplacesSameIdentity(t *testing.T) {
	d, clock := newTestDispatcher(t, testConfig(), newRecordingSender(), enabled())
	rcpt := []models.WebhookRecipient{{UserID: "u1", Role: models.Owner, WebhookURL: "http://owner"}}

	d.Enqueue(context.Background(), "p1", "o1", status("Under Review"), rcpt)
	clock.Set(clock.Now().Add(500 * time.Millisecond))
	d.Enqueue(context.Background(), "p1", "o1", status("Approved"), rcpt)

	assert.Equal(t, 1, d.Pending())
	assert.Equal(t, int64(1), d.Status().Replaced)

	job, ok := d.queue.get(JobID("o1", "u1"))
	require.True(t, ok)
	assert.Contains(t, string(job.Body), `"status":"Approved"`)
	assert.Equal(t, clock.Now().Add(time.Second), job.ScheduledAt)
}

func TestEnqueue_NoOpWhenDisabledOrFlagsUnreadable(t *testing.T) {
	rcpt := []models.WebhookRecipient{{UserID: "u1", Role: models.Owner, WebhookURL: "http://owner"}}

	disabled := staticFlags{flags: models.SystemFlags{WebhooksDisabled: true}}
	d, _ := newTestDispatcher(t, testConfig(), newRecordingSender(), disabled)
	d.Enqueue(context.Background(), "p1", "o1", status("Approved"), rcpt)
	assert.Zero(t, d.Pending())

	broken := staticFlags{err: errors.New("db down")}
	d, _ = newTestDispatcher(t, testConfig(), newRecordingSender(), broken)
	d.Enqueue(context.Background(), "p1", "o1", status("Approved"), rcpt)
	assert.Zero(t, d.Pending())
}

func TestEnqueue_QueueFullDropsNewJobs(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueue = 2
	d, _ := newTestDispatcher(t, cfg, newRecordingSender(), enabled())

	for _, obj := range []string{"o1", "o2", "o3"} {
		d.Enqueue(context.Background(), "p1", obj, status("Approved"),
			[]models.WebhookRecipient{{UserID: "u1", Role: models.Owner, WebhookURL: "http://owner"}})
	}

	assert.Equal(t, 2, d.Pending())
	stats := d.Status()
	assert.Equal(t, int64(1), stats.Overflow)
	assert.Zero(t, stats.Expired)
}

func TestDispatcher_DeliversDueJobsWithinGrace(t *testing.T) {
	sender := newRecordingSender()
	d, clock := newTestDispatcher(t, testConfig(), sender, enabled())
	t0 := clock.Now()

	d.Enqueue(context.Background(), "p1", "o1", status("Approved"), []models.WebhookRecipient{
		{UserID: "u1", Role: models.Owner, WebhookURL: "http://owner"},
	})

	// scheduler was down for a while, but less than the grace window
	clock.Set(t0.Add(2 * time.Minute))
	d.Start(context.Background())

	require.Eventually(t, func() bool { return d.Status().Delivered == 1 }, time.Second, 5*time.Millisecond)
	calls := sender.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "http://owner", calls[0].url)
	assert.Zero(t, d.Pending())
}

func TestDispatcher_DropsJobsBeyondGrace(t *testing.T) {
	sender := newRecordingSender()
	d, clock := newTestDispatcher(t, testConfig(), sender, enabled())
	t0 := clock.Now()

	d.Enqueue(context.Background(), "p1", "o1", status("Approved"), []models.WebhookRecipient{
		{UserID: "u1", Role: models.Owner, WebhookURL: "http://owner"},
	})

	clock.Set(t0.Add(time.Second + 301*time.Second))
	d.Start(context.Background())

	require.Eventually(t, func() bool { return d.Status().Expired == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, d.Status().Overflow)
	assert.Empty(t, sender.Calls())
	assert.Zero(t, d.Pending())
}

func TestDispatcher_OneInFlightPerIdentity(t *testing.T) {
	sender := newRecordingSender()
	sender.block = make(chan struct{})
	d, clock := newTestDispatcher(t, testConfig(), sender, enabled())
	rcpt := []models.WebhookRecipient{{UserID: "u1", Role: models.Owner, WebhookURL: "http://owner"}}

	d.Enqueue(context.Background(), "p1", "o1", status("Under Review"), rcpt)
	clock.Set(clock.Now().Add(2 * time.Second))
	d.Start(context.Background())

	select {
	case <-sender.started:
	case <-time.After(time.Second):
		t.Fatal("first delivery did not start")
	}

	// same identity becomes due while the first attempt is still running
	d.Enqueue(context.Background(), "p1", "o1", status("Approved"), rcpt)
	clock.Set(clock.Now().Add(2 * time.Second))
	d.signal()

	select {
	case <-sender.started:
		t.Fatal("second delivery started while first in flight")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, d.Status().InFlight)

	close(sender.block)
	require.Eventually(t, func() bool { return d.Status().Delivered == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), sender.maxSeen.Load())

	calls := sender.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[1].body, `"status":"Approved"`)
}

func TestDispatcher_FailedDeliveryIsNotRetried(t *testing.T) {
	sender := newRecordingSender()
	sender.err = errors.New("status 500")
	d, clock := newTestDispatcher(t, testConfig(), sender, enabled())

	d.Enqueue(context.Background(), "p1", "o1", status("Approved"), []models.WebhookRecipient{
		{UserID: "u1", Role: models.Owner, WebhookURL: "http://owner"},
	})
	clock.Set(clock.Now().Add(2 * time.Second))
	d.Start(context.Background())

	require.Eventually(t, func() bool { return d.Status().Failed == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, sender.Calls(), 1)
	assert.Zero(t, d.Pending())
}

func TestDispatcher_EnqueueDoesNotBlockOnDelivery(t *testing.T) {
	sender := newRecordingSender()
	sender.block = make(chan struct{})
	defer close(sender.block)
	cfg := testConfig()
	cfg.BaseDelay, cfg.Stagger = 0, 0
	d, _ := newTestDispatcher(t, cfg, sender, enabled())
	d.Start(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.Enqueue(context.Background(), "p1", "o1", status("Approved"), []models.WebhookRecipient{
				{UserID: "u1", Role: models.Owner, WebhookURL: "http://owner"},
			})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked")
	}
}
