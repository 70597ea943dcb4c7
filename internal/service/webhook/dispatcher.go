// Package webhook delivers object status notifications to project owners and
// reviewers from a single in-memory scheduler. Pending jobs are lost on
// process restart.
package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"roundreview/internal/domain/models"
)

// Sender performs a single delivery attempt.
type Sender interface {
	Send(ctx context.Context, url string, body []byte) error
}

// FlagReader supplies the current system flags.
type FlagReader interface {
	Flags(ctx context.Context) (models.SystemFlags, error)
}

// Config tunes the dispatcher.
type Config struct {
	BaseDelay     time.Duration // delay before the first recipient's job
	Stagger       time.Duration // added per successive recipient
	Grace         time.Duration // how late a job may still fire
	Timeout       time.Duration // per delivery attempt
	MaxQueue      int
	MaxConcurrent int
	// BusyDelay postpones a due job whose identity is still being delivered.
	BusyDelay time.Duration
}

// DefaultConfig matches the production defaults.
func DefaultConfig() Config {
	return Config{
		BaseDelay:     time.Second,
		Stagger:       2 * time.Second,
		Grace:         300 * time.Second,
		Timeout:       10 * time.Second,
		MaxQueue:      1024,
		MaxConcurrent: 4,
		BusyDelay:     250 * time.Millisecond,
	}
}

// Stats is a point-in-time view of the dispatcher.
type Stats struct {
	Running   bool  `json:"running"`
	Pending   int   `json:"pending"`
	InFlight  int   `json:"in_flight"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Overflow  int64 `json:"overflow"`
	Expired   int64 `json:"expired"`
	Replaced  int64 `json:"replaced"`
}

// Dispatcher schedules and executes webhook jobs. Enqueue never blocks on
// network I/O; a single goroutine drains due jobs.
type Dispatcher struct {
	cfg          Config
	sender       Sender
	flags        FlagReader
	systemUserID string
	logger       *slog.Logger
	now          func() time.Time

	mu       sync.Mutex
	queue    *jobQueue
	inflight map[string]struct{}
	stats    Stats

	sem    *semaphore.Weighted
	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Call Start to begin executing jobs.
func NewDispatcher(cfg Config, sender Sender, flags FlagReader, systemUserID string, logger *slog.Logger) *Dispatcher {
	def := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.BusyDelay <= 0 {
		cfg.BusyDelay = def.BusyDelay
	}
	return &Dispatcher{
		cfg:          cfg,
		sender:       sender,
		flags:        flags,
		systemUserID: systemUserID,
		logger:       logger,
		now:          time.Now,
		queue:        newJobQueue(),
		inflight:     make(map[string]struct{}),
		sem:          semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		wake:         make(chan struct{}, 1),
	}
}

// Enqueue schedules one notification per eligible recipient and returns
// immediately. Recipients that are not owners or reviewers, the system user,
// and users without a webhook URL are skipped. It is a no-op while webhooks
// are disabled or the flags cannot be read.
func (d *Dispatcher) Enqueue(ctx context.Context, projectID, objectID string, updatedFields map[string]string, recipients []models.WebhookRecipient) {
	flags, err := d.flags.Flags(ctx)
	if err != nil {
		d.logger.Warn("webhooks skipped: cannot read system flags", "object_id", objectID, "error", err)
		return
	}
	if flags.WebhooksDisabled {
		return
	}

	now := d.now()
	body, err := NewPayload(projectID, objectID, updatedFields, now).Encode()
	if err != nil {
		d.logger.Error("encode webhook payload", "object_id", objectID, "error", err)
		return
	}

	d.mu.Lock()
	n := 0
	for _, r := range recipients {
		if r.IsSystem || r.UserID == d.systemUserID || !r.Role.CanReview() || r.WebhookURL == "" {
			continue
		}
		job := &Job{
			ID:          JobID(objectID, r.UserID),
			UserID:      r.UserID,
			URL:         r.WebhookURL,
			Body:        body,
			ScheduledAt: now.Add(d.cfg.BaseDelay + time.Duration(n)*d.cfg.Stagger),
		}
		n++

		replaced, ok := d.queue.upsert(job, d.cfg.MaxQueue)
		switch {
		case !ok:
			d.stats.Overflow++
			d.logger.Warn("webhook queue full, job dropped", "job_id", job.ID, "queue_size", d.queue.Len())
		case replaced:
			d.stats.Replaced++
			d.logger.Debug("webhook job replaced", "job_id", job.ID, "run_at", job.ScheduledAt)
		default:
			d.logger.Debug("webhook job scheduled", "job_id", job.ID, "run_at", job.ScheduledAt)
		}
	}
	d.mu.Unlock()

	d.signal()
}

// Start launches the scheduler goroutine. Jobs that became due while the
// scheduler was stopped fire if still within the grace window.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.stats.Running {
		d.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.stats.Running = true
	d.mu.Unlock()

	d.logger.Info("webhook dispatcher started")
	go d.run(runCtx)
}

// Stop halts scheduling and waits for in-flight deliveries to finish.
// Pending jobs stay queued.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stats.Running {
		d.mu.Unlock()
		return
	}
	cancel, done := d.cancel, d.done
	d.stats.Running = false
	d.mu.Unlock()

	cancel()
	<-done
	d.wg.Wait()
	d.logger.Info("webhook dispatcher stopped")
}

// Pending reports the number of queued jobs.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Len()
}

// Scheduled returns the due time of a pending job.
func (d *Dispatcher) Scheduled(jobID string) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	job, ok := d.queue.get(jobID)
	if !ok {
		return time.Time{}, false
	}
	return job.ScheduledAt, true
}

// Status returns current counters.
func (d *Dispatcher) Status() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Pending = d.queue.Len()
	s.InFlight = len(d.inflight)
	return s
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		wait, ok := d.dispatchDue(ctx)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		var tick <-chan time.Time
		if ok {
			timer.Reset(wait)
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			return
		case <-d.wake:
		case <-tick:
		}
	}
}

// dispatchDue starts every due job it can and returns how long to wait for
// the next one.
func (d *Dispatcher) dispatchDue(ctx context.Context) (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for {
		job := d.queue.peek()
		if job == nil {
			return 0, false
		}
		now := d.now()
		if wait := job.runAt.Sub(now); wait > 0 {
			return wait, true
		}

		if late := now.Sub(job.ScheduledAt); late > d.cfg.Grace {
			d.queue.pop()
			d.stats.Expired++
			d.logger.Warn("webhook job missed its grace window, dropped",
				"job_id", job.ID, "late", late.String())
			continue
		}

		if _, busy := d.inflight[job.ID]; busy {
			d.queue.deferHead(now.Add(d.cfg.BusyDelay))
			continue
		}

		if !d.sem.TryAcquire(1) {
			// woken again when a delivery finishes
			return d.cfg.BusyDelay, true
		}

		d.queue.pop()
		d.inflight[job.ID] = struct{}{}
		d.wg.Add(1)
		go d.deliver(ctx, job)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job *Job) {
	defer d.wg.Done()
	defer d.sem.Release(1)

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := d.sender.Send(sendCtx, job.URL, job.Body)

	d.mu.Lock()
	delete(d.inflight, job.ID)
	d.queue.release(job.ID)
	if err != nil {
		d.stats.Failed++
	} else {
		d.stats.Delivered++
	}
	d.mu.Unlock()
	d.signal()

	if err != nil {
		d.logger.Warn("webhook delivery failed",
			"job_id", job.ID, "user_id", job.UserID, "error", err, "duration", time.Since(start))
		return
	}
	d.logger.Info("webhook delivered",
		"job_id", job.ID, "user_id", job.UserID, "duration", time.Since(start))
}
