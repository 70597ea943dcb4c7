package webhook

import (
	"container/heap"
	"fmt"
	"time"
)

// JobID is the deduplicating identity of a notification: one pending job per
// object and recipient.
func JobID(objectID, userID string) string {
	return fmt.Sprintf("webhook_object_updated_%s_user_%s", objectID, userID)
}

// Job is one scheduled delivery. It lives only in memory.
type Job struct {
	ID          string
	UserID      string
	URL         string
	Body        []byte
	ScheduledAt time.Time // due time, used for the grace window
	runAt       time.Time // heap key; later than ScheduledAt when deferred
	index       int
}

// jobQueue is a min-heap on runAt with an index by job ID.
type jobQueue struct {
	items []*Job
	byID  map[string]*Job
}

func newJobQueue() *jobQueue {
	return &jobQueue{byID: make(map[string]*Job)}
}

func (q *jobQueue) Len() int { return len(q.items) }

func (q *jobQueue) Less(i, j int) bool {
	return q.items[i].runAt.Before(q.items[j].runAt)
}

func (q *jobQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *jobQueue) Push(x any) {
	job := x.(*Job)
	job.index = len(q.items)
	q.items = append(q.items, job)
	q.byID[job.ID] = job
}

func (q *jobQueue) Pop() any {
	old := q.items
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	job.index = -1
	delete(q.byID, job.ID)
	return job
}

// upsert schedules job, replacing a pending job with the same ID. It reports
// whether the job was stored; a new ID is refused once limit is reached.
func (q *jobQueue) upsert(job *Job, limit int) (replaced, ok bool) {
	job.runAt = job.ScheduledAt
	if existing, found := q.byID[job.ID]; found {
		existing.UserID = job.UserID
		existing.URL = job.URL
		existing.Body = job.Body
		existing.ScheduledAt = job.ScheduledAt
		existing.runAt = job.runAt
		heap.Fix(q, existing.index)
		return true, true
	}
	if limit > 0 && q.Len() >= limit {
		return false, false
	}
	heap.Push(q, job)
	return false, true
}

func (q *jobQueue) peek() *Job {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *jobQueue) pop() *Job {
	return heap.Pop(q).(*Job)
}

// deferHead moves the head job's next attempt to at, keeping its due time.
func (q *jobQueue) deferHead(at time.Time) {
	job := q.items[0]
	job.runAt = at
	heap.Fix(q, 0)
}

// release makes a job deferred behind an in-flight attempt runnable at its
// original due time.
func (q *jobQueue) release(id string) {
	job, ok := q.byID[id]
	if !ok || !job.runAt.After(job.ScheduledAt) {
		return
	}
	job.runAt = job.ScheduledAt
	heap.Fix(q, job.index)
}

func (q *jobQueue) get(id string) (*Job, bool) {
	job, ok := q.byID[id]
	return job, ok
}
