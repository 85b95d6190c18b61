// Package job keeps the state of asynchronous watchlist scans in memory.
package job

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/checksignal/internal/api/response"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/scoring"
)

// Status represents job status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Entry is the outcome for one symbol of a scan.
type Entry struct {
	Symbol string                `json:"symbol"`
	Report *scoring.Report       `json:"report,omitempty"`
	Error  *response.ErrorDetail `json:"error,omitempty"`
}

// Job is one scan over a list of symbols.
type Job struct {
	ID        string       `json:"id"`
	Symbols   []string     `json:"symbols"`
	Explain   bool         `json:"explain"`
	Status    Status       `json:"status"`
	Progress  int          `json:"progress"`
	Entries   []Entry      `json:"entries,omitempty"`
	Alerts    []core.Alert `json:"alerts,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Done reports whether the job has stopped changing.
func (j *Job) Done() bool {
	return j.Status == StatusComplete || j.Status == StatusFailed
}

// Store manages scan jobs. Finished jobs older than ttl are dropped on access
// and the oldest finished job is evicted once maxSize is reached.
type Store struct {
	jobs    map[string]*Job
	order   []string // insertion order for eviction
	maxSize int
	ttl     time.Duration
	mu      sync.RWMutex
	now     func() time.Time
}

// NewStore creates a new job store.
func NewStore(maxSize int, ttl time.Duration) *Store {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Store{
		jobs:    make(map[string]*Job),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create registers a pending scan of symbols and returns a copy of it. It
// fails with ErrBusy when the store is full of unfinished jobs.
func (s *Store) Create(symbols []string, explain bool) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire()
	if len(s.jobs) >= s.maxSize && !s.evictFinished() {
		return Job{}, core.WrapError(core.ErrBusy, fmt.Errorf("%d scans still running", len(s.jobs)))
	}

	now := s.now()
	job := &Job{
		ID:        uuid.NewString(),
		Symbols:   append([]string(nil), symbols...),
		Explain:   explain,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	return copyJob(job), nil
}

// evictFinished drops the oldest finished job. Callers hold the write lock.
func (s *Store) evictFinished() bool {
	for i, id := range s.order {
		if s.jobs[id].Done() {
			delete(s.jobs, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			return true
		}
	}
	return false
}

// Get retrieves a job by ID.
func (s *Store) Get(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, notFound(id)
	}
	return copyJob(job), nil
}

// Update modifies a job in place.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return notFound(id)
	}

	fn(job)
	job.UpdatedAt = s.now()
	return nil
}

// List returns all live jobs, newest first, without their entries.
func (s *Store) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire()
	result := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		j := copyJob(job)
		j.Entries = nil
		result = append(result, j)
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].CreatedAt.After(result[b].CreatedAt)
	})
	return result
}

// expire drops finished jobs older than ttl. Callers hold the write lock.
func (s *Store) expire() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	kept := s.order[:0]
	for _, id := range s.order {
		job := s.jobs[id]
		if job.Done() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

func copyJob(j *Job) Job {
	c := *j
	c.Symbols = append([]string(nil), j.Symbols...)
	c.Entries = append([]Entry(nil), j.Entries...)
	c.Alerts = append([]core.Alert(nil), j.Alerts...)
	return c
}

func notFound(id string) error {
	return core.WrapError(core.ErrNoData, fmt.Errorf("no scan with id %q", id))
}
