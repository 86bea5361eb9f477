// Package commitlog is the commit boundary of the engine. It enforces the
// invariant that a work order has at most one active assignment: commits
// are compare-and-set against the active set, and a lost race surfaces as
// a CONFLICT the caller retries against a fresh snapshot.
package commitlog

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/fieldsched/core/model"
)

// ErrConflict signals a commit that lost the compare-and-set race.
var ErrConflict = errors.New("commitlog: work order already actively scheduled")

// ErrNotFound signals a revert of an unknown or evicted entry.
var ErrNotFound = errors.New("commitlog: entry not found")

// Entry is one committed assignment, independently reversible.
type Entry struct {
	ID        string             `json:"id"`
	Placement model.ScheduledJob `json:"placement"`
	RunID     string             `json:"run_id"`
	Committed time.Time          `json:"committed"`
	Reverted  bool               `json:"reverted"`
}

// Log is the in-memory commit log. It is safe for concurrent use; this is
// the only locking in the engine.
type Log struct {
	mu      sync.Mutex
	limit   int
	entries []*Entry
	active  map[int]*Entry
	now     func() time.Time
}

// New builds a log that retains at most limit entries. Oldest reverted or
// superseded entries are evicted first when the log is full.
func New(limit int) *Log {
	if limit <= 0 {
		limit = 1024
	}
	return &Log{
		limit:  limit,
		active: make(map[int]*Entry),
		now:    time.Now,
	}
}

// Commit records a placement if its work order is not already active. The
// check and the insert are one atomic step.
func (l *Log) Commit(runID string, p model.ScheduledJob) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.active[p.WorkOrder]; ok {
		return nil, fmt.Errorf("%w: work order %d committed by run %s", ErrConflict, p.WorkOrder, cur.RunID)
	}
	e := &Entry{
		ID:        uuid.NewString(),
		Placement: p,
		RunID:     runID,
		Committed: l.now(),
	}
	l.entries = append(l.entries, e)
	l.active[p.WorkOrder] = e
	l.evict()
	return e, nil
}

// Revert withdraws a committed entry, freeing its work order for a new
// assignment.
func (l *Log) Revert(entryID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.ID != entryID {
			continue
		}
		if e.Reverted {
			return fmt.Errorf("%w: entry %s already reverted", ErrNotFound, entryID)
		}
		e.Reverted = true
		delete(l.active, e.Placement.WorkOrder)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotFound, entryID)
}

// Active returns the placements currently in force, in commit order.
func (l *Log) Active() []model.ScheduledJob {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.ScheduledJob, 0, len(l.active))
	for _, e := range l.entries {
		if !e.Reverted {
			out = append(out, e.Placement)
		}
	}
	return out
}

// Len returns the number of retained entries, reverted included.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// evict drops the oldest reverted entries once the log is over its limit.
// Active entries are never evicted; the log may exceed its limit when all
// retained entries are still in force.
func (l *Log) evict() {
	if len(l.entries) <= l.limit {
		return
	}
	kept := l.entries[:0]
	over := len(l.entries) - l.limit
	for _, e := range l.entries {
		if over > 0 && e.Reverted {
			over--
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept
}
