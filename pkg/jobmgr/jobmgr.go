// Package jobmgr runs named long-lived background jobs (gateway sessions,
// the status server) with cancellation, lifecycle reporting and in-memory
// tracking of what is running.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(ctx, jobmgr.LogReporter(log))
//
//	err := jm.StartAsync("status", func(ctx context.Context) error {
//	    // serve until ctx is cancelled
//	    return nil
//	})
//
//	// later...
//	jm.StopAll()
//	err = jm.Wait()
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ErrNotRunning is returned by Stop for unknown job names.
var ErrNotRunning = errors.New("job not running")

// Event is a job lifecycle transition.
type Event struct {
	Job   string
	State string // running, done, error
	Err   error
}

func (e Event) String() string {
	if e.Err != nil {
		return e.State + ":" + e.Job + ":" + e.Err.Error()
	}
	return e.State + ":" + e.Job
}

// StatusReporter receives lifecycle events for jobs.
type StatusReporter func(Event)

// LogReporter reports lifecycle events to a zerolog logger.
func LogReporter(log zerolog.Logger) StatusReporter {
	return func(e Event) {
		switch e.State {
		case "error":
			log.Error().Err(e.Err).Str("job", e.Job).Msg("job failed")
		case "running":
			log.Debug().Str("job", e.Job).Msg("job started")
		default:
			log.Info().Str("job", e.Job).Msg("job finished")
		}
	}
}

type job struct {
	name   string
	cancel context.CancelFunc
}

// Manager orchestrates starting, stopping and tracking jobs.
// It is safe for concurrent use.
type Manager struct {
	ctx      context.Context
	reporter StatusReporter

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup

	errMu    sync.Mutex
	firstErr error
}

// NewManager creates a Manager whose jobs derive from ctx.
// The reporter callback may be nil.
func NewManager(ctx context.Context, reporter StatusReporter) *Manager {
	return &Manager{
		ctx:      ctx,
		reporter: reporter,
		jobs:     make(map[string]*job),
	}
}

// StartAsync runs a job in a separate goroutine and returns immediately.
// If a job with the same name is already running, an error is returned.
// Jobs are removed automatically after completion (success or failure).
func (m *Manager) StartAsync(name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("job '%s' is already running", name)
	}
	ctx, cancel := context.WithCancel(m.ctx)
	j := &job{name: name, cancel: cancel}
	m.jobs[name] = j
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer cancel()
		m.report(Event{Job: name, State: "running"})

		err := runner(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			m.report(Event{Job: name, State: "error", Err: err})
			m.errMu.Lock()
			if m.firstErr == nil {
				m.firstErr = fmt.Errorf("%s: %w", name, err)
			}
			m.errMu.Unlock()
		} else {
			m.report(Event{Job: name, State: "done"})
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()

	return nil
}

// Stop cancels a running job by name.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRunning, name)
	}
	j.cancel()
	delete(m.jobs, name)
	return nil
}

// StopAll cancels every running job.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, j := range m.jobs {
		j.cancel()
		delete(m.jobs, name)
	}
}

// Wait blocks until every started job has returned and reports the first
// job failure, if any. Cancellation is not a failure.
func (m *Manager) Wait() error {
	m.wg.Wait()
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.firstErr
}

// List returns the sorted names of active jobs.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Status returns a human-readable summary of active jobs.
//
//	"Running jobs: discord, status"
//
// If none are running: "No jobs are running."
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}

func (m *Manager) report(e Event) {
	if m.reporter != nil {
		m.reporter(e)
	}
}
