// Package poller drives a submitted dataset job to a terminal state.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/webpuppy/webhound-go/internal/client"
	"github.com/webpuppy/webhound-go/internal/models"
	"github.com/webpuppy/webhound-go/internal/validation"
)

//go:generate mockgen -source=poller.go -destination=mocks/mock_api.go -package=mocks

// API is the slice of the dataset service the poller depends on.
type API interface {
	GenerateDataset(ctx context.Context, query string) (*models.GenerateResponse, error)
	GetResults(ctx context.Context, jobID string) (*models.DatasetResult, error)
}

type State string

const (
	StateIdle            State = "idle"
	StateSubmitting      State = "submitting"
	StatePolling         State = "polling"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
	StateQuotaExceeded   State = "quota_exceeded"
	StateTimedOut        State = "timed_out"
	StateSubmissionError State = "submission_error"
	StatePollError       State = "poll_error"
)

// Terminal reports whether the session has ended; only a new Submit or
// Cancel moves the poller out of a terminal state.
func (s State) Terminal() bool {
	switch s {
	case StateIdle, StateSubmitting, StatePolling:
		return false
	}
	return true
}

// Snapshot is the externally visible poller state. Values are immutable once
// handed out; each transition produces a fresh one.
type Snapshot struct {
	State   State
	Query   string
	JobID   string
	Attempt int
	Result  *models.DatasetResult
	Message string
	Err     error
}

// Options bound a poll session. MaxAttempts and MaxDuration express the same
// bound at the poll cadence; whichever is unset is derived from the other so
// the two always agree.
type Options struct {
	Interval    time.Duration
	MaxDuration time.Duration
	MaxAttempts int
}

const (
	defaultInterval    = 2 * time.Second
	defaultMaxDuration = 5 * time.Minute
)

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	if o.MaxDuration <= 0 {
		if o.MaxAttempts > 0 {
			o.MaxDuration = time.Duration(o.MaxAttempts) * o.Interval
		} else {
			o.MaxDuration = defaultMaxDuration
		}
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = int(o.MaxDuration / o.Interval)
		if o.MaxAttempts < 1 {
			o.MaxAttempts = 1
		}
	}
	return o
}

// Poller owns at most one active poll session at a time. Submitting while a
// session is live cancels it first; a superseded session can never write
// state again.
type Poller struct {
	api    API
	opts   Options
	logger *zerolog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	snapshot   Snapshot
	updates    chan Snapshot
}

func New(api API, opts Options, logger *zerolog.Logger) *Poller {
	return &Poller{
		api:      api,
		opts:     opts.withDefaults(),
		logger:   logger,
		snapshot: Snapshot{State: StateIdle},
		updates:  make(chan Snapshot, 16),
	}
}

// Snapshot returns the current state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// Updates delivers state transitions to an observer. Sends never block; a
// slow observer misses intermediate snapshots, not the latest one reachable
// via Snapshot.
func (p *Poller) Updates() <-chan Snapshot {
	return p.updates
}

// Submit starts a new poll session for query, cancelling any session still
// running. The query is expected to have passed validation already; Submit
// performs no classification of its own.
func (p *Poller) Submit(ctx context.Context, query string) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	gen := p.generation

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.setLocked(Snapshot{State: StateSubmitting, Query: query})
	p.mu.Unlock()

	go p.run(runCtx, gen, query)
}

// Cancel stops the active session, if any, and resets to Idle.
func (p *Poller) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	p.setLocked(Snapshot{State: StateIdle})
}

func (p *Poller) run(ctx context.Context, gen uint64, query string) {
	resp, err := p.api.GenerateDataset(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn().Err(err).Msg("submission failed")
		p.set(gen, Snapshot{
			State:   StateSubmissionError,
			Query:   query,
			Message: submissionMessage(err),
			Err:     err,
		})
		return
	}

	jobID := resp.JobID
	p.logger.Info().Str("job_id", jobID).Msg("job submitted")
	if !p.set(gen, Snapshot{State: StatePolling, Query: query, JobID: jobID}) {
		return
	}

	// The recurring poll and the hard timeout are the session's only timers.
	// Both stop when this function returns, whatever the exit path.
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.opts.MaxDuration)
	defer deadline.Stop()

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return

		case <-deadline.C:
			p.logger.Warn().Str("job_id", jobID).Int("attempts", attempt).Msg("poll deadline reached")
			p.set(gen, Snapshot{
				State:   StateTimedOut,
				Query:   query,
				JobID:   jobID,
				Attempt: attempt,
				Message: "Request timed out",
			})
			return

		case <-ticker.C:
			// One awaited request per tick keeps polls strictly sequential;
			// a stale response can never land after a newer one.
			result, err := p.api.GetResults(ctx, jobID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Warn().Err(err).Str("job_id", jobID).Msg("poll failed")
				p.set(gen, Snapshot{
					State:   StatePollError,
					Query:   query,
					JobID:   jobID,
					Attempt: attempt,
					Message: "Failed to fetch results",
					Err:     err,
				})
				return
			}

			switch result.Status {
			case models.JobStatusCompleted:
				p.logger.Info().Str("job_id", jobID).Int("records", result.TotalRecords).Msg("job completed")
				p.set(gen, Snapshot{
					State:   StateCompleted,
					Query:   query,
					JobID:   jobID,
					Attempt: attempt,
					Result:  result,
				})
				return

			case models.JobStatusFailed:
				p.set(gen, Snapshot{
					State:   StateFailed,
					Query:   query,
					JobID:   jobID,
					Attempt: attempt,
					Result:  result,
					Message: notesOr(result, "Processing failed"),
				})
				return

			case models.JobStatusQuotaExceeded:
				p.set(gen, Snapshot{
					State:   StateQuotaExceeded,
					Query:   query,
					JobID:   jobID,
					Attempt: attempt,
					Result:  result,
					Message: notesOr(result, "API quota exceeded. Please try again later or upgrade your plan."),
				})
				return

			default:
				attempt++
				if attempt >= p.opts.MaxAttempts {
					p.logger.Warn().Str("job_id", jobID).Int("attempts", attempt).Msg("poll attempts exhausted")
					p.set(gen, Snapshot{
						State:   StateTimedOut,
						Query:   query,
						JobID:   jobID,
						Attempt: attempt,
						Message: "Request timed out",
					})
					return
				}
				if !p.set(gen, Snapshot{State: StatePolling, Query: query, JobID: jobID, Attempt: attempt}) {
					return
				}
			}
		}
	}
}

// set publishes a snapshot unless the session has been superseded.
func (p *Poller) set(gen uint64, snapshot Snapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return false
	}
	p.setLocked(snapshot)
	return true
}

func (p *Poller) setLocked(snapshot Snapshot) {
	p.snapshot = snapshot
	select {
	case p.updates <- snapshot:
	default:
	}
}

func submissionMessage(err error) string {
	var prepErr *client.PreprocessingError
	if errors.As(err, &prepErr) {
		reasons := make([]validation.ReasonCode, 0, len(prepErr.Data.BlockedReasons))
		for _, reason := range prepErr.Data.BlockedReasons {
			reasons = append(reasons, validation.ReasonCode(reason))
		}
		return validation.BlockedQueryMessage(reasons)
	}
	return err.Error()
}

func notesOr(result *models.DatasetResult, fallback string) string {
	if result.ValidationNotes != "" {
		return result.ValidationNotes
	}
	return fallback
}
