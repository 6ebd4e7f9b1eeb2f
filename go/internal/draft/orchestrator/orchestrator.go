package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/repository"
	"github.com/mcdev12/livedraft/go/internal/models"
)

const (
	DefaultWorkers   = 10
	DefaultBatchSize = 100
	DefaultIdlePoll  = 5 * time.Second

	// settle delay after dispatching a batch, so the loop does not spin on
	// drafts that are still in flight.
	dispatchSettle = 250 * time.Millisecond
	maxRetries     = 3

	// upper bound for the retry delay of a draft with no players left
	maxStallBackoff = 5 * time.Minute
)

// DeadlineSource finds drafting snapshots whose deadline is coming up or due.
type DeadlineSource interface {
	FetchNextDeadline(ctx context.Context, exclude []uuid.UUID) (*repository.NextDeadline, error)
	FetchDraftsDueForPick(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error)
}

// DraftChecker runs the timeout check for one draft.
type DraftChecker interface {
	CheckDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
}

// Config tunes the scheduler loop.
type Config struct {
	Workers   int
	BatchSize int32
	IdlePoll  time.Duration
}

// Orchestrator sleeps until the earliest pick deadline and hands due drafts to
// a worker pool. Decisions are made by the checker from a fresh read, so any
// number of orchestrators can run against the same store.
type Orchestrator struct {
	source     DeadlineSource
	checker    DraftChecker
	clock      clockwork.Clock
	batchSize  int32
	idlePoll   time.Duration
	wakeCh     chan struct{}
	instanceID string // unique ID for this scheduler instance

	// Worker pool configuration
	numWorkers int
	workCh     chan uuid.UUID

	// Track in-flight work to prevent duplicate processing
	inFlight   map[uuid.UUID]bool
	inFlightMu sync.Mutex

	// drafts whose autopick found no players, retried with backoff
	stalled   map[uuid.UUID]stall
	stalledMu sync.Mutex
}

type stall struct {
	retryAt  time.Time
	failures int
}

// NewOrchestrator creates a new draft orchestrator with worker pool
func NewOrchestrator(source DeadlineSource, checker DraftChecker, clock clockwork.Clock, cfg Config) *Orchestrator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.IdlePoll <= 0 {
		cfg.IdlePoll = DefaultIdlePoll
	}
	return &Orchestrator{
		source:     source,
		checker:    checker,
		clock:      clock,
		batchSize:  cfg.BatchSize,
		idlePoll:   cfg.IdlePoll,
		wakeCh:     make(chan struct{}, 1),
		instanceID: uuid.New().String()[:8], // short ID for logging

		numWorkers: cfg.Workers,
		workCh:     make(chan uuid.UUID, cfg.Workers*2),
		inFlight:   make(map[uuid.UUID]bool),
		stalled:    make(map[uuid.UUID]stall),
	}
}

// Wake makes the loop re-read the next deadline, e.g. after a pick moved it.
func (o *Orchestrator) Wake() {
	select {
	case o.wakeCh <- struct{}{}:
	default:
	}
}

// RunScheduler loops until ctx is done, sleeping until the next deadline and
// dispatching due drafts.
func (o *Orchestrator) RunScheduler(ctx context.Context) error {
	log.Info().Str("instance", o.instanceID).Int("workers", o.numWorkers).Msg("scheduler started")

	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < o.numWorkers; i++ {
		wg.Add(1)
		go o.worker(workerCtx, &wg, i)
	}

	defer func() {
		log.Info().Str("instance", o.instanceID).Msg("shutting down workers")
		cancelWorkers()
		close(o.workCh)
		wg.Wait()
		log.Info().Str("instance", o.instanceID).Msg("all workers shut down")
	}()

	timer := o.clock.NewTimer(o.idlePoll)
	defer timer.Stop()

	retryCount := 0
	for {
		select {
		case <-o.wakeCh:
			log.Debug().Str("instance", o.instanceID).Msg("drained wake channel")
		default:
		}

		stalled, retryAt := o.stalledDrafts(o.clock.Now())
		nd, err := o.source.FetchNextDeadline(ctx, stalled)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			retryCount++
			if retryCount > maxRetries {
				log.Error().Err(err).Str("instance", o.instanceID).Msg("error fetching next deadline after retries")
				return err
			}
			log.Error().
				Err(err).
				Int("retry", retryCount).
				Str("instance", o.instanceID).
				Msg("error fetching next deadline, retrying")
			if !o.sleep(ctx, timer, time.Second*time.Duration(retryCount), false) {
				return nil
			}
			continue
		}
		retryCount = 0

		if nd == nil || nd.Deadline == nil {
			wait := o.idlePoll
			if retryAt != nil && retryAt.Sub(o.clock.Now()) < wait {
				wait = retryAt.Sub(o.clock.Now())
			}
			log.Debug().Str("instance", o.instanceID).Dur("wait", wait).Int("stalled", len(stalled)).Msg("no drafting drafts; idling")
			if !o.sleep(ctx, timer, wait, true) {
				log.Info().Str("instance", o.instanceID).Msg("shutdown during idle")
				return nil
			}
			continue
		}

		next := *nd.Deadline
		if retryAt != nil && retryAt.Before(next) {
			next = *retryAt
		}
		if wait := next.Sub(o.clock.Now()); wait > 0 {
			if !o.sleep(ctx, timer, wait, true) {
				log.Info().Str("instance", o.instanceID).Msg("shutdown during wait")
				return nil
			}
			// Woken early or the deadline passed; re-read either way since
			// the draft may have advanced in the meantime.
			continue
		}

		due, err := o.source.FetchDraftsDueForPick(ctx, o.clock.Now(), o.batchSize)
		if err != nil {
			log.Error().Err(err).Str("instance", o.instanceID).Msg("error fetching due drafts")
			if !o.sleep(ctx, timer, time.Second, false) {
				return nil
			}
			continue
		}

		if len(due) > 0 {
			log.Info().
				Int("count_due", len(due)).
				Int32("batch_size", o.batchSize).
				Str("instance", o.instanceID).
				Msg("processing due drafts")
		}
		if !o.dispatch(ctx, due) {
			log.Info().Str("instance", o.instanceID).Msg("shutdown while queueing timeouts")
			return nil
		}
		if !o.sleep(ctx, timer, dispatchSettle, true) {
			return nil
		}
	}
}

// dispatch queues due drafts that are not already being handled.
func (o *Orchestrator) dispatch(ctx context.Context, due []uuid.UUID) bool {
	now := o.clock.Now()
	for _, draftID := range due {
		if o.isStalled(draftID, now) {
			continue
		}
		o.inFlightMu.Lock()
		if o.inFlight[draftID] {
			log.Debug().Str("draft_id", draftID.String()).Str("instance", o.instanceID).Msg("skipping draft already in flight")
			o.inFlightMu.Unlock()
			continue
		}
		o.inFlight[draftID] = true
		o.inFlightMu.Unlock()

		select {
		case <-ctx.Done():
			o.inFlightMu.Lock()
			delete(o.inFlight, draftID)
			o.inFlightMu.Unlock()
			return false
		case o.workCh <- draftID:
			log.Debug().Str("draft_id", draftID.String()).Str("instance", o.instanceID).Msg("queued timeout for worker")
		}
	}
	return true
}

func (o *Orchestrator) isStalled(draftID uuid.UUID, now time.Time) bool {
	o.stalledMu.Lock()
	defer o.stalledMu.Unlock()
	st, ok := o.stalled[draftID]
	return ok && now.Before(st.retryAt)
}

// stalledDrafts returns the drafts still waiting out a stall and the earliest
// time one of them is due for a retry. Entries long past their retry are
// dropped; the draft left drafting some other way.
func (o *Orchestrator) stalledDrafts(now time.Time) ([]uuid.UUID, *time.Time) {
	o.stalledMu.Lock()
	defer o.stalledMu.Unlock()

	var ids []uuid.UUID
	var earliest *time.Time
	for id, st := range o.stalled {
		if !now.Before(st.retryAt) {
			if now.Sub(st.retryAt) > maxStallBackoff {
				delete(o.stalled, id)
			}
			continue
		}
		ids = append(ids, id)
		if earliest == nil || st.retryAt.Before(*earliest) {
			t := st.retryAt
			earliest = &t
		}
	}
	return ids, earliest
}

// markStalled doubles the retry delay on every consecutive failure, starting
// at idlePoll.
func (o *Orchestrator) markStalled(draftID uuid.UUID) {
	o.stalledMu.Lock()
	defer o.stalledMu.Unlock()

	st := o.stalled[draftID]
	st.failures++
	backoff := o.idlePoll
	for i := 1; i < st.failures && backoff < maxStallBackoff; i++ {
		backoff *= 2
	}
	backoff = min(backoff, maxStallBackoff)
	st.retryAt = o.clock.Now().Add(backoff)
	o.stalled[draftID] = st

	log.Warn().
		Str("draft_id", draftID.String()).
		Str("instance", o.instanceID).
		Int("failures", st.failures).
		Dur("retry_in", backoff).
		Msg("draft stalled with no players available")
}

func (o *Orchestrator) clearStalled(draftID uuid.UUID) {
	o.stalledMu.Lock()
	defer o.stalledMu.Unlock()
	delete(o.stalled, draftID)
}

// sleep waits for d, a wake (when wakeable) or shutdown. It returns false on
// shutdown.
func (o *Orchestrator) sleep(ctx context.Context, timer clockwork.Timer, d time.Duration, wakeable bool) bool {
	stopAndDrainTimer(timer)
	timer.Reset(d)

	var wake <-chan struct{}
	if wakeable {
		wake = o.wakeCh
	}
	select {
	case <-timer.Chan():
	case <-wake:
		log.Debug().Str("instance", o.instanceID).Msg("woken up early")
	case <-ctx.Done():
		return false
	}
	return true
}

func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
