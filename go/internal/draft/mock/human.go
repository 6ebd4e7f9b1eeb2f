package mock

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/draft/orchestrator"
	"github.com/mcdev12/livedraft/go/internal/draft/pick"
	"github.com/mcdev12/livedraft/go/internal/draft/repository"
	"github.com/mcdev12/livedraft/go/internal/models"
)

const (
	// seats pick among this many of the best players they think are left
	shortlist      = 10
	maxSeatRetries = 3
)

// seat is one simulated participant. Its board is the drafted set as the seat
// last saw it, so it goes stale between turns.
type seat struct {
	id    string
	slot  int
	rng   *rand.Rand
	board map[string]bool
}

// humanRun drives one human-mode draft. Every pick index is a round of
// concurrent submissions: the on-clock seat picks (or lets its window run out)
// while off-clock seats race it with out-of-turn picks.
type humanRun struct {
	cfg     Config
	draftID uuid.UUID
	clock   clockwork.Clock
	store   *repository.MemoryStore
	picks   *pick.App
	monitor *orchestrator.Monitor
	ranked  []models.Player
	seats   []*seat
	bySeat  map[string]*seat
	rng     *rand.Rand

	skipped    atomic.Int64
	outOfTurn  atomic.Int64
	retries    atomic.Int64
	duplicates atomic.Int64
	replays    atomic.Int64
	failOnce   sync.Once
	failure    error
}

func newHumanRun(cfg Config, draftID uuid.UUID, clock clockwork.Clock, store *repository.MemoryStore, picks *pick.App, monitor *orchestrator.Monitor, participants []Participant, pool []models.Player) *humanRun {
	ranked := make([]models.Player, 0, len(pool))
	for _, p := range pool {
		if p.Eligible {
			ranked = append(ranked, p)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		if ranked[i].FantasyPoints != ranked[j].FantasyPoints {
			return ranked[i].FantasyPoints > ranked[j].FantasyPoints
		}
		return ranked[i].ID < ranked[j].ID
	})

	r := &humanRun{
		cfg:     cfg,
		draftID: draftID,
		clock:   clock,
		store:   store,
		picks:   picks,
		monitor: monitor,
		ranked:  ranked,
		bySeat:  make(map[string]*seat, len(participants)),
		rng:     seedRand(cfg.Seed + ":harness"),
	}
	for _, p := range participants {
		s := &seat{
			id:    p.ID,
			slot:  p.Slot,
			rng:   seedRand(fmt.Sprintf("%s:seat:%d", cfg.Seed, p.Slot)),
			board: map[string]bool{},
		}
		r.seats = append(r.seats, s)
		r.bySeat[s.id] = s
	}
	return r
}

// run plays the draft from snap until it completes.
func (r *humanRun) run(ctx context.Context, snap *models.DraftState) (*models.DraftState, error) {
	var err error
	for snap.Phase == models.DraftPhaseDrafting {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		index := snap.PickIndex
		onClock, ok := r.bySeat[snap.OnClockParticipantID]
		if !ok {
			return nil, fmt.Errorf("pick %d: %s is not a seat in this draft", index, snap.OnClockParticipantID)
		}

		// Decisions are drawn here, in pick order, so the run does not depend
		// on goroutine scheduling for its random choices.
		skip := onClock.rng.Float64() < r.cfg.SkipRate
		double := r.rng.Float64() < r.cfg.DoubleSubmitRate

		var wg sync.WaitGroup
		for _, s := range r.seats {
			if s == onClock || r.rng.Float64() >= r.cfg.OutOfTurnRate {
				continue
			}
			playerID := r.ranked[r.rng.IntN(min(shortlist, len(r.ranked)))].ID
			wg.Add(1)
			go func(s *seat) {
				defer wg.Done()
				r.submitOutOfTurn(ctx, s, index, playerID)
			}(s)
		}
		if !skip {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.takeTurn(ctx, onClock, index, double)
			}()
		}
		wg.Wait()
		if r.failure != nil {
			return nil, r.failure
		}

		snap, err = r.store.GetSnapshot(ctx, r.draftID)
		if err != nil {
			return nil, err
		}
		if snap.Phase == models.DraftPhaseDrafting && snap.PickIndex == index {
			r.skipped.Add(1)
			if snap, err = r.expire(ctx, snap); err != nil {
				return nil, err
			}
		}
	}
	return snap, nil
}

// takeTurn submits the seat's pick. A stale board can name a player who is
// already gone; the seat then refreshes its board and tries again.
func (r *humanRun) takeTurn(ctx context.Context, s *seat, index int, double bool) {
	key := fmt.Sprintf("SEAT-%d-%s-%d", s.slot, r.draftID, index)
	for attempt := 0; attempt <= maxSeatRetries; attempt++ {
		playerID := r.choose(s)
		if playerID == "" {
			return
		}
		req := pick.MakePickRequest{DraftID: r.draftID, ParticipantID: s.id, PlayerID: playerID, IdempotencyKey: key}

		var err error
		if double {
			err = r.submitTwice(ctx, req)
			double = false
		} else {
			_, err = r.picks.ApplyPick(ctx, req)
		}

		switch {
		case err == nil:
			s.board[playerID] = true
			return
		case errors.Is(err, drafterr.ErrPlayerAlreadyDrafted):
			r.retries.Add(1)
			if err := r.refresh(ctx, s); err != nil {
				r.fail(err)
				return
			}
		case drafterr.IsValidation(err) || errors.Is(err, drafterr.ErrVersionConflict):
			// Lost the turn; the window runs out and autopick covers it.
			log.Debug().Err(err).Int("slot", s.slot).Int("pick_index", index).Msg("seat lost its turn")
			return
		default:
			r.fail(fmt.Errorf("seat %d pick %d: %w", s.slot, index, err))
			return
		}
	}
}

// submitTwice sends the same request from two goroutines at once. Exactly one
// of them records the pick; the other must come back as a replay.
func (r *humanRun) submitTwice(ctx context.Context, req pick.MakePickRequest) error {
	r.duplicates.Add(1)

	var wg sync.WaitGroup
	results := make([]*pick.Result, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.picks.ApplyPick(ctx, req)
		}(i)
	}
	wg.Wait()

	for i := range 2 {
		if errs[i] == nil && results[i].Replayed {
			r.replays.Add(1)
		}
	}
	for i := range 2 {
		if errs[i] == nil {
			return nil
		}
	}
	return errs[0]
}

// submitOutOfTurn picks for a seat that is not on the clock. It is normally
// rejected, but it lands when the turn reached the seat in the meantime.
func (r *humanRun) submitOutOfTurn(ctx context.Context, s *seat, index int, playerID string) {
	r.outOfTurn.Add(1)
	req := pick.MakePickRequest{
		DraftID:        r.draftID,
		ParticipantID:  s.id,
		PlayerID:       playerID,
		IdempotencyKey: fmt.Sprintf("EARLY-%d-%s-%d", s.slot, r.draftID, index),
	}
	_, err := r.picks.ApplyPick(ctx, req)
	if err == nil || drafterr.IsValidation(err) || errors.Is(err, drafterr.ErrVersionConflict) {
		return
	}
	r.fail(fmt.Errorf("out-of-turn pick by seat %d: %w", s.slot, err))
}

// expire waits out the pick window and lets the timeout monitor autopick.
func (r *humanRun) expire(ctx context.Context, snap *models.DraftState) (*models.DraftState, error) {
	if wait := snap.DeadlineAt.Sub(r.clock.Now()); wait > 0 {
		timer := r.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.Chan():
		}
	}
	next, err := r.monitor.CheckDraft(ctx, r.draftID)
	if err != nil {
		return nil, fmt.Errorf("autopick failed at pick %d: %w", snap.PickIndex, err)
	}
	return next, nil
}

// choose picks at random among the seat's shortlist of players it believes
// are still available.
func (r *humanRun) choose(s *seat) string {
	var options []string
	for _, p := range r.ranked {
		if !s.board[p.ID] {
			options = append(options, p.ID)
			if len(options) == shortlist {
				break
			}
		}
	}
	if len(options) == 0 {
		return ""
	}
	return options[s.rng.IntN(len(options))]
}

func (r *humanRun) refresh(ctx context.Context, s *seat) error {
	records, err := r.picks.ListPicks(ctx, r.draftID)
	if err != nil {
		return err
	}
	for _, rec := range records {
		s.board[rec.PlayerID] = true
	}
	return nil
}

func (r *humanRun) fail(err error) {
	r.failOnce.Do(func() { r.failure = err })
}

func (r *humanRun) fillMetrics(m *Metrics) {
	m.SkippedTurns = int(r.skipped.Load())
	m.OutOfTurnAttempts = int(r.outOfTurn.Load())
	m.ConcurrencyRetries = int(r.retries.Load())
	m.DuplicateSubmissions = int(r.duplicates.Load())
	m.Replays = int(r.replays.Load())
}
