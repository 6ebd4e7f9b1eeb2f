package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/draft/order"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// StateProvider reads the authoritative snapshot of a draft
type StateProvider interface {
	GetState(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
}

// UpcomingProvider previews the next picks after a snapshot
type UpcomingProvider interface {
	Upcoming(ctx context.Context, snap *models.DraftState, n int) ([]order.Slot, error)
}

// StateResponse is the body of GET /api/drafts/state
type StateResponse struct {
	State            *models.DraftState `json:"state"`
	Upcoming         []order.Slot       `json:"upcoming,omitempty"`
	RemainingSeconds int                `json:"remaining_seconds"`
}

const defaultUpcoming = 8

// StateHandler handles HTTP requests for draft state
type StateHandler struct {
	provider StateProvider
	upcoming UpcomingProvider
}

// NewStateHandler creates a new state handler. upcoming may be nil.
func NewStateHandler(provider StateProvider, upcoming UpcomingProvider) *StateHandler {
	return &StateHandler{
		provider: provider,
		upcoming: upcoming,
	}
}

// HandleGetDraftState handles GET /api/drafts/state?draft_id=...&upcoming=n
func (h *StateHandler) HandleGetDraftState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	draftID, err := uuid.Parse(r.URL.Query().Get("draft_id"))
	if err != nil {
		http.Error(w, "invalid draft_id", http.StatusBadRequest)
		return
	}

	n := defaultUpcoming
	if raw := r.URL.Query().Get("upcoming"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid upcoming", http.StatusBadRequest)
			return
		}
	}

	snap, err := h.provider.GetState(r.Context(), draftID)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, drafterr.ErrSnapshotNotFound),
			errors.Is(err, drafterr.ErrDraftNotStarted),
			errors.Is(err, drafterr.ErrDraftNotFound):
			status = http.StatusNotFound
		default:
			log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to get draft state")
		}
		http.Error(w, drafterr.Kind(err), status)
		return
	}

	resp := StateResponse{State: snap}
	if snap.Phase == models.DraftPhaseDrafting {
		if remaining := snap.DeadlineAt.Sub(snap.ServerNow); remaining > 0 {
			resp.RemainingSeconds = int(remaining.Seconds())
		}
	}
	if h.upcoming != nil && n > 0 {
		slots, err := h.upcoming.Upcoming(r.Context(), snap, n)
		if err != nil {
			log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("failed to preview upcoming picks")
		}
		resp.Upcoming = slots
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to encode draft state response")
	}
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/drafts/state", h.HandleGetDraftState)
}
