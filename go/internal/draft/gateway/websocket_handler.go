package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
)

// WebSocketHandler handles WebSocket upgrade requests for draft connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	provider          StateProvider
	clock             clockwork.Clock
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, provider StateProvider, clock clockwork.Clock) *WebSocketHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WebSocketHandler{
		connectionManager: cm,
		provider:          provider,
		clock:             clock,
	}
}

// HandleDraftConnection upgrades /ws/draft?draft_id=... and pushes the
// current snapshot as the first message.
func (h *WebSocketHandler) HandleDraftConnection(w http.ResponseWriter, r *http.Request) {
	draftIDStr := r.URL.Query().Get("draft_id")
	if draftIDStr == "" {
		http.Error(w, "draft_id is required", http.StatusBadRequest)
		return
	}

	draftID, err := uuid.Parse(draftIDStr)
	if err != nil {
		http.Error(w, "invalid draft_id format", http.StatusBadRequest)
		return
	}

	participantID := r.URL.Query().Get("participant_id")
	if participantID == "" {
		participantID = "spectator"
	}

	var initial *DraftMessage
	snap, err := h.provider.GetState(r.Context(), draftID)
	switch {
	case err == nil:
		initial = &DraftMessage{
			DraftID:   draftID.String(),
			Type:      MessageTypeSnapshot,
			Timestamp: h.clock.Now().UTC(),
			State:     snap,
		}
	case errors.Is(err, drafterr.ErrSnapshotNotFound), errors.Is(err, drafterr.ErrDraftNotStarted):
		// Not started yet; the DraftStarted event will carry the first snapshot.
	default:
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to read snapshot for new connection")
		http.Error(w, "failed to read draft state", http.StatusInternalServerError)
		return
	}

	if err := h.connectionManager.UpgradeConnection(w, r, participantID, draftID, initial); err != nil {
		// The upgrader has already written the HTTP error.
		log.Error().
			Err(err).
			Str("draft_id", draftID.String()).
			Str("participant_id", participantID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/draft", h.HandleDraftConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
