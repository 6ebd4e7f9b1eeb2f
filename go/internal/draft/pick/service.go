package pick

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mcdev12/livedraft/go/internal/connectutil"
	"github.com/mcdev12/livedraft/go/internal/models"
)

const ServiceName = "livedraft.draft.v1.PickService"

// PickApp defines what the service layer needs from the pick application
type PickApp interface {
	ApplyPick(ctx context.Context, req MakePickRequest) (*Result, error)
	ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.PickRecord, error)
}

// Autopicker runs the timeout check for one draft.
type Autopicker interface {
	CheckDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
}

type MakePickResponse struct {
	State    *models.DraftState `json:"state"`
	Pick     *models.PickRecord `json:"pick,omitempty"`
	Replayed bool               `json:"replayed"`
}

type AutopickRequest struct {
	DraftID string `json:"draft_id"`
}

type AutopickResponse struct {
	State *models.DraftState `json:"state"`
}

type ListPicksRequest struct {
	DraftID string `json:"draft_id"`
}

type ListPicksResponse struct {
	Picks []models.PickRecord `json:"picks"`
}

// Service implements the PickService connect handlers
type Service struct {
	app      PickApp
	autopick Autopicker
}

// NewService creates a new pick service
func NewService(app PickApp, autopick Autopicker) *Service {
	return &Service{
		app:      app,
		autopick: autopick,
	}
}

// Handler mounts the service on a single path prefix.
func (s *Service) Handler() (string, http.Handler) {
	routes := connectutil.NewRoutes(ServiceName)
	connectutil.Unary(routes, "MakePick", s.MakePick)
	connectutil.Unary(routes, "Autopick", s.Autopick)
	connectutil.Unary(routes, "ListPicks", s.ListPicks)
	return routes.Handler()
}

// MakePick submits a participant's pick
func (s *Service) MakePick(ctx context.Context, req *connect.Request[MakePickRequest]) (*connect.Response[MakePickResponse], error) {
	res, err := s.app.ApplyPick(ctx, *req.Msg)
	if err != nil {
		return nil, connectutil.Error(err)
	}
	return connect.NewResponse(&MakePickResponse{
		State:    res.State,
		Pick:     res.Pick,
		Replayed: res.Replayed,
	}), nil
}

// Autopick runs the timeout check now instead of waiting for the scheduler.
func (s *Service) Autopick(ctx context.Context, req *connect.Request[AutopickRequest]) (*connect.Response[AutopickResponse], error) {
	draftID, err := uuid.Parse(req.Msg.DraftID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	st, err := s.autopick.CheckDraft(ctx, draftID)
	if err != nil {
		return nil, connectutil.Error(err)
	}
	return connect.NewResponse(&AutopickResponse{State: st}), nil
}

func (s *Service) ListPicks(ctx context.Context, req *connect.Request[ListPicksRequest]) (*connect.Response[ListPicksResponse], error) {
	draftID, err := uuid.Parse(req.Msg.DraftID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	picks, err := s.app.ListPicks(ctx, draftID)
	if err != nil {
		return nil, connectutil.Error(err)
	}
	return connect.NewResponse(&ListPicksResponse{Picks: picks}), nil
}
