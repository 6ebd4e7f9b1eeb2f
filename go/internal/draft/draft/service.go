package draft

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mcdev12/livedraft/go/internal/connectutil"
	"github.com/mcdev12/livedraft/go/internal/draft/order"
	"github.com/mcdev12/livedraft/go/internal/models"
)

const ServiceName = "livedraft.draft.v1.DraftService"

const defaultUpcoming = 8

// DraftApp defines what the service layer needs from the draft application
type DraftApp interface {
	CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	StartDraft(ctx context.Context, req StartDraftRequest) (*models.DraftState, error)
	PauseDraft(ctx context.Context, req LifecycleRequest) (*models.DraftState, error)
	ResumeDraft(ctx context.Context, req LifecycleRequest) (*models.DraftState, error)
	CancelDraft(ctx context.Context, req LifecycleRequest) (*models.DraftState, error)
	ForceReseed(ctx context.Context, req ForceReseedRequest) (*models.DraftState, error)
	GetState(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
	Upcoming(ctx context.Context, snap *models.DraftState, n int) ([]order.Slot, error)
}

type DraftResponse struct {
	Draft *models.Draft `json:"draft"`
}

type GetDraftRequest struct {
	DraftID string `json:"draft_id"`
}

type StateResponse struct {
	State *models.DraftState `json:"state"`
}

type GetStateRequest struct {
	DraftID  string `json:"draft_id"`
	Upcoming int    `json:"upcoming"`
}

type GetStateResponse struct {
	State    *models.DraftState `json:"state"`
	Upcoming []order.Slot       `json:"upcoming,omitempty"`
}

// Service implements the DraftService connect handlers
type Service struct {
	app DraftApp
}

// NewService creates a new draft service
func NewService(app DraftApp) *Service {
	return &Service{
		app: app,
	}
}

// Handler mounts the service on a single path prefix.
func (s *Service) Handler() (string, http.Handler) {
	routes := connectutil.NewRoutes(ServiceName)
	connectutil.Unary(routes, "CreateDraft", s.CreateDraft)
	connectutil.Unary(routes, "GetDraft", s.GetDraft)
	connectutil.Unary(routes, "StartDraft", s.StartDraft)
	connectutil.Unary(routes, "PauseDraft", s.PauseDraft)
	connectutil.Unary(routes, "ResumeDraft", s.ResumeDraft)
	connectutil.Unary(routes, "CancelDraft", s.CancelDraft)
	connectutil.Unary(routes, "ForceReseed", s.ForceReseed)
	connectutil.Unary(routes, "GetState", s.GetState)
	return routes.Handler()
}

func (s *Service) CreateDraft(ctx context.Context, req *connect.Request[CreateDraftRequest]) (*connect.Response[DraftResponse], error) {
	d, err := s.app.CreateDraft(ctx, *req.Msg)
	if err != nil {
		return nil, connectutil.Error(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

func (s *Service) GetDraft(ctx context.Context, req *connect.Request[GetDraftRequest]) (*connect.Response[DraftResponse], error) {
	id, err := uuid.Parse(req.Msg.DraftID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	d, err := s.app.GetDraft(ctx, id)
	if err != nil {
		return nil, connectutil.Error(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

func (s *Service) StartDraft(ctx context.Context, req *connect.Request[StartDraftRequest]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.app.StartDraft(ctx, *req.Msg))
}

func (s *Service) PauseDraft(ctx context.Context, req *connect.Request[LifecycleRequest]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.app.PauseDraft(ctx, *req.Msg))
}

func (s *Service) ResumeDraft(ctx context.Context, req *connect.Request[LifecycleRequest]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.app.ResumeDraft(ctx, *req.Msg))
}

func (s *Service) CancelDraft(ctx context.Context, req *connect.Request[LifecycleRequest]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.app.CancelDraft(ctx, *req.Msg))
}

func (s *Service) ForceReseed(ctx context.Context, req *connect.Request[ForceReseedRequest]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.app.ForceReseed(ctx, *req.Msg))
}

// GetState returns the live snapshot and a preview of the next picks.
func (s *Service) GetState(ctx context.Context, req *connect.Request[GetStateRequest]) (*connect.Response[GetStateResponse], error) {
	id, err := uuid.Parse(req.Msg.DraftID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	st, err := s.app.GetState(ctx, id)
	if err != nil {
		return nil, connectutil.Error(err)
	}
	n := req.Msg.Upcoming
	if n <= 0 {
		n = defaultUpcoming
	}
	upcoming, err := s.app.Upcoming(ctx, st, n)
	if err != nil {
		return nil, connectutil.Error(err)
	}
	return connect.NewResponse(&GetStateResponse{State: st, Upcoming: upcoming}), nil
}

func stateResponse(st *models.DraftState, err error) (*connect.Response[StateResponse], error) {
	if err != nil {
		return nil, connectutil.Error(err)
	}
	return connect.NewResponse(&StateResponse{State: st}), nil
}
