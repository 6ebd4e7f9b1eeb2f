package leagues

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mcdev12/livedraft/go/internal/connectutil"
	"github.com/mcdev12/livedraft/go/internal/models"
)

const ServiceName = "livedraft.league.v1.LeagueService"

// LeaguesApp defines what the service layer needs from the league application
type LeaguesApp interface {
	GetLeagueConfig(ctx context.Context, leagueID uuid.UUID) (*models.LeagueConfig, error)
	SetDraftOrder(ctx context.Context, req SetDraftOrderRequest) error
}

type GetLeagueConfigRequest struct {
	LeagueID string `json:"league_id"`
}

type GetLeagueConfigResponse struct {
	Config *models.LeagueConfig `json:"config"`
}

type SetDraftOrderResponse struct{}

// Service implements the LeagueService connect handlers
type Service struct {
	app LeaguesApp
}

// NewService creates a new league service
func NewService(app LeaguesApp) *Service {
	return &Service{
		app: app,
	}
}

func (s *Service) Handler() (string, http.Handler) {
	routes := connectutil.NewRoutes(ServiceName)
	connectutil.Unary(routes, "GetLeagueConfig", s.GetLeagueConfig)
	connectutil.Unary(routes, "SetDraftOrder", s.SetDraftOrder)
	return routes.Handler()
}

// GetLeagueConfig returns the league as the draft engine sees it
func (s *Service) GetLeagueConfig(ctx context.Context, req *connect.Request[GetLeagueConfigRequest]) (*connect.Response[GetLeagueConfigResponse], error) {
	id, err := uuid.Parse(req.Msg.LeagueID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	cfg, err := s.app.GetLeagueConfig(ctx, id)
	if err != nil {
		return nil, connectutil.Error(err)
	}
	return connect.NewResponse(&GetLeagueConfigResponse{Config: cfg}), nil
}

// SetDraftOrder stores a commissioner override
func (s *Service) SetDraftOrder(ctx context.Context, req *connect.Request[SetDraftOrderRequest]) (*connect.Response[SetDraftOrderResponse], error) {
	if err := s.app.SetDraftOrder(ctx, *req.Msg); err != nil {
		return nil, connectutil.Error(err)
	}
	return connect.NewResponse(&SetDraftOrderResponse{}), nil
}
