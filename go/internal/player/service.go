package player

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mcdev12/livedraft/go/internal/connectutil"
	"github.com/mcdev12/livedraft/go/internal/models"
)

const ServiceName = "livedraft.player.v1.PlayerService"

// PlayerApp defines what the service layer needs from the player application
type PlayerApp interface {
	GetPlayer(ctx context.Context, id string) (*models.Player, error)
	ListAvailablePlayers(ctx context.Context, draftID uuid.UUID, limit int) ([]models.Player, error)
	ListDraftedPlayers(ctx context.Context, draftID uuid.UUID) ([]RosterEntry, error)
}

type GetPlayerRequest struct {
	ID string `json:"id"`
}

type GetPlayerResponse struct {
	Player *models.Player `json:"player"`
}

type ListAvailablePlayersRequest struct {
	DraftID string `json:"draft_id"`
	Limit   int    `json:"limit"`
}

type ListAvailablePlayersResponse struct {
	Players []models.Player `json:"players"`
}

type ListDraftedPlayersRequest struct {
	DraftID string `json:"draft_id"`
}

type ListDraftedPlayersResponse struct {
	Picks []RosterEntry `json:"picks"`
}

// Service implements the PlayerService connect handlers
type Service struct {
	app PlayerApp
}

// NewService creates a new player service
func NewService(app PlayerApp) *Service {
	return &Service{
		app: app,
	}
}

// Handler mounts the service on a single path prefix.
func (s *Service) Handler() (string, http.Handler) {
	routes := connectutil.NewRoutes(ServiceName)
	connectutil.Unary(routes, "GetPlayer", s.GetPlayer)
	connectutil.Unary(routes, "ListAvailablePlayers", s.ListAvailablePlayers)
	connectutil.Unary(routes, "ListDraftedPlayers", s.ListDraftedPlayers)
	return routes.Handler()
}

func (s *Service) GetPlayer(ctx context.Context, req *connect.Request[GetPlayerRequest]) (*connect.Response[GetPlayerResponse], error) {
	p, err := s.app.GetPlayer(ctx, req.Msg.ID)
	if err != nil {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewResponse(&GetPlayerResponse{Player: p}), nil
}

func (s *Service) ListAvailablePlayers(ctx context.Context, req *connect.Request[ListAvailablePlayersRequest]) (*connect.Response[ListAvailablePlayersResponse], error) {
	draftID, err := uuid.Parse(req.Msg.DraftID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	players, err := s.app.ListAvailablePlayers(ctx, draftID, req.Msg.Limit)
	if err != nil {
		return nil, connectutil.Error(err)
	}
	return connect.NewResponse(&ListAvailablePlayersResponse{Players: players}), nil
}

func (s *Service) ListDraftedPlayers(ctx context.Context, req *connect.Request[ListDraftedPlayersRequest]) (*connect.Response[ListDraftedPlayersResponse], error) {
	draftID, err := uuid.Parse(req.Msg.DraftID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	picks, err := s.app.ListDraftedPlayers(ctx, draftID)
	if err != nil {
		return nil, connectutil.Error(err)
	}
	return connect.NewResponse(&ListDraftedPlayersResponse{Picks: picks}), nil
}
