package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/laurierboom/tournament-engine/models"
	"github.com/laurierboom/tournament-engine/repositories"
)

type PlayerService interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context) ([]*models.Player, error)
	UpdateProfile(ctx context.Context, player *models.Player) error
	Delete(ctx context.Context, id int) error
	RatingHistory(ctx context.Context, playerID int, timeControl *models.TimeControl) ([]models.RatingHistory, error)
}

type playerService struct {
	players repositories.PlayerRepository
	history repositories.RatingHistoryRepository
}

func NewPlayerService(players repositories.PlayerRepository, history repositories.RatingHistoryRepository) PlayerService {
	return &playerService{players: players, history: history}
}

// Create registers a new player with default ratings on every track.
func (s *playerService) Create(ctx context.Context, player *models.Player) error {
	player.FirstName = strings.TrimSpace(player.FirstName)
	player.LastName = strings.TrimSpace(player.LastName)
	if player.FirstName == "" {
		return repositories.ErrPlayerNameRequired
	}

	initial := models.DefaultRatingState()
	player.Bullet = initial
	player.Blitz = initial
	player.Rapid = initial
	player.Classical = initial
	player.Overall = initial

	return s.players.Create(ctx, player)
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	return s.players.GetByID(ctx, id)
}

func (s *playerService) List(ctx context.Context) ([]*models.Player, error) {
	return s.players.List(ctx)
}

func (s *playerService) UpdateProfile(ctx context.Context, player *models.Player) error {
	player.FirstName = strings.TrimSpace(player.FirstName)
	player.LastName = strings.TrimSpace(player.LastName)
	if player.FirstName == "" {
		return repositories.ErrPlayerNameRequired
	}
	return s.players.UpdateProfile(ctx, player)
}

func (s *playerService) Delete(ctx context.Context, id int) error {
	return s.players.Delete(ctx, id)
}

func (s *playerService) RatingHistory(ctx context.Context, playerID int, timeControl *models.TimeControl) ([]models.RatingHistory, error) {
	if timeControl != nil && !timeControl.Valid() {
		return nil, fmt.Errorf("%w: time control %q", ErrInvalidTimeControl, *timeControl)
	}
	if _, err := s.players.GetByID(ctx, playerID); err != nil {
		return nil, err
	}
	return s.history.ListByPlayer(ctx, playerID, timeControl)
}
