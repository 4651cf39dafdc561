package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lmoretti/highlander/internal/pool"
	"github.com/lmoretti/highlander/internal/store"
)

type GameService struct {
	db       *sqlx.DB
	store    *store.GameStore
	fixtures *store.FixtureStore
	cfg      Config
}

func NewGameService(db *sqlx.DB, gameStore *store.GameStore, fixtureStore *store.FixtureStore, cfg Config) *GameService {
	return &GameService{db: db, store: gameStore, fixtures: fixtureStore, cfg: cfg}
}

// CreateGame opens a pool in registration. finalRound <= 0 falls back to
// the configured cap counted from the start round.
func (s *GameService) CreateGame(ctx context.Context, name string, startRound, finalRound int) (*pool.Game, error) {
	if startRound < 1 {
		startRound = 1
	}
	if finalRound <= 0 {
		finalRound = startRound + s.cfg.MaxRounds - 1
	}
	if finalRound < startRound {
		return nil, fmt.Errorf("final round %d is before start round %d", finalRound, startRound)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	game := pool.Game{
		ID:           uuid.New(),
		Name:         name,
		Status:       pool.GameRegistration,
		StartRound:   startRound,
		CurrentRound: startRound,
		FinalRound:   finalRound,
		RoundStatus:  pool.RoundSelectionOpen,
	}

	if err := s.store.CreateGame(ctx, tx, &game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return &game, tx.Commit()
}

// ActivateGame moves registration -> active and opens the start round with
// no deadline; the deadline has to be set explicitly afterwards.
func (s *GameService) ActivateGame(ctx context.Context, gameID uuid.UUID) (*pool.Game, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	game, err := s.store.GetGameTx(ctx, tx, gameID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game.Status != pool.GameRegistration {
		return nil, pool.ErrGameNotInRegistration
	}

	game.Status = pool.GameActive
	game.CurrentRound = game.StartRound
	game.RoundStatus = pool.RoundSelectionOpen
	game.RoundDeadline = nil

	if err := s.store.UpdateGameRound(ctx, tx, game); err != nil {
		return nil, fmt.Errorf("failed to activate game: %w", err)
	}

	return game, tx.Commit()
}

// RegisterTicket admits an entry while the game is in registration or
// already running. Late-entry policy is the operator's call, not enforced
// here.
func (s *GameService) RegisterTicket(ctx context.Context, gameID, ownerID uuid.UUID, label string) (*pool.Ticket, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	game, err := s.store.GetGameTx(ctx, tx, gameID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game.Status == pool.GameCompleted {
		return nil, pool.ErrGameCompleted
	}

	ticket := pool.Ticket{
		ID:       uuid.New(),
		GameID:   game.ID,
		OwnerID:  ownerID,
		Label:    label,
		IsActive: true,
	}

	if err := s.store.CreateTicket(ctx, tx, &ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	return &ticket, tx.Commit()
}

func (s *GameService) GetTicketStatus(ctx context.Context, ticketID uuid.UUID) (pool.TicketStatus, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID.String())
	if err != nil {
		return "", err
	}
	game, err := s.store.GetGame(ctx, ticket.GameID.String())
	if err != nil {
		return "", fmt.Errorf("failed to get game: %w", err)
	}
	return pool.ProjectTicketStatus(game, ticket), nil
}

type TicketView struct {
	Ticket pool.Ticket       `json:"ticket"`
	Status pool.TicketStatus `json:"status"`
}

type GameOverview struct {
	Game    *pool.Game   `json:"game"`
	Tickets []TicketView `json:"tickets"`
	Matches []pool.Match `json:"matches"`
}

// GetGameOverview is a read-only snapshot: the game, every ticket with its
// projected status, and the current round's fixtures.
func (s *GameService) GetGameOverview(ctx context.Context, gameID uuid.UUID) (*GameOverview, error) {
	game, err := s.store.GetGame(ctx, gameID.String())
	if err != nil {
		return nil, err
	}

	tickets, err := s.store.GetTicketsByGame(ctx, gameID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}

	matches, err := s.fixtures.GetMatchesByRound(ctx, game.CurrentRound)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}

	views := make([]TicketView, 0, len(tickets))
	for i := range tickets {
		views = append(views, TicketView{
			Ticket: tickets[i],
			Status: pool.ProjectTicketStatus(game, &tickets[i]),
		})
	}

	return &GameOverview{Game: game, Tickets: views, Matches: matches}, nil
}
