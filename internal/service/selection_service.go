package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lmoretti/highlander/internal/pool"
	"github.com/lmoretti/highlander/internal/store"
)

type SelectionService struct {
	db       *sqlx.DB
	store    *store.GameStore
	fixtures *store.FixtureStore
}

func NewSelectionService(db *sqlx.DB, gameStore *store.GameStore, fixtureStore *store.FixtureStore) *SelectionService {
	return &SelectionService{db: db, store: gameStore, fixtures: fixtureStore}
}

// Submit records a pick for the ticket's current round. The validation
// ladder runs first, then the insert; the unique indexes on
// (ticket_id, team_id) and (ticket_id, round) backstop any race the reads
// could not see.
func (s *SelectionService) Submit(ctx context.Context, ticketID, teamID uuid.UUID) (*pool.TeamSelection, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ticket, err := s.store.GetTicketTx(ctx, tx, ticketID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	game, err := s.store.GetGameTx(ctx, tx, ticket.GameID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	prior, err := s.store.GetSelectionsByTicketTx(ctx, tx, ticketID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get prior selections: %w", err)
	}

	roundMatches, err := s.fixtures.GetMatchesByRoundTx(ctx, tx, game.CurrentRound)
	if err != nil {
		return nil, fmt.Errorf("failed to get round fixtures: %w", err)
	}

	if err := validateSelection(game, ticket, teamID, game.CurrentRound, prior, roundMatches); err != nil {
		return nil, err
	}

	selection := pool.TeamSelection{
		ID:       uuid.New(),
		TicketID: ticket.ID,
		GameID:   game.ID,
		TeamID:   teamID,
		Round:    game.CurrentRound,
	}

	if err := s.store.CreateSelection(ctx, tx, &selection); err != nil {
		return nil, err
	}

	return &selection, tx.Commit()
}

// validateSelection runs the preconditions in contract order, each failing
// with its own rejection. Pure so it can be exercised without a database.
func validateSelection(game *pool.Game, ticket *pool.Ticket, teamID uuid.UUID, round int, prior []pool.TeamSelection, roundMatches []pool.Match) error {
	if game.Status != pool.GameActive || round != game.CurrentRound {
		return pool.ErrRoundNotOpen
	}
	if game.RoundStatus != pool.RoundSelectionOpen {
		return pool.ErrSelectionsLocked
	}
	if !ticket.IsActive {
		return pool.ErrTicketEliminated
	}

	for _, sel := range prior {
		if sel.TeamID == teamID {
			return pool.ErrTeamAlreadySelected
		}
	}

	plays := false
	for i := range roundMatches {
		if roundMatches[i].Involves(teamID) {
			plays = true
			break
		}
	}
	if !plays {
		return pool.ErrInvalidTeamForRound
	}

	for _, sel := range prior {
		if sel.Round == round {
			return pool.ErrAlreadyPickedThisRound
		}
	}

	return nil
}
