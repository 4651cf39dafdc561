package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lmoretti/highlander/internal/pool"
	"github.com/lmoretti/highlander/internal/store"
)

type RoundService struct {
	db       *sqlx.DB
	store    *store.GameStore
	fixtures *store.FixtureStore
}

func NewRoundService(db *sqlx.DB, gameStore *store.GameStore, fixtureStore *store.FixtureStore) *RoundService {
	return &RoundService{db: db, store: gameStore, fixtures: fixtureStore}
}

type RoundOutcome struct {
	GameID     uuid.UUID       `json:"gameId"`
	Round      int             `json:"round"`
	Eliminated []uuid.UUID     `json:"eliminated"`
	Survivors  []uuid.UUID     `json:"survivors"`
	Winners    []uuid.UUID     `json:"winners,omitempty"`
	GameStatus pool.GameStatus `json:"gameStatus"`

	// AlreadyResolved marks the idempotent no-op taken when a retry
	// arrives for a round that was scored earlier.
	AlreadyResolved bool `json:"alreadyResolved,omitempty"`
}

// ResolveRound turns the round's match results into eliminations and runs
// the win evaluation, all inside one transaction. Safe to call again after
// success (no-op) and safe to retry after ErrResultsIncomplete.
func (s *RoundService) ResolveRound(ctx context.Context, gameID uuid.UUID, round int) (*RoundOutcome, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	game, err := s.store.GetGameTx(ctx, tx, gameID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	if resolved, outcome := alreadyResolved(game, round); resolved {
		return outcome, nil
	}

	if game.Status != pool.GameActive || round != game.CurrentRound || game.RoundStatus != pool.RoundSelectionLocked {
		return nil, pool.ErrRoundNotLocked
	}

	matches, err := s.fixtures.GetMatchesByRoundTx(ctx, tx, round)
	if err != nil {
		return nil, fmt.Errorf("failed to get round matches: %w", err)
	}
	if len(matches) == 0 {
		return nil, pool.ErrResultsIncomplete
	}
	matchByTeam := make(map[uuid.UUID]*pool.Match, len(matches)*2)
	for i := range matches {
		if !matches[i].IsCompleted {
			return nil, pool.ErrResultsIncomplete
		}
		matchByTeam[matches[i].HomeTeamID] = &matches[i]
		matchByTeam[matches[i].AwayTeamID] = &matches[i]
	}

	selections, err := s.store.GetSelectionsForRoundTx(ctx, tx, gameID.String(), round)
	if err != nil {
		return nil, fmt.Errorf("failed to get selections: %w", err)
	}

	selectionByTicket := make(map[uuid.UUID]*pool.TeamSelection, len(selections))
	for i := range selections {
		if _, dup := selectionByTicket[selections[i].TicketID]; dup {
			// The write-once constraint upstream should make this
			// impossible; abort the whole round for investigation.
			slog.Error("duplicate selection for ticket in round",
				"game_id", gameID.String(),
				"ticket_id", selections[i].TicketID.String(),
				"round", round)
			return nil, fmt.Errorf("invariant violation: ticket %s has multiple selections for round %d", selections[i].TicketID, round)
		}
		selectionByTicket[selections[i].TicketID] = &selections[i]
	}

	tickets, err := s.store.GetActiveTicketsTx(ctx, tx, gameID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get active tickets: %w", err)
	}

	outcome := &RoundOutcome{GameID: game.ID, Round: round}
	for i := range tickets {
		if s.ticketSurvives(&tickets[i], selectionByTicket[tickets[i].ID], matchByTeam) {
			outcome.Survivors = append(outcome.Survivors, tickets[i].ID)
		} else {
			outcome.Eliminated = append(outcome.Eliminated, tickets[i].ID)
		}
	}

	if err := s.store.EliminateTickets(ctx, tx, outcome.Eliminated, round); err != nil {
		return nil, fmt.Errorf("failed to eliminate tickets: %w", err)
	}

	s.evaluateWin(game, round, outcome)

	if err := s.store.UpdateGameRound(ctx, tx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return outcome, tx.Commit()
}

// ticketSurvives applies the elimination rule: the picked team must win its
// match. A draw eliminates, and a missing pick counts as a wrong pick.
func (s *RoundService) ticketSurvives(ticket *pool.Ticket, selection *pool.TeamSelection, matchByTeam map[uuid.UUID]*pool.Match) bool {
	if selection == nil {
		return false
	}
	match := matchByTeam[selection.TeamID]
	if match == nil {
		return false
	}
	winner := match.WinnerTeamID()
	return winner != nil && *winner == selection.TeamID
}

// evaluateWin is the sole writer of game.Status and game.CurrentRound. It
// mutates the in-memory game; the caller persists it in the same
// transaction as the eliminations.
func (s *RoundService) evaluateWin(game *pool.Game, round int, outcome *RoundOutcome) {
	game.RoundStatus = pool.RoundCalculated

	switch {
	case len(outcome.Survivors) == 1:
		game.Status = pool.GameCompleted
		outcome.Winners = outcome.Survivors
	case len(outcome.Survivors) == 0:
		// Everyone fell in the same round: the game ends with no winner.
		game.Status = pool.GameCompleted
	case game.AtFinalRound(round):
		game.Status = pool.GameCompleted
		outcome.Winners = outcome.Survivors
	default:
		game.CurrentRound = round + 1
		game.RoundStatus = pool.RoundSelectionOpen
		game.RoundDeadline = nil
	}

	outcome.GameStatus = game.Status
}

func alreadyResolved(game *pool.Game, round int) (bool, *RoundOutcome) {
	if game.Status == pool.GameRegistration {
		return false, nil
	}
	done := round < game.CurrentRound ||
		(round == game.CurrentRound && game.RoundStatus == pool.RoundCalculated)
	if !done {
		return false, nil
	}
	return true, &RoundOutcome{
		GameID:          game.ID,
		Round:           round,
		GameStatus:      game.Status,
		AlreadyResolved: true,
	}
}
