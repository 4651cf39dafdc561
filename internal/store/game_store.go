package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lmoretti/highlander/internal/pool"
	"github.com/mattn/go-sqlite3"
)

type GameStore struct {
	db *sqlx.DB
}

func NewGameStore(db *sqlx.DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) CreateGame(ctx context.Context, tx *sqlx.Tx, game *pool.Game) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO games (id, name, status, start_round, current_round, final_round, round_status, round_deadline)
		VALUES (:id, :name, :status, :start_round, :current_round, :final_round, :round_status, :round_deadline)`, game)
	return err
}

func (s *GameStore) GetGame(ctx context.Context, id string) (*pool.Game, error) {
	var game pool.Game
	err := s.db.GetContext(ctx, &game, "SELECT * FROM games WHERE id = ?", id)
	return &game, err
}

func (s *GameStore) GetGameTx(ctx context.Context, tx *sqlx.Tx, id string) (*pool.Game, error) {
	var game pool.Game
	err := tx.GetContext(ctx, &game, "SELECT * FROM games WHERE id = ?", id)
	return &game, err
}

func (s *GameStore) GetActiveGames(ctx context.Context) ([]pool.Game, error) {
	var games []pool.Game
	err := s.db.SelectContext(ctx, &games, "SELECT * FROM games WHERE status = ? ORDER BY created_at ASC", pool.GameActive)
	return games, err
}

// UpdateGameRound writes the whole round position in one statement so
// readers never observe a half-advanced game.
func (s *GameStore) UpdateGameRound(ctx context.Context, tx *sqlx.Tx, game *pool.Game) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE games SET
		status = :status,
		current_round = :current_round,
		round_status = :round_status,
		round_deadline = :round_deadline
		WHERE id = :id`, game)
	return err
}

func (s *GameStore) CreateTicket(ctx context.Context, tx *sqlx.Tx, ticket *pool.Ticket) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tickets (id, game_id, owner_id, label, is_active)
		VALUES (:id, :game_id, :owner_id, :label, :is_active)`, ticket)
	return err
}

func (s *GameStore) GetTicket(ctx context.Context, id string) (*pool.Ticket, error) {
	var ticket pool.Ticket
	err := s.db.GetContext(ctx, &ticket, "SELECT * FROM tickets WHERE id = ?", id)
	return &ticket, err
}

func (s *GameStore) GetTicketTx(ctx context.Context, tx *sqlx.Tx, id string) (*pool.Ticket, error) {
	var ticket pool.Ticket
	err := tx.GetContext(ctx, &ticket, "SELECT * FROM tickets WHERE id = ?", id)
	return &ticket, err
}

func (s *GameStore) GetTicketsByGame(ctx context.Context, gameID string) ([]pool.Ticket, error) {
	var tickets []pool.Ticket
	err := s.db.SelectContext(ctx, &tickets, "SELECT * FROM tickets WHERE game_id = ? ORDER BY created_at ASC", gameID)
	return tickets, err
}

func (s *GameStore) GetActiveTicketsTx(ctx context.Context, tx *sqlx.Tx, gameID string) ([]pool.Ticket, error) {
	var tickets []pool.Ticket
	err := tx.SelectContext(ctx, &tickets, "SELECT * FROM tickets WHERE game_id = ? AND is_active = 1 ORDER BY created_at ASC", gameID)
	return tickets, err
}

// EliminateTickets flips the batch in one statement. The is_active guard
// keeps eliminated_in_round monotonic if a retry slips through.
func (s *GameStore) EliminateTickets(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID, round int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("UPDATE tickets SET is_active = 0, eliminated_in_round = ? WHERE id IN (?) AND is_active = 1", round, ids)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(query), args...)
	return err
}

// CreateSelection relies on the unique indexes to serialize concurrent
// submissions for the same ticket; a violated constraint comes back as the
// matching typed rejection instead of a bare driver error.
func (s *GameStore) CreateSelection(ctx context.Context, tx *sqlx.Tx, selection *pool.TeamSelection) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO team_selections (id, ticket_id, game_id, team_id, round)
		VALUES (:id, :ticket_id, :game_id, :team_id, :round)`, selection)
	return mapSelectionConflict(err)
}

func mapSelectionConflict(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		msg := sqliteErr.Error()
		if strings.Contains(msg, "team_selections.team_id") {
			return pool.ErrTeamAlreadySelected
		}
		if strings.Contains(msg, "team_selections.round") {
			return pool.ErrAlreadyPickedThisRound
		}
	}
	return err
}

func (s *GameStore) GetSelectionsByTicketTx(ctx context.Context, tx *sqlx.Tx, ticketID string) ([]pool.TeamSelection, error) {
	var selections []pool.TeamSelection
	err := tx.SelectContext(ctx, &selections, "SELECT * FROM team_selections WHERE ticket_id = ? ORDER BY round ASC", ticketID)
	return selections, err
}

func (s *GameStore) GetSelectionsByTicket(ctx context.Context, ticketID string) ([]pool.TeamSelection, error) {
	var selections []pool.TeamSelection
	err := s.db.SelectContext(ctx, &selections, "SELECT * FROM team_selections WHERE ticket_id = ? ORDER BY round ASC", ticketID)
	return selections, err
}

func (s *GameStore) GetSelectionsForRoundTx(ctx context.Context, tx *sqlx.Tx, gameID string, round int) ([]pool.TeamSelection, error) {
	var selections []pool.TeamSelection
	err := tx.SelectContext(ctx, &selections, "SELECT * FROM team_selections WHERE game_id = ? AND round = ? ORDER BY created_at ASC", gameID, round)
	return selections, err
}
