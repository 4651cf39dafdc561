package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lmoretti/highlander/internal/pool"
)

// FixtureStore holds the read-only inputs fed by the external fixture and
// result providers. The engine never invents rows here.
type FixtureStore struct {
	db *sqlx.DB
}

func NewFixtureStore(db *sqlx.DB) *FixtureStore {
	return &FixtureStore{db: db}
}

func (s *FixtureStore) CreateTeams(ctx context.Context, tx *sqlx.Tx, teams []pool.Team) error {
	if len(teams) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO teams (id, name, short_name)
		VALUES (:id, :name, :short_name)`, teams)
	return err
}

func (s *FixtureStore) GetTeams(ctx context.Context) ([]pool.Team, error) {
	var teams []pool.Team
	err := s.db.SelectContext(ctx, &teams, "SELECT * FROM teams ORDER BY name ASC")
	return teams, err
}

func (s *FixtureStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []pool.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (id, round, home_team_id, away_team_id, is_completed, kickoff_at, venue)
		VALUES (:id, :round, :home_team_id, :away_team_id, :is_completed, :kickoff_at, :venue)`, matches)
	return err
}

func (s *FixtureStore) GetMatch(ctx context.Context, id string) (*pool.Match, error) {
	var match pool.Match
	err := s.db.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id)
	return &match, err
}

func (s *FixtureStore) GetMatchesByRound(ctx context.Context, round int) ([]pool.Match, error) {
	var matches []pool.Match
	err := s.db.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE round = ? ORDER BY kickoff_at ASC, id ASC", round)
	return matches, err
}

func (s *FixtureStore) GetMatchesByRoundTx(ctx context.Context, tx *sqlx.Tx, round int) ([]pool.Match, error) {
	var matches []pool.Match
	err := tx.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE round = ? ORDER BY kickoff_at ASC, id ASC", round)
	return matches, err
}

func (s *FixtureStore) SetMatchScore(ctx context.Context, tx *sqlx.Tx, match *pool.Match) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE matches SET
		home_score = :home_score,
		away_score = :away_score,
		result = :result,
		is_completed = :is_completed
		WHERE id = :id`, match)
	return err
}
