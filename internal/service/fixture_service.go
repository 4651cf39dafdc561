package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lmoretti/highlander/internal/pool"
	"github.com/lmoretti/highlander/internal/store"
	"github.com/lmoretti/highlander/internal/utils"
)

// FixtureService is the ingestion shim for the external fixture and result
// providers. It writes what it is told and never invents an outcome.
type FixtureService struct {
	db       *sqlx.DB
	fixtures *store.FixtureStore
}

func NewFixtureService(db *sqlx.DB, fixtureStore *store.FixtureStore) *FixtureService {
	return &FixtureService{db: db, fixtures: fixtureStore}
}

type TeamInput struct {
	Name      string
	ShortName string
}

func (s *FixtureService) ImportTeams(ctx context.Context, inputs []TeamInput) ([]pool.Team, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	teams := make([]pool.Team, 0, len(inputs))
	for _, in := range inputs {
		teams = append(teams, pool.Team{
			ID:        uuid.New(),
			Name:      in.Name,
			ShortName: in.ShortName,
		})
	}

	if err := s.fixtures.CreateTeams(ctx, tx, teams); err != nil {
		return nil, fmt.Errorf("failed to create teams: %w", err)
	}

	return teams, tx.Commit()
}

func (s *FixtureService) ListTeams(ctx context.Context) ([]pool.Team, error) {
	return s.fixtures.GetTeams(ctx)
}

type FixtureInput struct {
	HomeTeamID uuid.UUID
	AwayTeamID uuid.UUID
	KickoffAt  *time.Time
	Venue      string
}

func (s *FixtureService) ImportFixtures(ctx context.Context, round int, inputs []FixtureInput) ([]pool.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	matches := make([]pool.Match, 0, len(inputs))
	for _, in := range inputs {
		matches = append(matches, pool.Match{
			ID:         uuid.New(),
			Round:      round,
			HomeTeamID: in.HomeTeamID,
			AwayTeamID: in.AwayTeamID,
			KickoffAt:  in.KickoffAt,
			Venue:      utils.StringOrNil(in.Venue),
		})
	}

	if err := s.fixtures.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}

	return matches, tx.Commit()
}

// RecordResult stores the final score and derives H/A/D. The provider is
// authoritative, so re-recording a score is allowed.
func (s *FixtureService) RecordResult(ctx context.Context, matchID uuid.UUID, homeScore, awayScore int) (*pool.Match, error) {
	if homeScore < 0 || awayScore < 0 {
		return nil, fmt.Errorf("scores must be non-negative")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.fixtures.GetMatch(ctx, matchID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	match.HomeScore = utils.Ptr(homeScore)
	match.AwayScore = utils.Ptr(awayScore)
	match.Result = utils.Ptr(pool.DeriveResult(homeScore, awayScore))
	match.IsCompleted = true

	if err := s.fixtures.SetMatchScore(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to set score: %w", err)
	}

	return match, tx.Commit()
}
