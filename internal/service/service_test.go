package service

import (
	"context"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/lmoretti/highlander/internal/pool"
	"github.com/lmoretti/highlander/internal/store"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

type testEnv struct {
	db         *sqlx.DB
	clock      *clockwork.FakeClock
	cfg        Config
	gameStore  *store.GameStore
	games      *GameService
	selections *SelectionService
	rounds     *RoundService
	deadlines  *DeadlineService
	fixtures   *FixtureService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	gameStore := store.NewGameStore(db)
	fixtureStore := store.NewFixtureStore(db)
	clock := clockwork.NewFakeClock()
	cfg := DefaultConfig()

	return &testEnv{
		db:         db,
		clock:      clock,
		cfg:        cfg,
		gameStore:  gameStore,
		games:      NewGameService(db, gameStore, fixtureStore, cfg),
		selections: NewSelectionService(db, gameStore, fixtureStore),
		rounds:     NewRoundService(db, gameStore, fixtureStore),
		deadlines:  NewDeadlineService(db, gameStore, clock, cfg),
		fixtures:   NewFixtureService(db, fixtureStore),
	}
}

func (e *testEnv) seedTeams(t *testing.T, names ...string) []pool.Team {
	t.Helper()
	inputs := make([]TeamInput, 0, len(names))
	for _, name := range names {
		inputs = append(inputs, TeamInput{Name: name, ShortName: name[:3]})
	}
	teams, err := e.fixtures.ImportTeams(context.Background(), inputs)
	require.NoError(t, err)
	return teams
}

func (e *testEnv) seedFixtures(t *testing.T, round int, pairs ...[2]uuid.UUID) []pool.Match {
	t.Helper()
	inputs := make([]FixtureInput, 0, len(pairs))
	for _, pair := range pairs {
		inputs = append(inputs, FixtureInput{HomeTeamID: pair[0], AwayTeamID: pair[1]})
	}
	matches, err := e.fixtures.ImportFixtures(context.Background(), round, inputs)
	require.NoError(t, err)
	return matches
}

func (e *testEnv) score(t *testing.T, matchID uuid.UUID, home, away int) {
	t.Helper()
	_, err := e.fixtures.RecordResult(context.Background(), matchID, home, away)
	require.NoError(t, err)
}

func (e *testEnv) newActiveGame(t *testing.T, startRound, finalRound int) *pool.Game {
	t.Helper()
	game, err := e.games.CreateGame(context.Background(), "Highlander", startRound, finalRound)
	require.NoError(t, err)
	game, err = e.games.ActivateGame(context.Background(), game.ID)
	require.NoError(t, err)
	return game
}

func (e *testEnv) newTicket(t *testing.T, gameID uuid.UUID, label string) *pool.Ticket {
	t.Helper()
	ticket, err := e.games.RegisterTicket(context.Background(), gameID, uuid.New(), label)
	require.NoError(t, err)
	return ticket
}

func (e *testEnv) lock(t *testing.T, gameID uuid.UUID) {
	t.Helper()
	require.NoError(t, e.deadlines.LockRound(context.Background(), gameID))
}

func (e *testEnv) reloadGame(t *testing.T, gameID uuid.UUID) *pool.Game {
	t.Helper()
	game, err := e.gameStore.GetGame(context.Background(), gameID.String())
	require.NoError(t, err)
	return game
}

func (e *testEnv) reloadTicket(t *testing.T, ticketID uuid.UUID) *pool.Ticket {
	t.Helper()
	ticket, err := e.gameStore.GetTicket(context.Background(), ticketID.String())
	require.NoError(t, err)
	return ticket
}
