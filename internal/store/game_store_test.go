package store

import (
	"context"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lmoretti/highlander/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
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

type seeded struct {
	game    *pool.Game
	tickets []pool.Ticket
	teams   []pool.Team
}

func seedGameWithTickets(t *testing.T, db *sqlx.DB, ticketCount int) seeded {
	t.Helper()

	gameStore := NewGameStore(db)
	fixtureStore := NewFixtureStore(db)
	ctx := context.Background()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	game := &pool.Game{
		ID:           uuid.New(),
		Name:         "Test Pool",
		Status:       pool.GameActive,
		StartRound:   1,
		CurrentRound: 1,
		FinalRound:   20,
		RoundStatus:  pool.RoundSelectionOpen,
	}
	require.NoError(t, gameStore.CreateGame(ctx, tx, game))

	teams := []pool.Team{
		{ID: uuid.New(), Name: "Milan", ShortName: "MIL"},
		{ID: uuid.New(), Name: "Inter", ShortName: "INT"},
		{ID: uuid.New(), Name: "Napoli", ShortName: "NAP"},
		{ID: uuid.New(), Name: "Roma", ShortName: "ROM"},
	}
	require.NoError(t, fixtureStore.CreateTeams(ctx, tx, teams))

	var tickets []pool.Ticket
	for i := 0; i < ticketCount; i++ {
		ticket := pool.Ticket{
			ID:       uuid.New(),
			GameID:   game.ID,
			OwnerID:  uuid.New(),
			Label:    "Ticket",
			IsActive: true,
		}
		require.NoError(t, gameStore.CreateTicket(ctx, tx, &ticket))
		tickets = append(tickets, ticket)
	}

	require.NoError(t, tx.Commit())
	return seeded{game: game, tickets: tickets, teams: teams}
}

func insertSelection(t *testing.T, db *sqlx.DB, s *GameStore, sel *pool.TeamSelection) error {
	t.Helper()
	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	if err := s.CreateSelection(context.Background(), tx, sel); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func TestCreateSelection_UniqueTeamPerTicket(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	gameStore := NewGameStore(db)
	data := seedGameWithTickets(t, db, 1)
	ticket := data.tickets[0]

	first := &pool.TeamSelection{
		ID:       uuid.New(),
		TicketID: ticket.ID,
		GameID:   data.game.ID,
		TeamID:   data.teams[0].ID,
		Round:    1,
	}
	require.NoError(t, insertSelection(t, db, gameStore, first))

	// Same team in a later round: permanently burned for this ticket.
	dupTeam := &pool.TeamSelection{
		ID:       uuid.New(),
		TicketID: ticket.ID,
		GameID:   data.game.ID,
		TeamID:   data.teams[0].ID,
		Round:    2,
	}
	err := insertSelection(t, db, gameStore, dupTeam)
	assert.ErrorIs(t, err, pool.ErrTeamAlreadySelected)

	// Second pick for the same round: write-once.
	dupRound := &pool.TeamSelection{
		ID:       uuid.New(),
		TicketID: ticket.ID,
		GameID:   data.game.ID,
		TeamID:   data.teams[1].ID,
		Round:    1,
	}
	err = insertSelection(t, db, gameStore, dupRound)
	assert.ErrorIs(t, err, pool.ErrAlreadyPickedThisRound)

	// Exactly one row survived the rejections.
	selections, err := gameStore.GetSelectionsByTicket(context.Background(), ticket.ID.String())
	require.NoError(t, err)
	require.Len(t, selections, 1)
	assert.Equal(t, first.ID, selections[0].ID)
}

func TestCreateSelection_OtherTicketUnaffected(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	gameStore := NewGameStore(db)
	data := seedGameWithTickets(t, db, 2)

	// Two tickets may pick the same team in the same round.
	for _, ticket := range data.tickets {
		sel := &pool.TeamSelection{
			ID:       uuid.New(),
			TicketID: ticket.ID,
			GameID:   data.game.ID,
			TeamID:   data.teams[0].ID,
			Round:    1,
		}
		require.NoError(t, insertSelection(t, db, gameStore, sel))
	}
}

func TestEliminateTickets_Monotonic(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	gameStore := NewGameStore(db)
	data := seedGameWithTickets(t, db, 3)
	ctx := context.Background()

	ids := []uuid.UUID{data.tickets[0].ID, data.tickets[1].ID}

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, gameStore.EliminateTickets(ctx, tx, ids, 3))
	require.NoError(t, tx.Commit())

	for _, id := range ids {
		ticket, err := gameStore.GetTicket(ctx, id.String())
		require.NoError(t, err)
		assert.False(t, ticket.IsActive)
		require.NotNil(t, ticket.EliminatedInRound)
		assert.Equal(t, 3, *ticket.EliminatedInRound)
	}

	survivor, err := gameStore.GetTicket(ctx, data.tickets[2].ID.String())
	require.NoError(t, err)
	assert.True(t, survivor.IsActive)
	assert.Nil(t, survivor.EliminatedInRound)

	// A retry must not move the elimination round.
	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, gameStore.EliminateTickets(ctx, tx, ids, 5))
	require.NoError(t, tx.Commit())

	ticket, err := gameStore.GetTicket(ctx, ids[0].String())
	require.NoError(t, err)
	assert.False(t, ticket.IsActive)
	assert.Equal(t, 3, *ticket.EliminatedInRound)
}

func TestEliminateTickets_EmptyBatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	gameStore := NewGameStore(db)
	ctx := context.Background()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, gameStore.EliminateTickets(ctx, tx, nil, 1))
	require.NoError(t, tx.Commit())
}

func TestGetActiveGames(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	gameStore := NewGameStore(db)
	ctx := context.Background()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	active := &pool.Game{
		ID:           uuid.New(),
		Name:         "Active",
		Status:       pool.GameActive,
		StartRound:   1,
		CurrentRound: 1,
		FinalRound:   20,
		RoundStatus:  pool.RoundSelectionOpen,
	}
	registering := &pool.Game{
		ID:           uuid.New(),
		Name:         "Registering",
		Status:       pool.GameRegistration,
		StartRound:   1,
		CurrentRound: 1,
		FinalRound:   20,
		RoundStatus:  pool.RoundSelectionOpen,
	}
	require.NoError(t, gameStore.CreateGame(ctx, tx, active))
	require.NoError(t, gameStore.CreateGame(ctx, tx, registering))
	require.NoError(t, tx.Commit())

	games, err := gameStore.GetActiveGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, active.ID, games[0].ID)
}
