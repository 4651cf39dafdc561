package pool

import (
	"time"

	"github.com/google/uuid"
)

type GameStatus string

const (
	GameRegistration GameStatus = "registration"
	GameActive       GameStatus = "active"
	GameCompleted    GameStatus = "completed"
)

type RoundStatus string

const (
	RoundSelectionOpen   RoundStatus = "selection_open"
	RoundSelectionLocked RoundStatus = "selection_locked"
	RoundCalculated      RoundStatus = "calculated"
)

type Game struct {
	ID     uuid.UUID  `db:"id"`
	Name   string     `db:"name" json:"name"`
	Status GameStatus `db:"status"`

	// Round numbers refer to league matchdays, so a game can start
	// mid-season and still line up with the fixture calendar.
	StartRound   int `db:"start_round"`
	CurrentRound int `db:"current_round"`
	FinalRound   int `db:"final_round"`

	RoundStatus   RoundStatus `db:"round_status"`
	RoundDeadline *time.Time  `db:"round_deadline"`

	CreatedAt time.Time `db:"created_at"`
}

func (g *Game) SelectionsOpen() bool {
	return g.Status == GameActive && g.RoundStatus == RoundSelectionOpen
}

// AtFinalRound reports whether the round being scored is the last one the
// game can run; survivors past it become co-winners.
func (g *Game) AtFinalRound(round int) bool {
	return round >= g.FinalRound
}
