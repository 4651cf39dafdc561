package pool

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus is a display-only projection, never stored. The stored truth
// is the IsActive flag plus the game state.
type TicketStatus string

const (
	TicketActive     TicketStatus = "active"
	TicketPassed     TicketStatus = "passed"
	TicketEliminated TicketStatus = "eliminated"
	TicketWinner     TicketStatus = "winner"
)

type Ticket struct {
	ID      uuid.UUID `db:"id"`
	GameID  uuid.UUID `db:"game_id"`
	OwnerID uuid.UUID `db:"owner_id"`
	Label   string    `db:"label"`

	// IsActive is monotonic: the resolver flips it to false exactly once
	// and nothing ever flips it back.
	IsActive          bool `db:"is_active"`
	EliminatedInRound *int `db:"eliminated_in_round"`

	CreatedAt time.Time `db:"created_at"`
}

// ProjectTicketStatus derives the display status from stored state. Pure:
// all mutation flows through the resolver and win evaluator.
func ProjectTicketStatus(g *Game, t *Ticket) TicketStatus {
	if !t.IsActive {
		return TicketEliminated
	}
	if g.Status == GameCompleted {
		return TicketWinner
	}
	if g.Status == GameActive && g.RoundStatus == RoundCalculated {
		return TicketPassed
	}
	return TicketActive
}
