package pool

import (
	"time"

	"github.com/google/uuid"
)

// TeamSelection is insert-only: a pick is final once accepted, resubmission
// is rejected rather than overwritten.
type TeamSelection struct {
	ID       uuid.UUID `db:"id"`
	TicketID uuid.UUID `db:"ticket_id"`
	GameID   uuid.UUID `db:"game_id"`
	TeamID   uuid.UUID `db:"team_id"`
	Round    int       `db:"round"`

	CreatedAt time.Time `db:"created_at"`
}
