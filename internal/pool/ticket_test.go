package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectTicketStatus(t *testing.T) {
	tests := []struct {
		name        string
		gameStatus  GameStatus
		roundStatus RoundStatus
		isActive    bool
		want        TicketStatus
	}{
		{"eliminated beats everything", GameActive, RoundSelectionOpen, false, TicketEliminated},
		{"eliminated in completed game", GameCompleted, RoundCalculated, false, TicketEliminated},
		{"survivor of completed game is winner", GameCompleted, RoundCalculated, true, TicketWinner},
		{"selecting", GameActive, RoundSelectionOpen, true, TicketActive},
		{"waiting on results", GameActive, RoundSelectionLocked, true, TicketActive},
		{"survived the scored round", GameActive, RoundCalculated, true, TicketPassed},
		{"registration defaults to active", GameRegistration, RoundSelectionOpen, true, TicketActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game := &Game{Status: tt.gameStatus, RoundStatus: tt.roundStatus}
			ticket := &Ticket{IsActive: tt.isActive}
			assert.Equal(t, tt.want, ProjectTicketStatus(game, ticket))
		})
	}
}
