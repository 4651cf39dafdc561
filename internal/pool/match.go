package pool

import (
	"time"

	"github.com/google/uuid"
)

type MatchResult string

const (
	ResultHome MatchResult = "H"
	ResultAway MatchResult = "A"
	ResultDraw MatchResult = "D"
)

type Team struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	ShortName string    `db:"short_name"`
}

// Match rows come from the external fixture and result providers; the
// engine only ever reads them.
type Match struct {
	ID         uuid.UUID `db:"id"`
	Round      int       `db:"round"`
	HomeTeamID uuid.UUID `db:"home_team_id"`
	AwayTeamID uuid.UUID `db:"away_team_id"`

	HomeScore   *int         `db:"home_score"`
	AwayScore   *int         `db:"away_score"`
	Result      *MatchResult `db:"result"`
	IsCompleted bool         `db:"is_completed"`

	KickoffAt *time.Time `db:"kickoff_at"`
	Venue     *string    `db:"venue"`
}

func (m *Match) Involves(teamID uuid.UUID) bool {
	return m.HomeTeamID == teamID || m.AwayTeamID == teamID
}

// WinnerTeamID returns nil for a draw or an unfinished match. A draw
// eliminates both pickers, so "no winner" is all the resolver needs.
func (m *Match) WinnerTeamID() *uuid.UUID {
	if !m.IsCompleted || m.Result == nil {
		return nil
	}
	switch *m.Result {
	case ResultHome:
		id := m.HomeTeamID
		return &id
	case ResultAway:
		id := m.AwayTeamID
		return &id
	}
	return nil
}

func DeriveResult(homeScore, awayScore int) MatchResult {
	switch {
	case homeScore > awayScore:
		return ResultHome
	case awayScore > homeScore:
		return ResultAway
	default:
		return ResultDraw
	}
}
