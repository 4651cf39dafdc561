package pool

import "errors"

// Rejection reasons surfaced verbatim to callers. None of these mutate
// state and none are retried automatically.
var (
	ErrRoundNotOpen           = errors.New("round is not open for selections")
	ErrSelectionsLocked       = errors.New("selections are locked for this round")
	ErrTicketEliminated       = errors.New("ticket has been eliminated")
	ErrTeamAlreadySelected    = errors.New("team was already selected by this ticket")
	ErrInvalidTeamForRound    = errors.New("team does not play in this round")
	ErrAlreadyPickedThisRound = errors.New("ticket already has a pick for this round")
)

// Retryable precondition: resolving is refused until every match of the
// round has a final result.
var ErrResultsIncomplete = errors.New("round results are incomplete")

// Lifecycle and admin preconditions.
var (
	ErrGameNotInRegistration = errors.New("game is not in registration")
	ErrGameNotActive         = errors.New("game is not active")
	ErrGameCompleted         = errors.New("game is already completed")
	ErrRoundNotLocked        = errors.New("round is not locked for resolution")
	ErrDeadlineNotFuture     = errors.New("deadline must be in the future")
	ErrDeadlineTooFar        = errors.New("deadline is beyond the allowed horizon")
)

var reasonCodes = map[error]string{
	ErrRoundNotOpen:           "ROUND_NOT_OPEN",
	ErrSelectionsLocked:       "SELECTIONS_LOCKED",
	ErrTicketEliminated:       "TICKET_ELIMINATED",
	ErrTeamAlreadySelected:    "TEAM_ALREADY_SELECTED",
	ErrInvalidTeamForRound:    "INVALID_TEAM_FOR_ROUND",
	ErrAlreadyPickedThisRound: "ALREADY_PICKED_THIS_ROUND",
	ErrResultsIncomplete:      "RESULTS_INCOMPLETE",
	ErrGameNotInRegistration:  "GAME_NOT_IN_REGISTRATION",
	ErrGameNotActive:          "GAME_NOT_ACTIVE",
	ErrGameCompleted:          "GAME_COMPLETED",
	ErrRoundNotLocked:         "ROUND_NOT_LOCKED",
	ErrDeadlineNotFuture:      "DEADLINE_NOT_FUTURE",
	ErrDeadlineTooFar:         "DEADLINE_TOO_FAR",
}

// ReasonOf maps a rejection to its stable wire code, or "" for errors that
// have no public reason (internal failures).
func ReasonOf(err error) string {
	for sentinel, code := range reasonCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ""
}
