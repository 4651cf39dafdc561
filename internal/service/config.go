package service

import "time"

// Config carries the engine's tunables explicitly; the services never read
// ambient global state.
type Config struct {
	// MaxRounds caps how many rounds a game can run before remaining
	// survivors are declared co-winners.
	MaxRounds int

	// MaxDeadlineHorizon is a sanity bound on how far out a round
	// deadline may be set, not a game rule.
	MaxDeadlineHorizon time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRounds:          20,
		MaxDeadlineHorizon: 30 * 24 * time.Hour,
	}
}
