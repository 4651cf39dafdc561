package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/lmoretti/highlander/internal/pool"
	"github.com/lmoretti/highlander/internal/store"
)

// DeadlineService owns the selection_open -> selection_locked transition.
// Locking happens either on a periodic sweep past the deadline or by an
// explicit admin override; both paths funnel through the same lock.
type DeadlineService struct {
	db    *sqlx.DB
	store *store.GameStore
	clock clockwork.Clock
	cfg   Config
}

func NewDeadlineService(db *sqlx.DB, gameStore *store.GameStore, clock clockwork.Clock, cfg Config) *DeadlineService {
	return &DeadlineService{db: db, store: gameStore, clock: clock, cfg: cfg}
}

// SetDeadline sets or moves the current round's deadline. Moving it while
// selections already exist is allowed (admin corrective action) and never
// invalidates accepted picks.
func (s *DeadlineService) SetDeadline(ctx context.Context, gameID uuid.UUID, deadline time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	game, err := s.store.GetGameTx(ctx, tx, gameID.String())
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	if game.Status != pool.GameActive {
		return pool.ErrGameNotActive
	}
	if game.RoundStatus != pool.RoundSelectionOpen {
		return pool.ErrSelectionsLocked
	}

	now := s.clock.Now()
	if !deadline.After(now) {
		return pool.ErrDeadlineNotFuture
	}
	if deadline.After(now.Add(s.cfg.MaxDeadlineHorizon)) {
		return pool.ErrDeadlineTooFar
	}

	game.RoundDeadline = &deadline
	if err := s.store.UpdateGameRound(ctx, tx, game); err != nil {
		return fmt.Errorf("failed to set deadline: %w", err)
	}

	return tx.Commit()
}

// LockRound is the admin override for the open -> locked transition.
// Locking an already locked round is a no-op.
func (s *DeadlineService) LockRound(ctx context.Context, gameID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	game, err := s.store.GetGameTx(ctx, tx, gameID.String())
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	if game.Status != pool.GameActive {
		return pool.ErrGameNotActive
	}
	switch game.RoundStatus {
	case pool.RoundSelectionLocked:
		return nil
	case pool.RoundCalculated:
		return pool.ErrRoundNotOpen
	}

	game.RoundStatus = pool.RoundSelectionLocked
	if err := s.store.UpdateGameRound(ctx, tx, game); err != nil {
		return fmt.Errorf("failed to lock round: %w", err)
	}

	return tx.Commit()
}

// shouldLock is the whole deadline decision; keeping it pure keeps the
// timer mechanics out of the transition logic.
func shouldLock(now time.Time, deadline *time.Time, status pool.RoundStatus) bool {
	return status == pool.RoundSelectionOpen && deadline != nil && !now.Before(*deadline)
}

// Sweep locks every active game whose deadline has passed. Idempotent; the
// in-transaction re-check makes it safe to race an admin lock.
func (s *DeadlineService) Sweep(ctx context.Context) (int, error) {
	games, err := s.store.GetActiveGames(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active games: %w", err)
	}

	locked := 0
	now := s.clock.Now()
	for i := range games {
		if !shouldLock(now, games[i].RoundDeadline, games[i].RoundStatus) {
			continue
		}
		if err := s.lockExpired(ctx, games[i].ID); err != nil {
			return locked, err
		}
		locked++
	}
	return locked, nil
}

func (s *DeadlineService) lockExpired(ctx context.Context, gameID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	game, err := s.store.GetGameTx(ctx, tx, gameID.String())
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}
	if !shouldLock(s.clock.Now(), game.RoundDeadline, game.RoundStatus) {
		return nil
	}

	game.RoundStatus = pool.RoundSelectionLocked
	if err := s.store.UpdateGameRound(ctx, tx, game); err != nil {
		return fmt.Errorf("failed to lock round: %w", err)
	}

	return tx.Commit()
}

// Run drives Sweep on a ticker until the context ends. The cron-style
// polling lives here; everything it calls is idempotent.
func (s *DeadlineService) Run(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			n, err := s.Sweep(ctx)
			if err != nil {
				slog.Error("deadline sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("locked rounds past deadline", "games", n)
			}
		}
	}
}
