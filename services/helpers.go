package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/club-scheduler/repositories"
	"github.com/Dosada05/club-scheduler/scheduler"
)

// withTx runs fn inside a transaction: rollback on error or panic, commit
// otherwise. Every repository call inside fn must receive tx.
func withTx(ctx context.Context, db *sql.DB, logger *slog.Logger, fn func(tx *sql.Tx) error) (txErr error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			logger.DebugContext(ctx, "rolling back transaction", slog.Any("error", txErr))
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.ErrorContext(ctx, "rollback failed", slog.Any("error", rbErr), slog.Any("original_error", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(tx)
	return txErr
}

// mapRepoError translates repository and engine errors into the service
// vocabulary. Unknown errors pass through unchanged.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrSessionNotFound):
		return ErrSessionNotFound
	case errors.Is(err, repositories.ErrRoundNotFound):
		return ErrRoundNotFound
	case errors.Is(err, repositories.ErrRoundMatchNotFound):
		return ErrRoundMatchNotFound
	case errors.Is(err, repositories.ErrPlayerNameConflict):
		return ErrPlayerNameConflict
	case errors.Is(err, repositories.ErrDuplicateMatch):
		return ErrDuplicateMatch
	case errors.Is(err, repositories.ErrAttendanceReferenceInvalid):
		return fmt.Errorf("%w: %v", ErrPlayerNotFound, err)
	case errors.Is(err, repositories.ErrRoundConflict),
		errors.Is(err, repositories.ErrRoundStateConflict),
		errors.Is(err, repositories.ErrRoundMatchCourtTaken),
		errors.Is(err, repositories.ErrSessionConflict),
		errors.Is(err, repositories.ErrUniqueViolation):
		return fmt.Errorf("%w: %v", ErrConcurrentUpdate, err)
	case errors.Is(err, repositories.ErrRoundMatchAlreadyCompleted):
		return fmt.Errorf("%w: match already scored", ErrInvalidRoundTransition)
	case errors.Is(err, scheduler.ErrTiedScore):
		return fmt.Errorf("%w: %v", ErrTiedScore, err)
	case errors.Is(err, scheduler.ErrInsufficientPlayers):
		return fmt.Errorf("%w: %v", ErrInsufficientPlayers, err)
	case errors.Is(err, scheduler.ErrCourtCapacityUnmet):
		return fmt.Errorf("%w: %v", ErrCourtCapacityUnmet, err)
	case errors.Is(err, scheduler.ErrInvalidTeamSize),
		errors.Is(err, scheduler.ErrInvalidScore),
		errors.Is(err, scheduler.ErrInvalidSide):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return err
}
