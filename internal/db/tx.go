package db

import (
	"database/sql"
	"math/rand"
	"strings"
	"time"

	"github.com/attachehq/attache/internal/errors"
)

// Retry policy for transient lock contention. SQLite serializes writers;
// a second writer sees SQLITE_BUSY rather than queueing indefinitely.
const (
	baseBackoff = 50 * time.Millisecond
	maxBackoff  = 1 * time.Second
)

// IsLockContention checks if the error is a transient SQLite lock error.
func IsLockContention(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// WithTx runs fn inside a transaction, committing on nil and rolling
// back on error. Lock contention is retried up to retries times with
// jittered backoff; once retries are exhausted the error surfaces as
// PERSISTENCE_FAILURE. Non-transient errors from fn pass through
// unchanged so callers keep their taxonomy.
func WithTx(database *sql.DB, retries int, fn func(tx *sql.Tx) error) error {
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			sleepBackoff(attempt)
		}

		err := runTx(database, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errors.ErrLockContention) {
			return err
		}
		lastErr = err
	}

	return errors.NewPersistenceFailure(lastErr)
}

// runTx executes fn in a single transaction attempt.
func runTx(database *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := database.Begin()
	if err != nil {
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return errors.NewPersistenceFailure(err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return errors.NewPersistenceFailure(err)
	}

	return nil
}

// sleepBackoff sleeps for an exponentially growing, jittered interval.
func sleepBackoff(attempt int) {
	backoff := baseBackoff << (attempt - 1)
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	// Full jitter: sleep a random fraction of the computed backoff
	time.Sleep(time.Duration(rand.Int63n(int64(backoff)) + int64(baseBackoff)/2))
}
