package postgres

import (
	"context"
	"errors"
	"fmt"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"pharmaSupply/pkg/metrics"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const defaultTxAttempts = 3

type txKey struct{}

// TxManager runs a function inside a database transaction. Repositories
// pick the transaction up from the context through conn.
type TxManager struct {
	DB          *gorm.DB
	maxAttempts int
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{
		DB:          db,
		maxAttempts: defaultTxAttempts,
	}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise.
// Serialization failures and deadlocks restart the whole function.
// Nested calls reuse the outer transaction.
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		})
		if err == nil || !isRetryable(err) {
			return err
		}

		metrics.TxRetries.Inc()
		logger.Warn("Retrying transaction", "attempt", attempt, "error", err)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("context error: %w", ctxErr)
		}
	}

	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}

// conn returns the transaction carried by ctx, or the base handle.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.ForeignKeyViolation
	}
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

// isInvalidText matches a value Postgres could not parse, such as a
// malformed uuid.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}

// missing reports whether a lookup by id found nothing. A malformed id
// cannot name a stored row.
func missing(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || isInvalidText(err)
}

// validIDs drops the ids that are not uuids.
func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if domain.IsID(id) {
			out = append(out, id)
		}
	}
	return out
}
