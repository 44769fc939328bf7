package repository

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shareit-rental/service-shareit/internal/common/database"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgExclusionViolation   = "23P01"

	maxTxRetries = 3
	retryBase    = 50 * time.Millisecond
)

type txKey struct{}

// TxManager runs units of work in read-committed GORM transactions and
// retries them on serialization failures and deadlocks.
type TxManager struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTxManager creates a TxManager.
func NewTxManager(db *gorm.DB, logger *zap.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

// WithinTransaction runs fn inside a transaction carried by ctx. Repositories
// called with that ctx join it. Nested calls join the outer transaction.
// Callbacks registered with database.AfterCommit run once the commit succeeds.
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 0; attempt <= maxTxRetries; attempt++ {
		txCtx, hooks := database.WithCommitHooks(ctx)
		err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(txCtx, txKey{}, tx))
		}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})

		if err == nil {
			hooks.Run(ctx)
			return nil
		}
		if !isRetryable(err) || attempt == maxTxRetries {
			return err
		}

		wait := time.Duration(1<<attempt)*retryBase + time.Duration(rand.Int64N(int64(retryBase)))
		m.logger.Warn("retrying transaction",
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

// conn returns the transaction bound to ctx, or the pool.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isRetryable(err error) bool {
	code := pgCode(err)
	return code == pgSerializationFailure || code == pgDeadlockDetected
}
