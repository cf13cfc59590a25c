package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/repository"
)

// LedgerRepository implements ledger.Repository for SQLite
type LedgerRepository struct {
	db *DB
}

var _ ledger.Repository = (*LedgerRepository)(nil)

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Get returns the vote set recorded for identity
func (r *LedgerRepository) Get(ctx context.Context, identity ledger.Identity) (ledger.Set, error) {
	return getLedger(ctx, r.db, identity)
}

// Record appends proposalID to the identity's set inside a transaction and
// returns the resulting set. added is false when the id was already there,
// in which case nothing is written.
func (r *LedgerRepository) Record(ctx context.Context, identity ledger.Identity, proposalID string) (ledger.Set, bool, error) {
	var set ledger.Set
	var added bool
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		set, err = getLedger(ctx, tx, identity)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if set.Contains(proposalID) {
			return nil
		}
		set = set.With(proposalID)

		data, err := json.Marshal(set)
		if err != nil {
			return fmt.Errorf("failed to encode ledger: %w", err)
		}

		query := `
			INSERT INTO vote_ledgers (identity, data, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(identity) DO UPDATE SET
				data = excluded.data,
				updated_at = excluded.updated_at
		`
		if _, err := tx.ExecContext(ctx, query, string(identity), string(data), time.Now()); err != nil {
			return fmt.Errorf("failed to record vote: %w", err)
		}
		added = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return set, added, nil
}

func getLedger(ctx context.Context, q queryer, identity ledger.Identity) (ledger.Set, error) {
	var data string
	err := q.QueryRowContext(ctx,
		`SELECT data FROM vote_ledgers WHERE identity = ?`, string(identity),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode ledger: %w", err)
	}
	return ledger.Normalize(ids), nil
}
