package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/ward"
	"github.com/ganot/wardbudget/internal/repository"
)

// WardRepository implements ward.Repository for SQLite
type WardRepository struct {
	db *DB
}

var _ ward.Repository = (*WardRepository)(nil)

// NewWardRepository creates a new WardRepository
func NewWardRepository(db *DB) *WardRepository {
	return &WardRepository{db: db}
}

// Get returns the stored collection for a ward
func (r *WardRepository) Get(ctx context.Context, wardID string) ([]proposal.Proposal, error) {
	return getWard(ctx, r.db, wardID)
}

// Save replaces the ward's collection in a single statement
func (r *WardRepository) Save(ctx context.Context, wardID string, proposals []proposal.Proposal) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		return saveWard(ctx, tx, wardID, proposals)
	})
}

// Update reads the ward's collection, hands it to fn and writes fn's result
// back in the same transaction
func (r *WardRepository) Update(ctx context.Context, wardID string, fn ward.Change) ([]proposal.Proposal, error) {
	var out []proposal.Proposal
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getWard(ctx, tx, wardID)
		if errors.Is(err, repository.ErrNotFound) {
			current = nil
		} else if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			next = []proposal.Proposal{}
		}
		if err := saveWard(ctx, tx, wardID, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getWard(ctx context.Context, q queryer, wardID string) ([]proposal.Proposal, error) {
	var data string
	err := q.QueryRowContext(ctx,
		`SELECT data FROM ward_proposals WHERE ward_id = ?`, wardID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ward: %w", err)
	}

	var proposals []proposal.Proposal
	if err := json.Unmarshal([]byte(data), &proposals); err != nil {
		return nil, fmt.Errorf("failed to decode ward %s: %w", wardID, err)
	}
	if proposals == nil {
		proposals = []proposal.Proposal{}
	}
	return proposals, nil
}

func saveWard(ctx context.Context, e execer, wardID string, proposals []proposal.Proposal) error {
	data, err := json.Marshal(proposals)
	if err != nil {
		return fmt.Errorf("failed to encode ward %s: %w", wardID, err)
	}

	query := `
		INSERT INTO ward_proposals (ward_id, data, proposal_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ward_id) DO UPDATE SET
			data = excluded.data,
			proposal_count = excluded.proposal_count,
			updated_at = excluded.updated_at
	`
	if _, err := e.ExecContext(ctx, query, wardID, string(data), len(proposals), time.Now()); err != nil {
		return fmt.Errorf("failed to save ward: %w", err)
	}
	return nil
}

// List returns every stored ward, most recently changed first
func (r *WardRepository) List(ctx context.Context) ([]ward.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ward_id, proposal_count, updated_at
		FROM ward_proposals
		ORDER BY updated_at DESC, ward_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wards: %w", err)
	}
	defer rows.Close()

	var summaries []ward.Summary
	for rows.Next() {
		var s ward.Summary
		if err := rows.Scan(&s.WardID, &s.ProposalCount, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ward summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ward rows: %w", err)
	}
	return summaries, nil
}
