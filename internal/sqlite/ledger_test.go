package sqlite

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_Record(t *testing.T) {
	db := NewTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()
	id := ledger.NewIdentity("Asha", "ward-12")

	_, err := repo.Get(ctx, id)
	require.ErrorIs(t, err, repository.ErrNotFound)

	set, added, err := repo.Record(ctx, id, "dummy-1")
	require.NoError(t, err)
	require.True(t, added)
	require.Equal(t, ledger.Set{"dummy-1"}, set)

	_, added, err = repo.Record(ctx, id, "dummy-3")
	require.NoError(t, err)
	require.True(t, added)
	set, added, err = repo.Record(ctx, id, "dummy-1")
	require.NoError(t, err)
	require.False(t, added)
	require.Equal(t, ledger.Set{"dummy-1", "dummy-3"}, set)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, ledger.Set{"dummy-1", "dummy-3"}, got)
}

func TestLedgerRepository_IdentitiesAreSeparate(t *testing.T) {
	db := NewTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	_, _, err := repo.Record(ctx, ledger.NewIdentity("Asha", "ward-1"), "dummy-1")
	require.NoError(t, err)

	_, err = repo.Get(ctx, ledger.NewIdentity("Asha", "ward-2"))
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.Get(ctx, ledger.NewIdentity("Asha K", "ward-1"))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLedgerRepository_ConcurrentRecordAddsOnce(t *testing.T) {
	db := NewTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()
	id := ledger.NewIdentity("Asha", "ward-1")

	var added atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.Record(ctx, id, "dummy-3")
			if err == nil && ok {
				added.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), added.Load())
	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, ledger.Set{"dummy-3"}, got)
}
