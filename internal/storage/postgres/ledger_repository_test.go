package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/ticketcore/boxoffice/internal/domain"
	"github.com/ticketcore/boxoffice/internal/testutil"
)

func TestLedgerRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewLedgerRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	counters := func(ctx context.Context, itemID string) (sold, held int) {
		t.Helper()
		if err := pool.QueryRow(ctx, "SELECT sold, held FROM items WHERE id = $1", itemID).Scan(&sold, &held); err != nil {
			t.Fatalf("query counters: %v", err)
		}
		return sold, held
	}

	t.Run("TryHold enforces capacity", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Concert", 500, 10)

		if err := repo.TryHold(ctx, itemID, 7); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.TryHold(ctx, itemID, 4); err != domain.ErrInsufficientCapacity {
			t.Fatalf("expected ErrInsufficientCapacity, got %v", err)
		}
		if err := repo.TryHold(ctx, itemID, 3); err != nil {
			t.Fatalf("expected exact fit to succeed, got %v", err)
		}

		sold, held := counters(ctx, itemID)
		if sold != 0 || held != 10 {
			t.Fatalf("expected sold=0 held=10, got sold=%d held=%d", sold, held)
		}

		if err := repo.TryHold(ctx, "not-a-uuid", 1); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("TryHold counts sold against capacity", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Concert", 500, 10)
		testutil.SetCounters(t, ctx, pool, itemID, 8, 0)

		if err := repo.TryHold(ctx, itemID, 3); err != domain.ErrInsufficientCapacity {
			t.Fatalf("expected ErrInsufficientCapacity, got %v", err)
		}
		if err := repo.TryHold(ctx, itemID, 2); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("Commit moves held to sold", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Concert", 500, 10)
		testutil.SetCounters(t, ctx, pool, itemID, 0, 4)

		if err := repo.Commit(ctx, itemID, 4); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		sold, held := counters(ctx, itemID)
		if sold != 4 || held != 0 {
			t.Fatalf("expected sold=4 held=0, got sold=%d held=%d", sold, held)
		}

		if err := repo.Commit(ctx, itemID, 1); err == nil {
			t.Fatalf("expected error committing more than held")
		}
	})

	t.Run("Release frees held without touching sold", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Concert", 500, 10)
		testutil.SetCounters(t, ctx, pool, itemID, 3, 5)

		if err := repo.Release(ctx, itemID, 5); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		sold, held := counters(ctx, itemID)
		if sold != 3 || held != 0 {
			t.Fatalf("expected sold=3 held=0, got sold=%d held=%d", sold, held)
		}

		if err := repo.Release(ctx, itemID, 1); err == nil {
			t.Fatalf("expected error releasing more than held")
		}
	})

	t.Run("concurrent TryHold never exceeds capacity", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		itemID := testutil.InsertItem(t, ctx, pool, "Concert", 500, 25)

		const workers = 100
		var wg sync.WaitGroup
		results := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- repo.TryHold(ctx, itemID, 1)
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			switch err {
			case nil:
				succeeded++
			case domain.ErrInsufficientCapacity:
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if succeeded != 25 {
			t.Fatalf("expected exactly 25 successful holds, got %d", succeeded)
		}

		sold, held := counters(ctx, itemID)
		if sold != 0 || held != 25 {
			t.Fatalf("expected sold=0 held=25, got sold=%d held=%d", sold, held)
		}
	})
}
