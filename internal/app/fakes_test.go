package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ticketcore/boxoffice/internal/domain"
)

// memStore is an in-memory stand-in for the postgres repositories. WithTx
// holds a single lock for the whole transaction and rolls the store back on
// error, which models the linearized short transactions the real store
// provides.
type memStore struct {
	mu    sync.Mutex
	items map[string]*domain.Item
	holds map[string]*domain.Hold
	sales []domain.Sale
}

func newMemStore(items ...domain.Item) *memStore {
	s := &memStore{
		items: make(map[string]*domain.Item),
		holds: make(map[string]*domain.Hold),
	}
	for _, item := range items {
		item := item
		s.items[item.ID] = &item
	}
	return s
}

type memTxKey struct{}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, holds, sales := s.snapshot()
	err := fn(context.WithValue(ctx, memTxKey{}, struct{}{}))
	if err != nil {
		s.items, s.holds, s.sales = items, holds, sales
	}
	return err
}

func (s *memStore) snapshot() (map[string]*domain.Item, map[string]*domain.Hold, []domain.Sale) {
	items := make(map[string]*domain.Item, len(s.items))
	for id, item := range s.items {
		cloned := *item
		items[id] = &cloned
	}
	holds := make(map[string]*domain.Hold, len(s.holds))
	for id, hold := range s.holds {
		cloned := *hold
		holds[id] = &cloned
	}
	sales := append([]domain.Sale{}, s.sales...)
	return items, holds, sales
}

// unlock only locks when called outside a transaction.
func (s *memStore) lock(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) FindOfferedHold(ctx context.Context, itemID, buyerID string) (*domain.Hold, error) {
	defer s.lock(ctx)()
	for _, hold := range s.holds {
		if hold.ItemID == itemID && hold.BuyerID == buyerID && hold.Status == domain.HoldStatusOffered {
			cloned := *hold
			return &cloned, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateHold(ctx context.Context, hold domain.Hold) error {
	defer s.lock(ctx)()
	for _, existing := range s.holds {
		if existing.ItemID == hold.ItemID && existing.BuyerID == hold.BuyerID && existing.Status == domain.HoldStatusOffered {
			return domain.ErrDuplicateOffer
		}
	}
	cloned := hold
	s.holds[hold.ID] = &cloned
	return nil
}

func (s *memStore) GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error) {
	defer s.lock(ctx)()
	hold, ok := s.holds[holdID]
	if !ok {
		return domain.Hold{}, domain.ErrHoldNotFound
	}
	return *hold, nil
}

func (s *memStore) MarkPurchased(ctx context.Context, holdID, paymentReference string) (bool, error) {
	defer s.lock(ctx)()
	hold, ok := s.holds[holdID]
	if !ok {
		return false, domain.ErrHoldNotFound
	}
	if hold.Status != domain.HoldStatusOffered {
		return false, nil
	}
	hold.Status = domain.HoldStatusPurchased
	hold.PaymentReference = paymentReference
	return true, nil
}

func (s *memStore) MarkExpired(ctx context.Context, holdID string) (bool, error) {
	defer s.lock(ctx)()
	hold, ok := s.holds[holdID]
	if !ok {
		return false, domain.ErrHoldNotFound
	}
	if hold.Status != domain.HoldStatusOffered {
		return false, nil
	}
	hold.Status = domain.HoldStatusExpired
	return true, nil
}

func (s *memStore) ListDueHolds(ctx context.Context, now time.Time, limit int) ([]domain.Hold, error) {
	defer s.lock(ctx)()
	var due []domain.Hold
	for _, hold := range s.holds {
		if hold.Status != domain.HoldStatusOffered {
			continue
		}
		if hold.ExpiresAt.After(now) {
			continue
		}
		due = append(due, *hold)
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (s *memStore) CreateSales(ctx context.Context, sales []domain.Sale) error {
	defer s.lock(ctx)()
	for _, sale := range sales {
		for _, existing := range s.sales {
			if existing.HoldID == sale.HoldID {
				return domain.ErrPaymentConflict
			}
		}
	}
	s.sales = append(s.sales, sales...)
	return nil
}

func (s *memStore) FindSales(ctx context.Context, holdID, paymentReference string) ([]domain.Sale, error) {
	defer s.lock(ctx)()
	var out []domain.Sale
	for _, sale := range s.sales {
		if sale.HoldID == holdID && sale.PaymentReference == paymentReference {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *memStore) GetItem(ctx context.Context, itemID string) (domain.Item, error) {
	defer s.lock(ctx)()
	item, ok := s.items[itemID]
	if !ok {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return *item, nil
}

func (s *memStore) CreateItem(ctx context.Context, item domain.Item) error {
	defer s.lock(ctx)()
	cloned := item
	s.items[item.ID] = &cloned
	return nil
}

func (s *memStore) ListItems(ctx context.Context) ([]domain.Item, error) {
	defer s.lock(ctx)()
	var items []domain.Item
	for _, item := range s.items {
		items = append(items, *item)
	}
	return items, nil
}

func (s *memStore) TryHold(ctx context.Context, itemID string, quantity int) error {
	defer s.lock(ctx)()
	item, ok := s.items[itemID]
	if !ok {
		return domain.ErrItemNotFound
	}
	if item.Sold+item.Held+quantity > item.Capacity {
		return domain.ErrInsufficientCapacity
	}
	item.Held += quantity
	return nil
}

func (s *memStore) Commit(ctx context.Context, itemID string, quantity int) error {
	defer s.lock(ctx)()
	item, ok := s.items[itemID]
	if !ok {
		return domain.ErrItemNotFound
	}
	if item.Held < quantity {
		return fmt.Errorf("ledger commit: item %s has fewer than %d held units", itemID, quantity)
	}
	item.Held -= quantity
	item.Sold += quantity
	return nil
}

func (s *memStore) Release(ctx context.Context, itemID string, quantity int) error {
	defer s.lock(ctx)()
	item, ok := s.items[itemID]
	if !ok {
		return domain.ErrItemNotFound
	}
	if item.Held < quantity {
		return fmt.Errorf("ledger release: item %s has fewer than %d held units", itemID, quantity)
	}
	item.Held -= quantity
	return nil
}

func (s *memStore) counters(itemID string) (sold, held int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.items[itemID]
	return item.Sold, item.Held
}

func (s *memStore) hold(holdID string) domain.Hold {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.holds[holdID]
}

func (s *memStore) saleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

func (s *memStore) addHold(hold domain.Hold) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := hold
	s.holds[hold.ID] = &cloned
}
