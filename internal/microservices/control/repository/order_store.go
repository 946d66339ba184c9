package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"robot-pick-system/internal/domain"
)

type OrderStoreInterface interface {
	Create(requested map[domain.Color]int) domain.Order
	Get(id string) (domain.Order, error)
	List() []domain.Order
	Remove(id string) error
	RecordCompletion(id string, color domain.Color) (domain.Order, error)
}

// OrderStore keeps orders in memory in insertion order. Every method
// returns copies, so callers never hold a reference into the store.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	seq    []string

	now   func() time.Time
	newID func() string
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]*domain.Order),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func (s *OrderStore) Create(requested map[domain.Color]int) domain.Order {
	o := &domain.Order{
		ID:        s.newID(),
		Requested: make(map[domain.Color]int, len(domain.Colors)),
		Completed: make(map[domain.Color]int, len(domain.Colors)),
		CreatedAt: s.now(),
	}
	for _, c := range domain.Colors {
		o.Requested[c] = requested[c]
		o.Completed[c] = 0
	}
	o.Status = domain.DeriveStatus(o.Requested, o.Completed)

	s.mu.Lock()
	s.orders[o.ID] = o
	s.seq = append(s.seq, o.ID)
	s.mu.Unlock()

	return o.Clone()
}

func (s *OrderStore) Get(id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return o.Clone(), nil
}

func (s *OrderStore) List() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0, len(s.seq))
	for _, id := range s.seq {
		out = append(out, s.orders[id].Clone())
	}
	return out
}

func (s *OrderStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	delete(s.orders, id)
	for i, v := range s.seq {
		if v == id {
			s.seq = append(s.seq[:i], s.seq[i+1:]...)
			break
		}
	}
	return nil
}

func (s *OrderStore) RecordCompletion(id string, color domain.Color) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	o.Completed[color]++
	o.Status = domain.DeriveStatus(o.Requested, o.Completed)
	return o.Clone(), nil
}
