package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
)

// LocalCartRepository persists the unauthenticated cart as one serialized JSON array per slot key.
type LocalCartRepository interface {
	Load(ctx context.Context, key string) ([]domain.CartLineItem, error)
	Save(ctx context.Context, key string, items []domain.CartLineItem) error
	Delete(ctx context.Context, key string) error
}

func encodeItems(items []domain.CartLineItem) ([]byte, error) {
	if items == nil {
		items = []domain.CartLineItem{}
	}
	return json.Marshal(items)
}

func decodeItems(data []byte) ([]domain.CartLineItem, error) {
	if len(data) == 0 {
		return []domain.CartLineItem{}, nil
	}

	var items []domain.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLocalCart, err)
	}
	if items == nil {
		items = []domain.CartLineItem{}
	}
	return items, nil
}

type memoryLocalStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemoryLocalStore() LocalCartRepository {
	return &memoryLocalStore{
		slots: make(map[string][]byte),
	}
}

func (s *memoryLocalStore) Load(_ context.Context, key string) ([]domain.CartLineItem, error) {
	s.mu.RLock()
	data := s.slots[key]
	s.mu.RUnlock()

	return decodeItems(data)
}

func (s *memoryLocalStore) Save(_ context.Context, key string, items []domain.CartLineItem) error {
	data, err := encodeItems(items)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.slots[key] = data
	s.mu.Unlock()

	return nil
}

func (s *memoryLocalStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.slots, key)
	s.mu.Unlock()

	return nil
}
