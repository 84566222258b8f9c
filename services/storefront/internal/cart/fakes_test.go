package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	generalDomain "github.com/sakashimaa/storefront/pkg/domain"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"github.com/sakashimaa/storefront/services/storefront/internal/repository"
)

var errBackendDown = fmt.Errorf("%w: backend down", domain.ErrNetwork)

type fakeRemote struct {
	mu     sync.Mutex
	carts  map[string][]domain.CartLineItem
	calls  []string
	tokens []string
	fail   map[string]error
	gates  map[string]chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		carts: make(map[string][]domain.CartLineItem),
		fail:  make(map[string]error),
		gates: make(map[string]chan struct{}),
	}
}

func (f *fakeRemote) seed(userID string, items ...domain.CartLineItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[userID] = domain.CloneItems(items)
}

func (f *fakeRemote) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

// hold makes the next calls of op block until the returned func is called.
func (f *fakeRemote) hold(op string) func() {
	ch := make(chan struct{})

	f.mu.Lock()
	f.gates[op] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, op)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *fakeRemote) enter(op, record string, session domain.Session) error {
	f.mu.Lock()
	f.calls = append(f.calls, record)
	f.tokens = append(f.tokens, session.Token)
	gate := f.gates[op]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[op]
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) Cart(userID string) []domain.CartLineItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.CloneItems(f.carts[userID])
}

func (f *fakeRemote) Fetch(_ context.Context, session domain.Session) ([]domain.CartLineItem, error) {
	if err := f.enter("Fetch", "Fetch", session); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.CloneItems(f.carts[session.UserID]), nil
}

func (f *fakeRemote) Add(_ context.Context, session domain.Session, productID string, quantity int) error {
	if err := f.enter("Add", fmt.Sprintf("Add:%s:%d", productID, quantity), session); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[session.UserID] = addLine(f.carts[session.UserID], domain.CartLineItem{ProductID: productID, Quantity: quantity})
	return nil
}

func (f *fakeRemote) Update(_ context.Context, session domain.Session, productID string, quantity int) error {
	if err := f.enter("Update", fmt.Sprintf("Update:%s:%d", productID, quantity), session); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[session.UserID] = setQuantity(f.carts[session.UserID], productID, quantity)
	return nil
}

func (f *fakeRemote) Remove(_ context.Context, session domain.Session, productID string) error {
	if err := f.enter("Remove", "Remove:"+productID, session); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[session.UserID] = removeLine(f.carts[session.UserID], productID)
	return nil
}

func (f *fakeRemote) Clear(_ context.Context, session domain.Session) error {
	if err := f.enter("Clear", "Clear", session); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[session.UserID] = nil
	return nil
}

type fakeCatalog struct {
	products map[string]domain.Product
}

func (f *fakeCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	return nil, nil
}

type fakeOrders struct {
	mu     sync.Mutex
	err    error
	drafts []*domain.OrderDraft
	// onSubmit runs before the order is accepted.
	onSubmit func()
}

func (f *fakeOrders) Submit(_ context.Context, _ domain.Session, draft *domain.OrderDraft) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.onSubmit != nil {
		f.onSubmit()
	}

	f.drafts = append(f.drafts, draft)
	if f.err != nil {
		return nil, f.err
	}

	return &domain.Order{
		ID:        fmt.Sprintf("order-%d", len(f.drafts)),
		UserID:    draft.UserID,
		Status:    domain.OrderStatusNew,
		LineItems: draft.LineItems,
		Total:     draft.Total,
		CreatedAt: draft.CreatedAt,
	}, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	err    error
	events []*generalDomain.CartCheckedOutEvent
}

func (f *fakeEvents) PublishCartCheckedOut(_ context.Context, event *generalDomain.CartCheckedOutEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, event)
	return f.err
}

var errSubmitRejected = errors.New("order service rejected the draft")

// deadlineStore fails writes whose context is already done, like the network stores.
type deadlineStore struct {
	repository.LocalCartRepository

	mu      sync.Mutex
	deletes int
	// release, when set, holds every Save until it is closed.
	release chan struct{}
}

func (s *deadlineStore) Save(ctx context.Context, key string, items []domain.CartLineItem) error {
	s.mu.Lock()
	release := s.release
	s.mu.Unlock()

	if release != nil {
		<-release
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.LocalCartRepository.Save(ctx, key, items)
}

func (s *deadlineStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.deletes++
	s.mu.Unlock()

	return s.LocalCartRepository.Delete(ctx, key)
}
