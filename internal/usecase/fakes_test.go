package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/shopspring/decimal"
)

// serviceError имитирует ошибку сервиса корзины с сообщением для пользователя.
type serviceError struct {
	status  int
	message string
}

func (s *serviceError) Error() string {
	return fmt.Sprintf("cart service: status %d: %s", s.status, s.message)
}

func (s *serviceError) UserMessage() string {
	return s.message
}

// fakeService — сервис корзины в памяти. Хуки вызываются вне блокировки,
// поэтому могут блокировать вызов, имитируя запрос в пути.
type fakeService struct {
	mu      sync.Mutex
	cartID  string
	catalog map[string]domain.ProductSnapshot
	items   []domain.CartItem
	calls   []string
	errs    map[string]error

	updateHook func(call int, itemID string, quantity int) error
	getHook    func(call int)
	updates    int
	gets       int
}

func newFakeService() *fakeService {
	return &fakeService{
		cartID:  "cart-1",
		catalog: make(map[string]domain.ProductSnapshot),
		errs:    make(map[string]error),
	}
}

func (f *fakeService) addProduct(id string, price string, stock int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := decimal.RequireFromString(price)
	f.catalog[id] = domain.ProductSnapshot{
		ID:           id,
		Name:         "Product " + id,
		Slug:         "product-" + id,
		Price:        p,
		CurrentPrice: p,
		Stock:        stock,
	}
}

// setLine меняет строку на стороне сервера в обход движка.
func (f *fakeService) setLine(productID string, quantity int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		if f.items[i].Product.ID == productID {
			f.items[i].Quantity = quantity
			return
		}
	}
	f.items = append(f.items, domain.CartItem{
		ID:       "item-" + productID,
		Product:  f.catalog[productID],
		Quantity: quantity,
	})
}

func (f *fakeService) setPrice(productID string, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := decimal.RequireFromString(price)
	for i := range f.items {
		if f.items[i].Product.ID == productID {
			f.items[i].Product.Price = p
			f.items[i].Product.CurrentPrice = p
		}
	}
}

func (f *fakeService) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

func (f *fakeService) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) serverCart() *domain.Cart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cartLocked()
}

func (f *fakeService) cartLocked() *domain.Cart {
	items := make([]domain.CartItem, len(f.items))
	copy(items, f.items)
	return domain.NewCart(f.cartID, items).Clone()
}

func (f *fakeService) record(call string, op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.errs[op]
}

func (f *fakeService) GetCart(_ context.Context) (*domain.Cart, error) {
	err := f.record("get", opFetch)

	f.mu.Lock()
	f.gets++
	n, hook := f.gets, f.getHook
	cart := f.cartLocked()
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func (f *fakeService) AddItem(_ context.Context, productID string, quantity int) (*domain.Cart, error) {
	if err := f.record(fmt.Sprintf("add:%s:%d", productID, quantity), opAdd); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.catalog[productID]
	if !ok {
		return nil, &serviceError{status: 404, message: "Product not found"}
	}

	for i := range f.items {
		if f.items[i].Product.ID == productID {
			f.items[i].Quantity += quantity
			return f.cartLocked(), nil
		}
	}
	f.items = append(f.items, domain.CartItem{ID: "item-" + productID, Product: product, Quantity: quantity})

	return f.cartLocked(), nil
}

func (f *fakeService) UpdateItem(_ context.Context, itemID string, quantity int) error {
	err := f.record(fmt.Sprintf("update:%s:%d", itemID, quantity), opUpdate)

	f.mu.Lock()
	f.updates++
	n, hook := f.updates, f.updateHook
	f.mu.Unlock()

	if hook != nil {
		if hookErr := hook(n, itemID, quantity); hookErr != nil {
			return hookErr
		}
	}
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == itemID {
			f.items[i].Quantity = quantity
			return nil
		}
	}

	return e.ErrItemNotFound
}

func (f *fakeService) RemoveItem(_ context.Context, itemID string) error {
	if err := f.record("remove:"+itemID, opRemove); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == itemID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}

	return e.ErrItemNotFound
}

func (f *fakeService) ClearCart(_ context.Context) error {
	if err := f.record("clear", opClear); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil

	return nil
}

// memoryStore — хранилище снимков для тестов движка.
type memoryStore struct {
	mu    sync.Mutex
	cart  *domain.Cart
	saved bool
	saves int
}

func (m *memoryStore) Save(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = cart.Clone()
	m.saved = true
	m.saves++
	return nil
}

func (m *memoryStore) Load(_ context.Context) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return nil, e.ErrSnapshotNotFound
	}
	return m.cart.Clone(), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []CartEvent
}

func (r *recordingPublisher) Publish(_ context.Context, event *CartEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *recordingPublisher) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
