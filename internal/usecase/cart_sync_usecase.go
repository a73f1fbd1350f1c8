package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/internal/metrics"
	"github.com/DRSN-tech/cart-sync/pkg/clock"
	"github.com/DRSN-tech/cart-sync/pkg/debounce"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/google/uuid"
)

// DefaultDebounceWindow — окно тишины, после которого правка количества уходит на сервер.
const DefaultDebounceWindow = 600 * time.Millisecond

// Сообщения для пользователя, если сервер не прислал своё.
const (
	msgAddFailed    = "Failed to add item to cart"
	msgUpdateFailed = "Failed to update quantity"
	msgRemoveFailed = "Failed to remove item"
	msgClearFailed  = "Failed to clear cart"
	msgLoadFailed   = "Failed to load cart"
)

const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opClear  = "clear"
	opFetch  = "fetch"

	modeLoud   = "loud"
	modeSilent = "silent"
)

// CartSyncUseCase держит локальную корзину согласованной с удалённым сервисом корзины:
// применяет оптимистичные правки, склеивает серии правок количества через debounce,
// сливает свежие данные сервера и откатывает неудачные записи.
//
// Все локальные изменения выполняются под mu; на время сетевых вызовов блокировка отпускается.
type CartSyncUseCase struct {
	service   CartService
	store     SnapshotStore
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    logger.Logger
	clock     clock.Clock
	scheduler *debounce.Scheduler
	window    time.Duration
	baseCtx   context.Context

	mu      sync.Mutex
	cart    *domain.Cart
	loading int
	errMsg  string
	pending map[string]struct{}     // товары с неподтверждённым изменением
	gens    map[string]uint64       // поколение последней локальной правки товара
	bursts  map[string]*domain.Cart // снимок корзины на начало серии правок товара
	epoch   uint64                  // растёт при завершении каждой записи на сервер
	version uint64                  // растёт при каждом изменении корзины

	saveMu       sync.Mutex
	savedVersion uint64
}

// Option настраивает CartSyncUseCase.
type Option func(*CartSyncUseCase)

func WithClock(c clock.Clock) Option {
	return func(uc *CartSyncUseCase) { uc.clock = c }
}

func WithDebounceWindow(d time.Duration) Option {
	return func(uc *CartSyncUseCase) {
		if d > 0 {
			uc.window = d
		}
	}
}

func WithSnapshotStore(s SnapshotStore) Option {
	return func(uc *CartSyncUseCase) { uc.store = s }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(uc *CartSyncUseCase) { uc.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *CartSyncUseCase) { uc.metrics = m }
}

// WithBaseContext задаёт контекст для записей, которые запускает таймер debounce.
func WithBaseContext(ctx context.Context) Option {
	return func(uc *CartSyncUseCase) { uc.baseCtx = ctx }
}

func NewCartSyncUC(service CartService, logger logger.Logger, opts ...Option) *CartSyncUseCase {
	uc := &CartSyncUseCase{
		service: service,
		logger:  logger,
		clock:   clock.NewReal(),
		window:  DefaultDebounceWindow,
		baseCtx: context.Background(),
		pending: make(map[string]struct{}),
		gens:    make(map[string]uint64),
		bursts:  make(map[string]*domain.Cart),
	}

	for _, opt := range opts {
		opt(uc)
	}
	uc.scheduler = debounce.NewScheduler(uc.clock)

	return uc
}

// State возвращает текущее состояние для отображения.
func (uc *CartSyncUseCase) State() CartState {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	pending := make([]string, 0, len(uc.pending))
	for id := range uc.pending {
		pending = append(pending, id)
	}
	sort.Strings(pending)

	return CartState{
		Cart:    uc.cart.Clone(),
		Loading: uc.loading > 0,
		Error:   uc.errMsg,
		Pending: pending,
	}
}

// ClearError сбрасывает сообщение об ошибке.
func (uc *CartSyncUseCase) ClearError() {
	uc.mu.Lock()
	uc.errMsg = ""
	uc.mu.Unlock()
}

// AddToCart добавляет товар через сервер без оптимистичной правки:
// новые строки проверяются сервером по цене и остатку.
func (uc *CartSyncUseCase) AddToCart(ctx context.Context, productID string, quantity int) error {
	const op = "CartSyncUseCase.AddToCart"

	if productID == "" {
		return e.Wrap(op, e.ErrProductRequired)
	}
	if quantity < 1 {
		return e.Wrap(op, e.ErrInvalidQuantity)
	}

	uc.mu.Lock()
	uc.loading++
	uc.errMsg = ""
	uc.mu.Unlock()

	remote, err := uc.service.AddItem(ctx, productID, quantity)
	uc.metrics.ObserveRemoteCall(opAdd, err)

	uc.mu.Lock()
	uc.loading--
	if err != nil {
		uc.errMsg = userMessage(err, msgAddFailed)
		uc.mu.Unlock()

		uc.logger.Warnf("add to cart failed: product_id: %s, quantity: %d, error: %v", productID, quantity, e.Wrap(op, err))
		return remoteError(op, err)
	}

	// Строка добавленного товара берётся с сервера: незаписанная правка количества по нему отменяется,
	// иначе таймер перетёр бы результат добавления.
	if uc.scheduler.Cancel(productID) || uc.bursts[productID] != nil {
		delete(uc.bursts, productID)
		delete(uc.pending, productID)
		uc.gens[productID]++
	}
	protected := uc.protectedLocked()
	delete(protected, productID)

	uc.epoch++
	uc.cart = domain.Merge(uc.cart, remote, protected)
	uc.changedLocked()
	cartID := uc.cartIDLocked()
	uc.mu.Unlock()

	uc.persist(ctx)
	uc.publish(ctx, &CartEvent{Type: EventItemAdded, CartID: cartID, ProductID: productID, Quantity: quantity})

	return nil
}

// UpdateQuantity оптимистично меняет количество и откладывает запись на окно debounce.
// quantity < 1 игнорируется. Превышение остатка выставляет ошибку и не меняет корзину.
func (uc *CartSyncUseCase) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	const op = "CartSyncUseCase.UpdateQuantity"

	if quantity < 1 {
		return nil
	}

	uc.mu.Lock()
	current, ok := uc.cart.FindItem(productID)
	if !ok {
		uc.mu.Unlock()
		return e.Wrap(op, e.ErrItemNotFound)
	}

	if err := domain.ValidateQuantity(quantity, current.Product.Stock); err != nil {
		uc.errMsg = err.Error()
		uc.mu.Unlock()
		return e.Wrap(op, err)
	}

	if _, ok := uc.bursts[productID]; !ok {
		uc.bursts[productID] = uc.cart.Clone()
	}
	uc.cart = uc.cart.WithQuantity(productID, quantity)
	uc.pending[productID] = struct{}{}
	uc.gens[productID]++

	if uc.armCommitLocked(productID) {
		uc.metrics.IncCoalesced()
	}
	uc.changedLocked()
	uc.mu.Unlock()

	uc.persist(ctx)

	return nil
}

// commitQuantity срабатывает по таймеру debounce и отправляет количество, актуальное на момент срабатывания.
func (uc *CartSyncUseCase) commitQuantity(ctx context.Context, productID string) {
	const op = "CartSyncUseCase.commitQuantity"

	uc.mu.Lock()
	current, ok := uc.cart.FindItem(productID)
	gen := uc.gens[productID]
	if !ok {
		delete(uc.pending, productID)
		delete(uc.bursts, productID)
		uc.changedLocked()
		uc.mu.Unlock()
		return
	}
	uc.mu.Unlock()

	err := uc.service.UpdateItem(ctx, current.ID, current.Quantity)
	uc.metrics.ObserveRemoteCall(opUpdate, err)

	uc.mu.Lock()
	if uc.gens[productID] != gen {
		uc.mu.Unlock()
		uc.metrics.IncStale()
		uc.logger.Debugf("stale update response ignored: product_id: %s, generation: %d", productID, gen)
		return
	}

	delete(uc.pending, productID)
	snapshot := uc.bursts[productID]
	delete(uc.bursts, productID)
	uc.epoch++
	cartID := uc.cartIDLocked()

	if err != nil {
		if snapshot != nil {
			uc.cart = snapshot
		}
		uc.errMsg = userMessage(err, msgUpdateFailed)
		uc.changedLocked()
		uc.mu.Unlock()

		uc.metrics.IncRollback(opUpdate)
		uc.logger.Warnf("quantity update rolled back: product_id: %s, quantity: %d, error: %v", productID, current.Quantity, e.Wrap(op, err))
		uc.persist(ctx)
		uc.publish(ctx, &CartEvent{Type: EventRollback, CartID: cartID, ProductID: productID, Quantity: current.Quantity, Operation: opUpdate})
		return
	}

	uc.changedLocked()
	uc.mu.Unlock()

	uc.publish(ctx, &CartEvent{Type: EventQuantityCommitted, CartID: cartID, ProductID: productID, Quantity: current.Quantity})
	_ = uc.SyncCart(ctx)
}

// RemoveFromCart оптимистично удаляет строку и сразу отправляет удаление на сервер.
// Отсутствующий товар — no-op без сетевого вызова.
func (uc *CartSyncUseCase) RemoveFromCart(ctx context.Context, productID string) error {
	const op = "CartSyncUseCase.RemoveFromCart"

	uc.mu.Lock()
	current, ok := uc.cart.FindItem(productID)
	if !ok {
		uc.mu.Unlock()
		return nil
	}

	snapshot := uc.cart.Clone()
	uc.scheduler.Cancel(productID)
	burst := uc.bursts[productID]
	delete(uc.bursts, productID)
	uc.gens[productID]++
	gen := uc.gens[productID]
	uc.pending[productID] = struct{}{}
	uc.cart = uc.cart.Without(productID)
	uc.changedLocked()
	uc.mu.Unlock()

	uc.persist(ctx)

	err := uc.service.RemoveItem(ctx, current.ID)
	uc.metrics.ObserveRemoteCall(opRemove, err)

	uc.mu.Lock()
	if uc.gens[productID] != gen {
		uc.mu.Unlock()
		uc.metrics.IncStale()
		return nil
	}

	delete(uc.pending, productID)
	uc.epoch++
	cartID := uc.cartIDLocked()

	if err != nil {
		uc.cart = snapshot
		if burst != nil {
			uc.resumeEditsLocked(map[string]*domain.Cart{productID: burst})
		}
		uc.errMsg = userMessage(err, msgRemoveFailed)
		uc.changedLocked()
		uc.mu.Unlock()

		uc.metrics.IncRollback(opRemove)
		uc.logger.Warnf("remove rolled back: product_id: %s, error: %v", productID, e.Wrap(op, err))
		uc.persist(ctx)
		uc.publish(ctx, &CartEvent{Type: EventRollback, CartID: cartID, ProductID: productID, Operation: opRemove})
		return remoteError(op, err)
	}

	uc.changedLocked()
	uc.mu.Unlock()

	uc.publish(ctx, &CartEvent{Type: EventItemRemoved, CartID: cartID, ProductID: productID})
	_ = uc.SyncCart(ctx)

	return nil
}

// ClearCart оптимистично очищает корзину, отменяет все таймеры и отправляет очистку на сервер.
func (uc *CartSyncUseCase) ClearCart(ctx context.Context) error {
	const op = "CartSyncUseCase.ClearCart"

	uc.mu.Lock()
	snapshot := uc.cart.Clone()
	cartID := uc.cartIDLocked()

	uc.scheduler.CancelAll()
	for id := range uc.pending {
		uc.gens[id]++
	}
	bursts := uc.bursts
	uc.pending = make(map[string]struct{})
	uc.bursts = make(map[string]*domain.Cart)
	uc.cart = nil
	uc.changedLocked()
	uc.mu.Unlock()

	uc.persist(ctx)

	err := uc.service.ClearCart(ctx)
	uc.metrics.ObserveRemoteCall(opClear, err)

	uc.mu.Lock()
	uc.epoch++
	if err != nil {
		uc.cart = snapshot
		uc.resumeEditsLocked(bursts)
		uc.errMsg = userMessage(err, msgClearFailed)
		uc.changedLocked()
		uc.mu.Unlock()

		uc.metrics.IncRollback(opClear)
		uc.logger.Warnf("clear cart rolled back: cart_id: %s, error: %v", cartID, e.Wrap(op, err))
		uc.persist(ctx)
		uc.publish(ctx, &CartEvent{Type: EventRollback, CartID: cartID, Operation: opClear})
		return remoteError(op, err)
	}
	uc.mu.Unlock()

	uc.publish(ctx, &CartEvent{Type: EventCartCleared, CartID: cartID})

	return nil
}

// FetchCart загружает корзину с сервера с индикатором загрузки; ошибка показывается пользователю.
func (uc *CartSyncUseCase) FetchCart(ctx context.Context) error {
	return uc.reconcile(ctx, true)
}

// SyncCart — тихая сверка с сервером: индикатор загрузки не трогается, ошибки только логируются.
func (uc *CartSyncUseCase) SyncCart(ctx context.Context) error {
	return uc.reconcile(ctx, false)
}

func (uc *CartSyncUseCase) reconcile(ctx context.Context, loud bool) error {
	const op = "CartSyncUseCase.reconcile"

	mode := modeSilent
	if loud {
		mode = modeLoud
	}

	uc.mu.Lock()
	startEpoch := uc.epoch
	if loud {
		uc.loading++
		uc.errMsg = ""
	}
	uc.mu.Unlock()

	remote, err := uc.service.GetCart(ctx)
	uc.metrics.ObserveRemoteCall(opFetch, err)

	uc.mu.Lock()
	if loud {
		uc.loading--
	}

	if err != nil {
		if loud {
			uc.errMsg = userMessage(err, msgLoadFailed)
		}
		uc.mu.Unlock()

		uc.metrics.IncReconciliation(mode, "failed")
		uc.logger.Warnf("cart fetch failed: mode: %s, error: %v", mode, e.Wrap(op, err))
		return remoteError(op, err)
	}

	// Запрос начался до того, как завершилась запись: ответ мог не увидеть её результат.
	// Запись сама запускает сверку, поэтому этот ответ можно отбросить.
	if uc.epoch != startEpoch {
		uc.mu.Unlock()
		uc.metrics.IncReconciliation(mode, "discarded")
		uc.logger.Debugf("cart fetch discarded: a write settled while it was in flight")
		return nil
	}

	uc.cart = domain.Merge(uc.cart, remote, uc.protectedLocked())
	uc.changedLocked()
	uc.mu.Unlock()

	uc.metrics.IncReconciliation(mode, "merged")
	uc.persist(ctx)

	return nil
}

// Restore поднимает сохранённую корзину при старте. Отметки pending и таймеры начинаются пустыми.
func (uc *CartSyncUseCase) Restore(ctx context.Context) error {
	const op = "CartSyncUseCase.Restore"

	if uc.store == nil {
		return nil
	}

	cart, err := uc.store.Load(ctx)
	if err != nil {
		if errors.Is(err, e.ErrSnapshotNotFound) {
			return nil
		}
		return e.Wrap(op, err)
	}

	uc.mu.Lock()
	uc.scheduler.CancelAll()
	uc.cart = cart
	uc.pending = make(map[string]struct{})
	uc.bursts = make(map[string]*domain.Cart)
	uc.changedLocked()
	uc.mu.Unlock()

	uc.saveMu.Lock()
	uc.savedVersion = uc.currentVersion()
	uc.saveMu.Unlock()

	return nil
}

// Flush немедленно отправляет все отложенные правки количества. Используется при остановке.
func (uc *CartSyncUseCase) Flush(ctx context.Context) {
	for _, productID := range uc.scheduler.Keys() {
		if uc.scheduler.Cancel(productID) {
			uc.commitQuantity(ctx, productID)
		}
	}
}

// armCommitLocked (пере)запускает таймер записи количества товара. true, если заменён прежний таймер.
func (uc *CartSyncUseCase) armCommitLocked(productID string) bool {
	return uc.scheduler.Arm(productID, uc.window, func() { uc.commitQuantity(uc.baseCtx, productID) })
}

// resumeEditsLocked возвращает в работу правки количества, которые отменила откаченная операция.
// Количество уже восстановлено из снимка, поэтому запись снова ставится на таймер.
func (uc *CartSyncUseCase) resumeEditsLocked(bursts map[string]*domain.Cart) {
	for id, burst := range bursts {
		if _, ok := uc.cart.FindItem(id); !ok {
			continue
		}
		uc.bursts[id] = burst
		uc.pending[id] = struct{}{}
		uc.gens[id]++
		uc.armCommitLocked(id)
	}
}

// protectedLocked — товары, чьи строки сверка не должна перезаписывать:
// с активным таймером debounce и с неподтверждённой записью.
func (uc *CartSyncUseCase) protectedLocked() map[string]struct{} {
	protected := make(map[string]struct{}, len(uc.pending))
	for id := range uc.pending {
		protected[id] = struct{}{}
	}
	for _, id := range uc.scheduler.Keys() {
		protected[id] = struct{}{}
	}

	return protected
}

func (uc *CartSyncUseCase) changedLocked() {
	uc.version++
	uc.metrics.SetPending(len(uc.pending))
}

func (uc *CartSyncUseCase) cartIDLocked() string {
	if uc.cart == nil {
		return ""
	}
	return uc.cart.ID
}

func (uc *CartSyncUseCase) currentVersion() uint64 {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.version
}

// persist сохраняет текущую корзину. Версии пишутся по возрастанию: старое состояние не перетирает новое.
func (uc *CartSyncUseCase) persist(ctx context.Context) {
	const op = "CartSyncUseCase.persist"

	if uc.store == nil {
		return
	}

	uc.saveMu.Lock()
	defer uc.saveMu.Unlock()

	uc.mu.Lock()
	version, cart := uc.version, uc.cart.Clone()
	uc.mu.Unlock()

	if version <= uc.savedVersion {
		return
	}

	if err := uc.store.Save(ctx, cart); err != nil {
		uc.logger.Warnf("cart snapshot not saved: %v", e.Wrap(op, err))
		return
	}
	uc.savedVersion = version
}

func (uc *CartSyncUseCase) publish(ctx context.Context, event *CartEvent) {
	if uc.publisher == nil {
		return
	}

	event.ID = uuid.NewString()
	event.OccurredAt = uc.clock.Now()

	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warnf("cart event not published: type: %s, error: %v", event.Type, err)
	}
}

// userMessage возвращает сообщение сервера, если оно есть, иначе fallback.
func userMessage(err error, fallback string) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}

	return fallback
}

func remoteError(op string, err error) error {
	return e.Wrap(op, fmt.Errorf("%w: %w", e.ErrCartServiceFailed, err))
}
