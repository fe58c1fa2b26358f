// Package cart holds the cart aggregate: authoritative in-memory cart
// state, a mutation API, and the debounced synchronization with the
// remote cart gateway.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Definkle/skinet-cart/internal/domain"
	"github.com/Definkle/skinet-cart/internal/gateway"
	"github.com/Definkle/skinet-cart/internal/idstore"
)

const (
	// DefaultDebounce coalesces rapid mutations into one remote call.
	DefaultDebounce = 300 * time.Millisecond

	syncTimeout  = 10 * time.Second
	storeTimeout = time.Second
)

var (
	ErrDuplicateVoucher = errors.New("voucher already applied")
	ErrInvalidVoucher   = errors.New("invalid voucher")
)

// DeliveryResolver looks up the priced delivery method for a stored id.
type DeliveryResolver interface {
	GetDeliveryMethod(ctx context.Context, id int64) (*domain.DeliveryMethod, error)
}

// Engine owns one cart. Mutations apply to local state synchronously and
// schedule a debounced push of the full payload to the gateway; the
// newest dispatched request wins and stale in-flight responses are
// discarded. Failed syncs are reported and never rolled back locally.
type Engine struct {
	gw       gateway.CartGateway
	ids      idstore.Store
	delivery DeliveryResolver
	reporter ErrorReporter
	debounce time.Duration

	mu           sync.Mutex
	state        domain.Cart
	method       *domain.DeliveryMethod
	saving       bool
	closed       bool
	mutated      bool // a local mutation happened; remote state is no longer authoritative
	timer        *time.Timer
	timerPending bool
	pending      domain.Cart // payload captured at mutation time
	seq          uint64      // last dispatched request sequence

	wg sync.WaitGroup
}

func NewEngine(gw gateway.CartGateway, ids idstore.Store, delivery DeliveryResolver, reporter ErrorReporter, debounce time.Duration) *Engine {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Engine{
		gw:       gw,
		ids:      ids,
		delivery: delivery,
		reporter: reporter,
		debounce: debounce,
	}
}

// Initialize reattaches to an existing remote cart if a stored id is
// found. On failure the error is reported and local state stays empty;
// a not-found cart additionally drops the stale stored id. The remote
// cart is applied only while local state is still untouched: a mutation
// that raced ahead of a slow gateway fetch is newer and must not be
// overwritten.
func (e *Engine) Initialize(ctx context.Context) error {
	id, err := e.ids.Load(ctx)
	if err != nil {
		e.reporter.ReportError("load cart id", err)
		return err
	}
	if id == "" {
		return nil
	}

	remote, err := e.gw.Get(ctx, id)
	if errors.Is(err, gateway.ErrCartNotFound) {
		// Cart expired or was deleted server-side. A mutation that raced
		// ahead already stored its own id; only untouched state may drop
		// the stale one.
		e.mu.Lock()
		if !e.mutated {
			e.clearStoredID()
		}
		e.mu.Unlock()
		e.reporter.ReportError("init cart", err)
		return nil
	}
	if err != nil {
		e.reporter.ReportError("init cart", err)
		return err
	}

	method := e.resolveDeliveryMethod(ctx, remote.DeliveryMethodID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mutated {
		return nil
	}
	e.state = remote.Clone()
	e.method = method
	return nil
}

// resolveDeliveryMethod re-prices a stored delivery selection so the
// fee survives a reload. Resolution failures are reported; the fee
// stays unset until the user selects again.
func (e *Engine) resolveDeliveryMethod(ctx context.Context, id *int64) *domain.DeliveryMethod {
	if id == nil || e.delivery == nil {
		return nil
	}
	m, err := e.delivery.GetDeliveryMethod(ctx, *id)
	if err != nil {
		e.reporter.ReportError("resolve delivery method", err)
		return nil
	}
	method := *m
	return &method
}

// AddItem maps the product to a line item and merges it into the cart.
// The first add generates the cart id and persists it durably so a
// restart reattaches to the same cart.
func (e *Engine) AddItem(p domain.Product, quantity int) error {
	item, err := domain.LineItemFromProduct(p, quantity)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.ID == "" {
		e.state.ID = uuid.NewString()
		e.saveStoredID(e.state.ID)
	}

	e.state.Items = domain.Consolidate(append(e.state.Items, item))
	e.scheduleSyncLocked()
	return nil
}

// RemoveItem filters the matching line item out. If the cart becomes
// empty the scheduled sync deletes the remote cart and clears the
// stored id instead of issuing an update.
func (e *Engine) RemoveItem(productID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Items = filterOut(e.state.Items, productID)
	e.scheduleSyncLocked()
}

// UpdateQuantity replaces the item's quantity; a quantity of zero or
// less behaves as RemoveItem.
func (e *Engine) UpdateQuantity(productID int64, quantity int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity <= 0 {
		e.state.Items = filterOut(e.state.Items, productID)
	} else {
		for i := range e.state.Items {
			if e.state.Items[i].ProductID == productID {
				e.state.Items[i].Quantity = quantity
				break
			}
		}
	}
	e.scheduleSyncLocked()
}

// SelectDeliveryMethod records the selection and caches the method so
// the delivery fee survives until the next catalog lookup.
func (e *Engine) SelectDeliveryMethod(m domain.DeliveryMethod) {
	e.mu.Lock()
	defer e.mu.Unlock()

	method := m
	e.method = &method
	e.state.DeliveryMethodID = &method.ID
	e.scheduleSyncLocked()
}

// ApplyVoucher adds a discount voucher. Discounts accumulate; a code
// can only be applied once.
func (e *Engine) ApplyVoucher(v domain.Voucher) error {
	if v.Code == "" || v.Discount < 0 {
		return ErrInvalidVoucher
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, existing := range e.state.Vouchers {
		if existing.Code == v.Code {
			return ErrDuplicateVoucher
		}
	}
	e.state.Vouchers = append(e.state.Vouchers, v)
	e.scheduleSyncLocked()
	return nil
}

func (e *Engine) RemoveVoucher(code string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.state.Vouchers[:0]
	for _, v := range e.state.Vouchers {
		if v.Code != code {
			kept = append(kept, v)
		}
	}
	e.state.Vouchers = kept
	e.scheduleSyncLocked()
}

// Clear deletes the cart immediately, without debouncing: remote cart,
// local state and the stored id. Any in-flight sync is superseded.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	id := e.state.ID
	e.mutated = true
	e.seq++ // supersede whatever is in flight
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timerPending = false
	e.resetStateLocked()
	e.mu.Unlock()

	if id != "" {
		if err := e.gw.Delete(ctx, id); err != nil && !errors.Is(err, gateway.ErrCartNotFound) {
			e.reporter.ReportError("delete cart", err)
		}
	}
	e.clearStoredID()
}

// Snapshot is an immutable copy of the current cart state.
type Snapshot struct {
	Cart           domain.Cart
	DeliveryMethod *domain.DeliveryMethod
	ItemCount      int
	Saving         bool
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Cart:      e.state.Clone(),
		ItemCount: domain.TotalItemsCount(e.state.Items),
		Saving:    e.saving,
	}
	if e.method != nil {
		method := *e.method
		snap.DeliveryMethod = &method
	}
	return snap
}

// Summary recomputes the order totals from current state on every call.
func (e *Engine) Summary() domain.OrderSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	var fee float64
	if e.method != nil {
		fee = e.method.Price
	}
	return domain.BuildOrderSummary(e.state.Items, e.state.Vouchers, fee)
}

// Close stops the debounce timer, dispatches any still-pending payload
// and waits for in-flight syncs to finish.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
	}
	dispatch := e.timerPending
	e.timerPending = false
	var seq uint64
	var payload domain.Cart
	if dispatch {
		e.seq++
		seq = e.seq
		payload = e.pending.Clone()
		e.wg.Add(1)
	}
	e.mu.Unlock()

	if dispatch {
		e.push(seq, payload)
	}
	e.wg.Wait()
}

// scheduleSyncLocked captures the payload as of this mutation and arms
// the debounce timer. Caller holds e.mu.
func (e *Engine) scheduleSyncLocked() {
	if e.closed {
		return
	}
	e.mutated = true
	e.saving = true
	e.pending = e.state.Clone()
	e.timerPending = true
	if e.timer == nil {
		e.timer = time.AfterFunc(e.debounce, e.flush)
	} else {
		e.timer.Reset(e.debounce)
	}
}

// flush runs when the debounce window closes: assign the next sequence
// number and push the captured payload.
func (e *Engine) flush() {
	e.mu.Lock()
	if e.closed || !e.timerPending {
		e.mu.Unlock()
		return
	}
	e.timerPending = false
	e.seq++
	seq := e.seq
	payload := e.pending.Clone()
	e.wg.Add(1)
	e.mu.Unlock()

	go e.push(seq, payload)
}

func (e *Engine) push(seq uint64, payload domain.Cart) {
	defer e.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if len(payload.Items) == 0 {
		e.pushDelete(ctx, seq, payload.ID)
		return
	}

	echo, err := e.gw.Replace(ctx, &payload)
	if err != nil {
		e.syncFailed("update cart", seq, err)
		return
	}

	e.mu.Lock()
	// Discard stale responses: a newer request has been dispatched, or a
	// newer mutation is waiting for its window to close.
	if seq == e.seq && !e.timerPending {
		e.state = echo.Clone()
		e.saving = false
	}
	e.mu.Unlock()
}

func (e *Engine) pushDelete(ctx context.Context, seq uint64, id string) {
	if id != "" {
		err := e.gw.Delete(ctx, id)
		if err != nil && !errors.Is(err, gateway.ErrCartNotFound) {
			e.syncFailed("delete cart", seq, err)
			return
		}
	}

	e.mu.Lock()
	stale := seq != e.seq || e.timerPending
	if !stale {
		e.resetStateLocked()
		e.saving = false
	}
	e.mu.Unlock()

	if !stale {
		e.clearStoredID()
	}
}

// syncFailed reports once and drops the transient saving flag. Local
// state keeps the user's latest intent; the next mutation re-triggers a
// sync attempt.
func (e *Engine) syncFailed(op string, seq uint64, err error) {
	e.reporter.ReportError(op, err)

	e.mu.Lock()
	if seq == e.seq && !e.timerPending {
		e.saving = false
	}
	e.mu.Unlock()
}

func (e *Engine) resetStateLocked() {
	e.state = domain.Cart{}
	e.method = nil
	e.saving = false
}

func (e *Engine) saveStoredID(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := e.ids.Save(ctx, id); err != nil {
		e.reporter.ReportError("save cart id", fmt.Errorf("persist cart id: %w", err))
	}
}

func (e *Engine) clearStoredID() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := e.ids.Clear(ctx); err != nil {
		e.reporter.ReportError("clear cart id", err)
	}
}

func filterOut(items []domain.LineItem, productID int64) []domain.LineItem {
	kept := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	return kept
}
