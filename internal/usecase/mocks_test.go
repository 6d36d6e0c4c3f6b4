//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/model"
	"consulting-payments/internal/domain/ports/adapter"
	"consulting-payments/internal/domain/ports/repository"
)

// memTxManager satisfies TransactionManager without a database. It passes a
// marker tx value through so repositories can tell "in tx" from "not".
type memTxManager struct {
	mu       sync.Mutex
	beginErr error
}

type memTx struct{}

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	// A real pool refuses to begin on a done context.
	if err := ctx.Err(); err != nil {
		return err
	}
	// Serializing callbacks is enough to emulate commit atomicity for the
	// in-memory repos, which apply each mutation immediately.
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, memTx{})
}

// memOrderRepo is a small in-memory implementation used by unit tests.
type memOrderRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Order // by ID
	saveErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{store: make(map[string]*model.Order)}
}

func (m *memOrderRepo) Save(ctx context.Context, _ repository.Tx, o *model.Order) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.store[o.ID] = &cp
	return nil
}

func (m *memOrderRepo) FindByMerchantUID(ctx context.Context, _ repository.Tx, merchantUID string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.store {
		if o.MerchantUID == merchantUID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrderRepo) CompleteIfPending(ctx context.Context, _ repository.Tx, id string, impUID, cardName, cardNumber, pgProvider string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if o.State != model.OrderStatePending {
		return false, nil
	}
	o.State = model.OrderStateComplete
	o.ImpUID = impUID
	o.CardName = cardName
	o.CardNumber = cardNumber
	o.PGProvider = pgProvider
	o.UpdatedAt = time.Now()
	return true, nil
}

func (m *memOrderRepo) UpdateState(ctx context.Context, _ repository.Tx, id string, state model.OrderState, cancelAmount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.State = state
	if state == model.OrderStateCancel {
		o.CancelAmount = cancelAmount
	}
	o.UpdatedAt = time.Now()
	return nil
}

func (m *memOrderRepo) ListByMember(ctx context.Context, _ repository.Tx, memberID int64) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Order
	for _, o := range m.store {
		if o.MemberID == memberID && o.State != model.OrderStatePending {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrderRepo) FindByMemberAndID(ctx context.Context, _ repository.Tx, memberID int64, orderID string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.store[orderID]
	if !ok || o.MemberID != memberID {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderRepo) ListPendingOlderThan(ctx context.Context, _ repository.Tx, olderThan time.Time, limit int) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Order
	for _, o := range m.store {
		if o.State == model.OrderStatePending && o.CreatedAt.Before(olderThan) {
			cp := *o
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memOrderRepo) get(id string) *model.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := *m.store[id]
	return &cp
}

// memCouponRepo implements the guarded decrement the same way the SQL does.
type memCouponRepo struct {
	mu    sync.Mutex
	store map[string]*model.Coupon // by coupon number
}

func newMemCouponRepo() *memCouponRepo {
	return &memCouponRepo{store: make(map[string]*model.Coupon)}
}

func (m *memCouponRepo) FindByNumber(ctx context.Context, _ repository.Tx, couponNumber string) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[couponNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCouponRepo) FindForProduct(ctx context.Context, tx repository.Tx, couponNumber string, productID int64) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[couponNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if c.ProductID != nil && *c.ProductID != productID {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCouponRepo) DecrementUses(ctx context.Context, _ repository.Tx, couponNumber string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[couponNumber]
	if !ok {
		return false, nil
	}
	if c.RemainingUses <= 0 {
		return false, nil
	}
	c.RemainingUses--
	return true, nil
}

type memContractRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Contract // by ID
	saveErr error
}

func newMemContractRepo() *memContractRepo {
	return &memContractRepo{store: make(map[string]*model.Contract)}
}

func (m *memContractRepo) Save(ctx context.Context, _ repository.Tx, c *model.Contract) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memContractRepo) FindByOrder(ctx context.Context, _ repository.Tx, orderID string, memberID int64) (*model.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.store {
		if c.OrderID == orderID && c.MemberID == memberID && c.Active {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memContractRepo) Deactivate(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Active = false
	return nil
}

func (m *memContractRepo) ListActiveCodes(ctx context.Context, _ repository.Tx, memberID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	var out []string
	for _, c := range m.store {
		if c.MemberID == memberID && c.Active && c.EndAt.After(now) {
			out = append(out, string(c.ProductCode))
		}
	}
	return out, nil
}

func (m *memContractRepo) activeCount(memberID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.store {
		if c.MemberID == memberID && c.Active {
			n++
		}
	}
	return n
}

type memTicketRepo struct {
	mu     sync.Mutex
	counts map[int64]int64
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{counts: make(map[int64]int64)}
}

func (m *memTicketRepo) Increment(ctx context.Context, _ repository.Tx, memberID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[memberID]++
	return nil
}

func (m *memTicketRepo) Decrement(ctx context.Context, _ repository.Tx, memberID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts[memberID] > 0 {
		m.counts[memberID]--
	}
	return nil
}

func (m *memTicketRepo) Count(ctx context.Context, _ repository.Tx, memberID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[memberID], nil
}

type memProductRepo struct {
	mu    sync.RWMutex
	store map[int64]*model.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{store: make(map[int64]*model.Product)}
}

func (m *memProductRepo) add(p *model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
}

func (m *memProductRepo) FindByID(ctx context.Context, _ repository.Tx, id int64) (*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type memCancelLogRepo struct {
	mu      sync.Mutex
	entries []*model.CancelLog
}

func newMemCancelLogRepo() *memCancelLogRepo { return &memCancelLogRepo{} }

func (m *memCancelLogRepo) Append(ctx context.Context, _ repository.Tx, entry *model.CancelLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memCancelLogRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// fakeGateway is a scripted PaymentGateway: tests load it with per-reference
// transaction states and inspect the cancels it received.
type fakeGateway struct {
	mu        sync.Mutex
	byImpUID  map[string]*adapter.PaymentInfo
	byMUID    map[string]*adapter.PaymentInfo
	cancels   []string // imp_uids cancelled
	getErr    error
	cancelErr error
	onGet     func() // runs before each GetPaymentInfo lookup
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		byImpUID: make(map[string]*adapter.PaymentInfo),
		byMUID:   make(map[string]*adapter.PaymentInfo),
	}
}

func (g *fakeGateway) set(info *adapter.PaymentInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := *info
	g.byImpUID[info.ImpUID] = &cp
	g.byMUID[info.MerchantUID] = &cp
}

func (g *fakeGateway) GetPaymentInfo(ctx context.Context, impUID string) (*adapter.PaymentInfo, error) {
	if g.onGet != nil {
		g.onGet()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	info, ok := g.byImpUID[impUID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *info
	return &cp, nil
}

func (g *fakeGateway) FindPaymentByMerchantUID(ctx context.Context, merchantUID string) (*adapter.PaymentInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	info, ok := g.byMUID[merchantUID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *info
	return &cp, nil
}

func (g *fakeGateway) CancelPayment(ctx context.Context, impUID, merchantUID, reason string) (*adapter.PaymentInfo, error) {
	// A real client fails immediately on a done context.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancels = append(g.cancels, impUID)
	if g.cancelErr != nil {
		return nil, g.cancelErr
	}
	info, ok := g.byImpUID[impUID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	info.Status = adapter.PaymentStatusCancelled
	info.CancelAmount = info.Amount
	cp := *info
	return &cp, nil
}

func (g *fakeGateway) cancelCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cancels)
}
