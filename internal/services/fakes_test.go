package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cartpilot/cartpilot/internal/events"
	"github.com/cartpilot/cartpilot/internal/models"
	"github.com/cartpilot/cartpilot/internal/providers/llm"
	"github.com/cartpilot/cartpilot/internal/utils"
)

func testLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeSink records every published message in order.
type sinkMsg struct {
	Room    string
	Event   string
	Payload any
}

type fakeSink struct {
	mu   sync.Mutex
	msgs []sinkMsg
}

func (f *fakeSink) Publish(_ context.Context, room, event string, payload any) (events.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sinkMsg{Room: room, Event: event, Payload: payload})
	return events.Receipt{Room: room, Event: event, Receivers: 1, At: time.Now()}, nil
}

func (f *fakeSink) byEvent(event string) []sinkMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sinkMsg
	for _, m := range f.msgs {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

// scriptedProvider fails a fixed number of attempts, then succeeds. When
// tokens are set, Stream emits them in order; Complete returns response.
type scriptedProvider struct {
	mu       sync.Mutex
	failures int
	response string
	tokens   []llm.Delta
	calls    int
}

func (p *scriptedProvider) attempt() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.calls > p.failures
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *scriptedProvider) Complete(_ context.Context, _ string) (string, error) {
	if !p.attempt() {
		return "", errors.New("gateway unavailable")
	}
	return p.response, nil
}

func (p *scriptedProvider) Stream(_ context.Context, _ string) (<-chan llm.Delta, <-chan error) {
	deltas := make(chan llm.Delta, len(p.tokens)+1)
	errs := make(chan error, 1)
	if !p.attempt() {
		errs <- errors.New("gateway unavailable")
		close(deltas)
		close(errs)
		return deltas, errs
	}
	for _, d := range p.tokens {
		deltas <- d
	}
	close(deltas)
	close(errs)
	return deltas, errs
}

func (p *scriptedProvider) Close() error { return nil }

// in-memory repositories

type fakeMemoryRepo struct {
	mu   sync.Mutex
	byID map[string]*models.ConversationMemory
}

func newFakeMemoryRepo() *fakeMemoryRepo {
	return &fakeMemoryRepo{byID: make(map[string]*models.ConversationMemory)}
}

func (r *fakeMemoryRepo) Find(_ context.Context, userID string) (*models.ConversationMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[userID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return m, nil
}

func (r *fakeMemoryRepo) Create(_ context.Context, userID string) (*models.ConversationMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := &models.ConversationMemory{UserID: userID, Messages: []models.MemoryMessage{}}
	r.byID[userID] = m
	return m, nil
}

func (r *fakeMemoryRepo) Save(_ context.Context, m *models.ConversationMemory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.UserID] = m
	return nil
}

type fakeCartRepo struct {
	mu     sync.Mutex
	byUser map[string]*models.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{byUser: make(map[string]*models.Cart)}
}

func (r *fakeCartRepo) FindByUser(_ context.Context, userID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[userID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return c, nil
}

func (r *fakeCartRepo) Save(_ context.Context, c *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[c.UserID] = c
	return nil
}

type fakeProductRepo struct {
	mu         sync.Mutex
	order      []string
	byID       map[string]*models.Product
	decrements map[string]int
}

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	r := &fakeProductRepo{
		byID:       make(map[string]*models.Product),
		decrements: make(map[string]int),
	}
	for _, p := range products {
		r.order = append(r.order, p.ProductID)
		r.byID[p.ProductID] = p
	}
	return r
}

func (r *fakeProductRepo) GetByID(_ context.Context, productID string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[productID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) First(_ context.Context) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return nil, utils.ErrNotFound
	}
	return r.byID[r.order[0]], nil
}

func (r *fakeProductRepo) List(_ context.Context, limit int64) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		if int64(len(out)) == limit {
			break
		}
		out = append(out, *r.byID[id])
	}
	return out, nil
}

func (r *fakeProductRepo) DecrementStock(_ context.Context, productID string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[productID]
	if !ok {
		return utils.ErrNotFound
	}
	p.Stock -= qty
	r.decrements[productID] += qty
	return nil
}

type fakePromotionRepo struct {
	mu     sync.Mutex
	active *models.Promotion
	byCode map[string]*models.Promotion
}

func newFakePromotionRepo(promos ...*models.Promotion) *fakePromotionRepo {
	r := &fakePromotionRepo{byCode: make(map[string]*models.Promotion)}
	for _, p := range promos {
		r.byCode[p.Code] = p
		if p.Valid(time.Now().UTC()) {
			r.active = p
		}
	}
	return r
}

func (r *fakePromotionRepo) FindActive(_ context.Context) (*models.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return nil, utils.ErrNotFound
	}
	return r.active, nil
}

func (r *fakePromotionRepo) FindByCode(_ context.Context, code string) (*models.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byCode[code]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return p, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders []models.Order
}

func (r *fakeOrderRepo) Insert(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, *o)
	return nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID string, limit int64) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.UserID == userID && int64(len(out)) < limit {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	recs []models.AuditRecord
}

func (r *fakeAuditRepo) Insert(_ context.Context, rec *models.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, *rec)
	return nil
}

func (r *fakeAuditRepo) ListByUser(_ context.Context, userID string, limit int) ([]models.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AuditRecord
	for _, rec := range r.recs {
		if rec.UserID == userID && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}
