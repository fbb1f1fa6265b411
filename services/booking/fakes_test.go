package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"asterias/models"
	"asterias/services/backend"
)

type fakeBackend struct {
	mu       sync.Mutex
	rooms    map[string]*models.Room
	offers   map[string]*models.Offer
	avail    *models.Availability
	availErr error
	created  []models.CreateBookingRequest
	keys     []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		rooms: map[string]*models.Room{
			"r1": {ID: "r1", Name: models.LocalizedText{"en": "Sea View Studio"}, Capacity: 3, BasePrice: 100},
		},
		offers: map[string]*models.Offer{},
		avail:  &models.Availability{Available: true, Currency: "eur"},
	}
}

func (f *fakeBackend) GetRoom(_ context.Context, id string) (*models.Room, error) {
	if r, ok := f.rooms[id]; ok {
		return r, nil
	}
	return nil, &backend.APIError{Status: 404, Message: "Room not found"}
}

func (f *fakeBackend) GetOffer(_ context.Context, id string) (*models.Offer, error) {
	if o, ok := f.offers[id]; ok {
		return o, nil
	}
	return nil, &backend.APIError{Status: 404, Message: "Offer not found"}
}

func (f *fakeBackend) Availability(_ context.Context, q models.AvailabilityQuery) (*models.Availability, error) {
	if f.availErr != nil {
		return nil, f.availErr
	}
	a := *f.avail
	a.RoomID, a.CheckIn, a.CheckOut = q.RoomID, q.CheckIn, q.CheckOut
	return &a, nil
}

func (f *fakeBackend) CreateBooking(_ context.Context, in models.CreateBookingRequest, key string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	f.keys = append(f.keys, key)
	n := len(f.created)
	return &models.Booking{ID: fmt.Sprintf("b%d", n), Reference: fmt.Sprintf("AST-%d", n), Status: models.BookingConfirmed}, nil
}

func (f *fakeBackend) bookings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakeGateway struct {
	mu        sync.Mutex
	intents   map[string]*models.PaymentIntent
	requests  []models.IntentRequest
	cancelled []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*models.PaymentIntent{}}
}

func (g *fakeGateway) CreateIntent(_ context.Context, req models.IntentRequest) (*models.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	id := fmt.Sprintf("pi_%d", len(g.requests))
	pi := &models.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       "requires_payment_method",
		Metadata:     req.Metadata,
	}
	g.intents[id] = pi
	return pi, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*models.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pi, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	cp := *pi
	return &cp, nil
}

func (g *fakeGateway) CancelIntent(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, id)
	if pi, ok := g.intents[id]; ok {
		pi.Status = "canceled"
	}
	return nil
}

func (g *fakeGateway) ParseWebhook([]byte, string) (*models.WebhookEvent, error) {
	return nil, fmt.Errorf("not used")
}

func (g *fakeGateway) succeed(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = models.PaymentIntentStatusSucceeded
}

type memStore struct {
	mu       sync.Mutex
	sessions map[string]models.CheckoutSession
	ttls     map[string]time.Duration
	locks    map[string]chan struct{}
	failSave bool
}

func newMemStore() *memStore {
	return &memStore{
		sessions: map[string]models.CheckoutSession{},
		ttls:     map[string]time.Duration{},
		locks:    map[string]chan struct{}{},
	}
}

func (m *memStore) Save(_ context.Context, s *models.CheckoutSession, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return fmt.Errorf("store down")
	}
	m.sessions[s.ID] = *s
	m.ttls[s.ID] = ttl
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*models.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memStore) Lock(ctx context.Context, id string, _ time.Duration) (func(), error) {
	m.mu.Lock()
	ch, ok := m.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[id] = ch
	}
	m.mu.Unlock()
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fakeTasks struct {
	mu       sync.Mutex
	mails    []models.BookingConfirmationPayload
	expiries map[string]time.Duration
}

func (f *fakeTasks) EnqueueBookingConfirmation(_ context.Context, p models.BookingConfirmationPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mails = append(f.mails, p)
	return nil
}

func (f *fakeTasks) EnqueueCheckoutExpiry(_ context.Context, id string, after time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expiries == nil {
		f.expiries = map[string]time.Duration{}
	}
	f.expiries[id] = after
	return nil
}
