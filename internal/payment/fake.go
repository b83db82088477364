package payment

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go-shop-backend/internal/model"
)

// FakeProvider is an in-memory Provider used by tests. It mimics the
// provider's authoritative-total behavior: the session total reflects the
// line items with any attached discount applied.
type FakeProvider struct {
	mu        sync.Mutex
	seq       int
	sessions  map[string]Session
	discounts map[string]int
	// Unavailable forces every call to fail as a provider outage.
	Unavailable bool
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		sessions:  map[string]Session{},
		discounts: map[string]int{},
	}
}

func (p *FakeProvider) CreateSession(_ context.Context, in CreateSessionInput) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Unavailable {
		return Session{}, model.ErrProviderUnavailable
	}

	var total int64
	for _, item := range in.LineItems {
		total += item.UnitAmount * item.Quantity
	}
	if percent, ok := p.discounts[in.DiscountRef]; ok {
		total = int64(math.Round(float64(total) * (1 - float64(percent)/100)))
	}

	metadata := make(map[string]string, len(in.Metadata))
	for key, value := range in.Metadata {
		metadata[key] = value
	}

	p.seq++
	session := Session{
		ID:            fmt.Sprintf("cs_test_%d", p.seq),
		PaymentStatus: "unpaid",
		AmountTotal:   total,
		Metadata:      metadata,
	}
	p.sessions[session.ID] = session
	return session, nil
}

func (p *FakeProvider) RetrieveSession(_ context.Context, sessionID string) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Unavailable {
		return Session{}, model.ErrProviderUnavailable
	}

	session, ok := p.sessions[sessionID]
	if !ok {
		return Session{}, fmt.Errorf("retrieve checkout session: unknown session %s", sessionID)
	}
	return session, nil
}

func (p *FakeProvider) CreateDiscount(_ context.Context, percentOff int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Unavailable {
		return "", model.ErrProviderUnavailable
	}

	p.seq++
	ref := fmt.Sprintf("disc_%d", p.seq)
	p.discounts[ref] = percentOff
	return ref, nil
}

// MarkPaid flips a session to the settled state, standing in for the
// customer completing payment on the provider's hosted page.
func (p *FakeProvider) MarkPaid(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if session, ok := p.sessions[sessionID]; ok {
		session.PaymentStatus = StatusPaid
		p.sessions[sessionID] = session
	}
}
