package payment

import "context"

// StatusPaid is the provider-side status that marks a session as settled.
const StatusPaid = "paid"

// LineItem is one priced cart line sent to the provider. UnitAmount is in
// minor currency units.
type LineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int64
}

// CreateSessionInput carries everything needed to open a provider-side
// checkout session. Metadata is stored opaquely on the session and comes
// back verbatim from RetrieveSession.
type CreateSessionInput struct {
	LineItems   []LineItem
	DiscountRef string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Session is the provider's view of a checkout attempt. AmountTotal is the
// authoritative post-discount total in minor units.
type Session struct {
	ID            string
	PaymentStatus string
	AmountTotal   int64
	Metadata      map[string]string
}

// Provider is the narrow port to the external payment service. Retries of
// mutating calls are left to the client; a failed call must not be retried
// silently here since that risks duplicate provider-side objects.
type Provider interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (Session, error)
	// CreateDiscount creates a one-time percentage discount object and
	// returns its provider reference.
	CreateDiscount(ctx context.Context, percentOff int) (string, error)
}
