package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"go-shop-backend/internal/event"
	"go-shop-backend/internal/model"
	"go-shop-backend/internal/payment"
)

const (
	metadataUserIDKey     = "user_id"
	metadataCouponCodeKey = "coupon_code"
	metadataItemsKey      = "items"
)

// OrderRepo is the slice of the order repository the orchestrator needs.
type OrderRepo interface {
	CreateIfAbsent(ctx context.Context, o model.Order) (bool, error)
	FindByProviderSessionID(ctx context.Context, sessionID string) (model.Order, error)
	ListForUser(ctx context.Context, userID string) ([]model.Order, error)
}

// CouponLedger is the coupon capability used during checkout.
type CouponLedger interface {
	FindActive(ctx context.Context, code string, userID string) (model.Coupon, error)
	Redeem(ctx context.Context, code string, userID string) error
	GrantLoyalty(ctx context.Context, userID string) (model.Coupon, error)
}

// CheckoutService drives a checkout attempt from cart to order:
// Built -> PendingConfirmation (provider session created) -> Confirmed.
// Nothing is written locally until the provider reports the payment as
// settled; the cart travels as opaque metadata on the provider session.
type CheckoutService struct {
	orders   OrderRepo
	coupons  CouponLedger
	provider payment.Provider
	bus      event.Bus
	// clientURL is the storefront origin the provider redirects back to.
	clientURL string
	now       func() time.Time
}

func NewCheckoutService(orders OrderRepo, coupons CouponLedger, provider payment.Provider, bus event.Bus, clientURL string) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		coupons:   coupons,
		provider:  provider,
		bus:       bus,
		clientURL: clientURL,
		now:       time.Now,
	}
}

// CreateCheckout opens a provider session for the cart. Totals are summed
// in integer minor units; a resolvable coupon reduces the total and is
// mirrored as a provider-side one-time discount. The coupon is NOT
// redeemed here and no order is created: an abandoned session must leave
// both untouched.
func (s *CheckoutService) CreateCheckout(ctx context.Context, userID string, items []model.CartItem, couponCode string) (model.CreateCheckoutResponse, error) {
	if len(items) == 0 {
		return model.CreateCheckoutResponse{}, model.ErrEmptyCart
	}

	var totalCents int64
	lineItems := make([]payment.LineItem, 0, len(items))
	metaItems := make([]model.CartMetadataItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 || item.PriceCents < 0 || item.ProductID == "" {
			return model.CreateCheckoutResponse{}, fmt.Errorf("%w: bad cart line for product %q", model.ErrInvalidInput, item.ProductID)
		}
		totalCents += item.PriceCents * item.Quantity
		lineItems = append(lineItems, payment.LineItem{
			Name:       item.Name,
			ImageURL:   item.ImageURL,
			UnitAmount: item.PriceCents,
			Quantity:   item.Quantity,
		})
		metaItems = append(metaItems, model.CartMetadataItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
		})
	}

	var discountRef string
	appliedCoupon := ""
	if couponCode != "" {
		coupon, err := s.coupons.FindActive(ctx, couponCode, userID)
		switch {
		case errors.Is(err, model.ErrCouponNotFound):
			// An unknown or inactive code is simply not applied.
		case err != nil:
			return model.CreateCheckoutResponse{}, err
		default:
			totalCents = applyDiscount(totalCents, coupon.DiscountPercentage)
			discountRef, err = s.provider.CreateDiscount(ctx, coupon.DiscountPercentage)
			if err != nil {
				return model.CreateCheckoutResponse{}, err
			}
			appliedCoupon = coupon.Code
		}
	}

	encodedItems, err := json.Marshal(metaItems)
	if err != nil {
		return model.CreateCheckoutResponse{}, fmt.Errorf("encode cart metadata: %w", err)
	}

	session, err := s.provider.CreateSession(ctx, payment.CreateSessionInput{
		LineItems:   lineItems,
		DiscountRef: discountRef,
		SuccessURL:  s.clientURL + "/purchase-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.clientURL + "/purchase-cancel",
		Metadata: map[string]string{
			metadataUserIDKey:     userID,
			metadataCouponCodeKey: appliedCoupon,
			metadataItemsKey:      string(encodedItems),
		},
	})
	if err != nil {
		return model.CreateCheckoutResponse{}, err
	}

	return model.CreateCheckoutResponse{SessionID: session.ID, TotalCents: totalCents}, nil
}

// ConfirmCheckout turns a settled provider session into exactly one order.
// The conditional order insert is the uniqueness-enforcing step and runs
// first; coupon redemption and the loyalty grant happen only after this
// call owns the insert, so a lost race discards them rather than
// double-applying.
func (s *CheckoutService) ConfirmCheckout(ctx context.Context, userID string, sessionID string) (model.Order, error) {
	session, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return model.Order{}, err
	}
	if session.PaymentStatus != payment.StatusPaid {
		return model.Order{}, model.ErrPaymentNotCompleted
	}

	ownerID := session.Metadata[metadataUserIDKey]
	if ownerID == "" || ownerID != userID {
		return model.Order{}, model.ErrForbidden
	}

	var metaItems []model.CartMetadataItem
	if err := json.Unmarshal([]byte(session.Metadata[metadataItemsKey]), &metaItems); err != nil {
		return model.Order{}, fmt.Errorf("decode cart metadata for session %s: %w", session.ID, err)
	}

	orderItems := make([]model.OrderItem, 0, len(metaItems))
	for _, item := range metaItems {
		orderItems = append(orderItems, model.OrderItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
		})
	}

	order := model.Order{
		ID:     uuid.NewString(),
		UserID: ownerID,
		Items:  orderItems,
		// The provider-reported total is authoritative for the record.
		TotalCents:        session.AmountTotal,
		ProviderSessionID: session.ID,
		CreatedAt:         s.now().UTC(),
	}

	created, err := s.orders.CreateIfAbsent(ctx, order)
	if err != nil {
		return model.Order{}, err
	}
	if !created {
		// A concurrent or earlier confirmation already materialized the
		// order; return it unchanged. Idempotent, not an error.
		return s.orders.FindByProviderSessionID(ctx, session.ID)
	}

	if code := session.Metadata[metadataCouponCodeKey]; code != "" {
		if err := s.coupons.Redeem(ctx, code, ownerID); err != nil && !errors.Is(err, model.ErrCouponNotFound) {
			// The order is already durable; a redemption failure must not
			// drop it. Logged for reconciliation.
			slog.Error("confirm checkout: coupon redemption failed", "session_id", session.ID, "code", code, "error", err)
		}
	}

	if order.TotalCents >= LoyaltyThresholdCents {
		if _, err := s.coupons.GrantLoyalty(ctx, ownerID); err != nil {
			slog.Error("confirm checkout: loyalty coupon grant failed", "session_id", session.ID, "error", err)
		}
	}

	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      event.TypeOrderCreated,
		Payload:   map[string]any{"order_id": order.ID, "total_cents": order.TotalCents},
		Timestamp: order.CreatedAt.Format(time.RFC3339),
		ActorID:   ownerID,
	})

	return order, nil
}

// ListOrders returns the caller's order history, newest first.
func (s *CheckoutService) ListOrders(ctx context.Context, userID string) ([]model.Order, error) {
	return s.orders.ListForUser(ctx, userID)
}

// applyDiscount reduces a minor-unit total by a percentage, rounding to
// the nearest unit.
func applyDiscount(totalCents int64, percent int) int64 {
	return int64(math.Round(float64(totalCents) * (1 - float64(percent)/100)))
}
