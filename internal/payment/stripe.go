package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"go-shop-backend/internal/model"
)

// StripeProvider implements Provider against the Stripe Checkout API.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeProvider{api: api}
}

func (p *StripeProvider) CreateSession(ctx context.Context, in CreateSessionInput) (Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(in.LineItems))
	for _, item := range in.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.ImageURL})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: productData,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
	}
	params.Context = ctx
	for key, value := range in.Metadata {
		params.AddMetadata(key, value)
	}
	if in.DiscountRef != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(in.DiscountRef)},
		}
	}

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, translateStripeErr("create checkout session", err)
	}
	return toSession(session), nil
}

func (p *StripeProvider) RetrieveSession(ctx context.Context, sessionID string) (Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return Session{}, translateStripeErr("retrieve checkout session", err)
	}
	return toSession(session), nil
}

func (p *StripeProvider) CreateDiscount(ctx context.Context, percentOff int) (string, error) {
	params := &stripe.CouponParams{
		PercentOff: stripe.Float64(float64(percentOff)),
		Duration:   stripe.String(string(stripe.CouponDurationOnce)),
	}
	params.Context = ctx

	coupon, err := p.api.Coupons.New(params)
	if err != nil {
		return "", translateStripeErr("create discount", err)
	}
	return coupon.ID, nil
}

func toSession(s *stripe.CheckoutSession) Session {
	return Session{
		ID:            s.ID,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Metadata:      s.Metadata,
	}
}

// translateStripeErr maps transport failures and Stripe 5xx responses to
// model.ErrProviderUnavailable; 4xx responses keep their own message.
func translateStripeErr(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode < 500 {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", model.ErrProviderUnavailable, op, err)
}
