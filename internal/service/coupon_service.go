package service

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/google/uuid"

	"go-shop-backend/internal/event"
	"go-shop-backend/internal/model"
)

const (
	// LoyaltyThresholdCents is the order total, in minor units, at which a
	// loyalty coupon is granted.
	LoyaltyThresholdCents int64 = 20000

	loyaltyDiscountPercent = 10
	loyaltyValidity        = 30 * 24 * time.Hour
)

// CouponRepo is the slice of the coupon repository the ledger needs.
type CouponRepo interface {
	FindActive(ctx context.Context, code string, userID string) (model.Coupon, error)
	FindActiveForUser(ctx context.Context, userID string) (model.Coupon, error)
	Create(ctx context.Context, c model.Coupon) error
	Deactivate(ctx context.Context, code string, userID string) error
	DeactivateAllForUser(ctx context.Context, userID string) error
}

// CouponService is the ledger of per-account discount coupons.
type CouponService struct {
	coupons CouponRepo
	bus     event.Bus
	now     func() time.Time
}

func NewCouponService(coupons CouponRepo, bus event.Bus) *CouponService {
	return &CouponService{coupons: coupons, bus: bus, now: time.Now}
}

// ActiveForUser returns the caller's current active coupon.
func (s *CouponService) ActiveForUser(ctx context.Context, userID string) (model.Coupon, error) {
	return s.coupons.FindActiveForUser(ctx, userID)
}

// FindActive validates a code against the caller's account: the coupon
// must exist, belong to them, be active and unexpired.
func (s *CouponService) FindActive(ctx context.Context, code string, userID string) (model.Coupon, error) {
	return s.coupons.FindActive(ctx, code, userID)
}

// Redeem consumes the coupon. Callers invoke this only once payment is
// confirmed; a checkout session that is merely created must leave the
// coupon usable.
func (s *CouponService) Redeem(ctx context.Context, code string, userID string) error {
	if err := s.coupons.Deactivate(ctx, code, userID); err != nil {
		return err
	}

	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      event.TypeCouponRedeemed,
		Payload:   map[string]string{"code": code},
		Timestamp: s.now().UTC().Format(time.RFC3339),
		ActorID:   userID,
	})
	return nil
}

// GrantLoyalty issues a fresh 10% coupon valid for 30 days, retiring any
// coupon the account already holds.
func (s *CouponService) GrantLoyalty(ctx context.Context, userID string) (model.Coupon, error) {
	if err := s.coupons.DeactivateAllForUser(ctx, userID); err != nil {
		return model.Coupon{}, err
	}

	now := s.now().UTC()
	coupon := model.Coupon{
		ID:                 uuid.NewString(),
		Code:               newGiftCode(),
		UserID:             userID,
		DiscountPercentage: loyaltyDiscountPercent,
		ExpirationDate:     now.Add(loyaltyValidity),
		IsActive:           true,
		CreatedAt:          now,
	}

	if err := s.coupons.Create(ctx, coupon); err != nil {
		return model.Coupon{}, err
	}

	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      event.TypeCouponGranted,
		Payload:   map[string]string{"code": coupon.Code},
		Timestamp: now.Format(time.RFC3339),
		ActorID:   userID,
	})
	return coupon, nil
}

const giftCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newGiftCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// UUID-derived suffix rather than panicking mid-checkout.
		return "GIFT" + uuid.NewString()[:6]
	}
	for i, b := range buf {
		buf[i] = giftCodeAlphabet[int(b)%len(giftCodeAlphabet)]
	}
	return "GIFT" + string(buf)
}
