//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-shop-backend/internal/model"
)

func cartPayload() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"product_id": "prod-1", "name": "Espresso Beans", "quantity": 2, "price_cents": 1500},
			{"product_id": "prod-2", "name": "Filter Papers", "quantity": 1, "price_cents": 700},
		},
	}
}

func bigCartPayload() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"product_id": "prod-9", "name": "Espresso Machine", "quantity": 1, "price_cents": 25000},
		},
	}
}

func TestCheckoutConfirmIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")

	status, resp := e.do(t, http.MethodPost, "/api/v1/checkout", cartPayload())
	require.Equal(t, http.StatusOK, status)
	session := decodeData[model.CreateCheckoutResponse](t, resp)
	require.NotEmpty(t, session.SessionID)
	assert.Equal(t, int64(3700), session.TotalCents)

	e.provider.MarkPaid(session.SessionID)

	status, resp = e.do(t, http.MethodPost, "/api/v1/checkout/confirm", map[string]string{
		"session_id": session.SessionID,
	})
	require.Equal(t, http.StatusOK, status)
	first := decodeData[model.Order](t, resp)
	assert.Equal(t, int64(3700), first.TotalCents)
	assert.Equal(t, session.SessionID, first.ProviderSessionID)

	// A replayed confirmation returns the same order instead of a second one.
	status, resp = e.do(t, http.MethodPost, "/api/v1/checkout/confirm", map[string]string{
		"session_id": session.SessionID,
	})
	require.Equal(t, http.StatusOK, status)
	second := decodeData[model.Order](t, resp)
	assert.Equal(t, first.ID, second.ID)

	status, resp = e.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, status)
	orders := decodeData[[]model.Order](t, resp)
	assert.Len(t, orders, 1)
}

func TestConfirmRejectsUnpaidSession(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")

	status, resp := e.do(t, http.MethodPost, "/api/v1/checkout", cartPayload())
	require.Equal(t, http.StatusOK, status)
	session := decodeData[model.CreateCheckoutResponse](t, resp)

	status, resp = e.do(t, http.MethodPost, "/api/v1/checkout/confirm", map[string]string{
		"session_id": session.SessionID,
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PAYMENT_NOT_COMPLETED", resp.Error.Code)

	status, resp = e.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, status)
	orders := decodeData[[]model.Order](t, resp)
	assert.Empty(t, orders)
}

func TestConfirmRejectsEmptyCart(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")

	status, resp := e.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"items": []any{}})
	require.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
}

func TestLargePurchaseEarnsLoyaltyCoupon(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")

	status, resp := e.do(t, http.MethodPost, "/api/v1/checkout", bigCartPayload())
	require.Equal(t, http.StatusOK, status)
	session := decodeData[model.CreateCheckoutResponse](t, resp)

	e.provider.MarkPaid(session.SessionID)
	status, _ = e.do(t, http.MethodPost, "/api/v1/checkout/confirm", map[string]string{
		"session_id": session.SessionID,
	})
	require.Equal(t, http.StatusOK, status)

	status, resp = e.do(t, http.MethodGet, "/api/v1/coupons", nil)
	require.Equal(t, http.StatusOK, status)
	coupon := decodeData[model.Coupon](t, resp)
	assert.Regexp(t, regexp.MustCompile(`^GIFT[A-Z0-9]{6}$`), coupon.Code)
	assert.Equal(t, 10, coupon.DiscountPercentage)
	assert.True(t, coupon.IsActive)
}

func TestCouponDiscountsAndIsConsumedOnce(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")

	// Earn a coupon with a qualifying purchase first.
	status, resp := e.do(t, http.MethodPost, "/api/v1/checkout", bigCartPayload())
	require.Equal(t, http.StatusOK, status)
	earning := decodeData[model.CreateCheckoutResponse](t, resp)
	e.provider.MarkPaid(earning.SessionID)
	status, _ = e.do(t, http.MethodPost, "/api/v1/checkout/confirm", map[string]string{"session_id": earning.SessionID})
	require.Equal(t, http.StatusOK, status)

	status, resp = e.do(t, http.MethodGet, "/api/v1/coupons", nil)
	require.Equal(t, http.StatusOK, status)
	coupon := decodeData[model.Coupon](t, resp)

	status, resp = e.do(t, http.MethodPost, "/api/v1/coupons/validate", map[string]string{"code": coupon.Code})
	require.Equal(t, http.StatusOK, status)

	payload := cartPayload()
	payload["coupon_code"] = coupon.Code
	status, resp = e.do(t, http.MethodPost, "/api/v1/checkout", payload)
	require.Equal(t, http.StatusOK, status)
	discounted := decodeData[model.CreateCheckoutResponse](t, resp)
	assert.Equal(t, int64(3330), discounted.TotalCents)

	e.provider.MarkPaid(discounted.SessionID)
	status, resp = e.do(t, http.MethodPost, "/api/v1/checkout/confirm", map[string]string{"session_id": discounted.SessionID})
	require.Equal(t, http.StatusOK, status)
	order := decodeData[model.Order](t, resp)
	assert.Equal(t, int64(3330), order.TotalCents)

	// The coupon is spent: validating it again fails.
	status, resp = e.do(t, http.MethodPost, "/api/v1/coupons/validate", map[string]string{"code": coupon.Code})
	require.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, resp.Error)
}

func TestConfirmForeignSessionForbidden(t *testing.T) {
	e := newTestEnv(t)

	e.signup(t, "Ada", "ada@example.com", "secret123")
	status, resp := e.do(t, http.MethodPost, "/api/v1/checkout", cartPayload())
	require.Equal(t, http.StatusOK, status)
	session := decodeData[model.CreateCheckoutResponse](t, resp)
	e.provider.MarkPaid(session.SessionID)

	// A different account tries to confirm Ada's session.
	status, _ = e.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)
	e.signup(t, "Mallory", "mallory@example.com", "secret123")

	status, resp = e.do(t, http.MethodPost, "/api/v1/checkout/confirm", map[string]string{
		"session_id": session.SessionID,
	})
	require.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
}

func TestAnalyticsRequiresAdmin(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")

	status, resp := e.do(t, http.MethodGet, "/api/v1/analytics", nil)
	require.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, resp.Error)

	e.promoteToAdmin("ada@example.com")

	status, _ = e.do(t, http.MethodGet, "/api/v1/analytics", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, http.MethodGet, "/api/v1/analytics/daily-sales?days=7", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestAdminProductLifecycle(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")
	e.promoteToAdmin("ada@example.com")

	status, resp := e.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"name":        "Espresso Beans",
		"description": "Dark roast, 1kg",
		"price_cents": 1500,
		"category":    "coffee",
	})
	require.Equal(t, http.StatusCreated, status)
	product := decodeData[model.Product](t, resp)
	require.NotEmpty(t, product.ID)

	status, resp = e.do(t, http.MethodPatch, "/api/v1/products/"+product.ID, nil)
	require.Equal(t, http.StatusOK, status)
	toggled := decodeData[model.Product](t, resp)
	assert.True(t, toggled.IsFeatured)

	status, resp = e.do(t, http.MethodGet, "/api/v1/products/featured", nil)
	require.Equal(t, http.StatusOK, status)
	featured := decodeData[[]model.Product](t, resp)
	require.Len(t, featured, 1)
	assert.Equal(t, product.ID, featured[0].ID)

	status, _ = e.do(t, http.MethodDelete, "/api/v1/products/"+product.ID, nil)
	require.Equal(t, http.StatusOK, status)

	status, resp = e.do(t, http.MethodGet, "/api/v1/products/featured", nil)
	require.Equal(t, http.StatusOK, status)
	featured = decodeData[[]model.Product](t, resp)
	assert.Empty(t, featured)
}
