//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"go-shop-backend/internal/cache"
	"go-shop-backend/internal/config"
	"go-shop-backend/internal/credstore"
	"go-shop-backend/internal/event"
	"go-shop-backend/internal/handler"
	"go-shop-backend/internal/media"
	"go-shop-backend/internal/middleware"
	"go-shop-backend/internal/model"
	"go-shop-backend/internal/payment"
	"go-shop-backend/internal/repository"
	"go-shop-backend/internal/router"
	"go-shop-backend/internal/service"
	"go-shop-backend/internal/token"
)

// env is a full HTTP stack backed by in-memory stores: miniredis for
// sessions and the featured cache, map-backed repositories for Postgres,
// and the fake payment provider.
type env struct {
	server   *httptest.Server
	client   *http.Client
	issuer   *token.Issuer
	provider *payment.FakeProvider
	users    *memUserRepo
	products *memProductRepo
	coupons  *memCouponRepo
	orders   *memOrderRepo
}

func newTestEnv(t *testing.T) *env {
	t.Helper()

	mini := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	issuer, err := token.NewIssuer("integration-access-secret", "integration-refresh-secret", 15*time.Minute, 168*time.Hour)
	require.NoError(t, err)

	users := newMemUserRepo()
	products := newMemProductRepo()
	coupons := newMemCouponRepo()
	orders := newMemOrderRepo()
	provider := payment.NewFakeProvider()
	bus := event.NewBus()

	creds := credstore.NewRedisStore(redisClient)
	featuredCache := cache.NewProductCache(redisClient, time.Hour)

	authService := service.NewAuthService(users, issuer, creds)
	productService := service.NewProductService(products, featuredCache, media.NoopUploader{}, bus)
	couponService := service.NewCouponService(coupons, bus)
	checkoutService := service.NewCheckoutService(orders, couponService, provider, bus, "http://localhost:5173")
	analyticsService := service.NewAnalyticsService(users, products, orders)

	authMiddleware := middleware.NewAuthMiddleware(issuer, authService)

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"http://localhost:5173"},
		RateLimitRPM:     0,
		AuthRateLimitRPM: 1000,
	}

	server := httptest.NewServer(router.New(
		cfg,
		authMiddleware,
		handler.NewAuthHandler(authService, false),
		handler.NewProductHandler(productService),
		handler.NewCouponHandler(couponService),
		handler.NewCheckoutHandler(checkoutService),
		handler.NewAnalyticsHandler(analyticsService),
	))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &env{
		server:   server,
		client:   &http.Client{Jar: jar},
		issuer:   issuer,
		provider: provider,
		users:    users,
		products: products,
		coupons:  coupons,
		orders:   orders,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
}

func (e *env) do(t *testing.T, method string, path string, payload any) (int, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}

	return resp.StatusCode, parsed
}

// doBare issues a request without the shared cookie jar.
func (e *env) doBare(t *testing.T, method string, path string, payload any) (int, envelope) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(method, e.server.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed envelope
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &parsed))
	}

	return resp.StatusCode, parsed
}

func (e *env) signup(t *testing.T, name string, email string, password string) {
	t.Helper()

	status, resp := e.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, status)
	require.True(t, resp.Success)
}

// promoteToAdmin flips the stored role; the change takes effect on the
// next request because every request re-resolves the account.
func (e *env) promoteToAdmin(email string) {
	e.users.mu.Lock()
	defer e.users.mu.Unlock()

	for id, user := range e.users.byID {
		if user.Email == email {
			user.Role = model.RoleAdmin
			e.users.byID[id] = user
		}
	}
}

func (e *env) refreshCookieValue(t *testing.T) string {
	t.Helper()

	serverURL, err := url.Parse(e.server.URL)
	require.NoError(t, err)
	for _, cookie := range e.client.Jar.Cookies(serverURL) {
		if cookie.Name == "refreshToken" {
			return cookie.Value
		}
	}
	t.Fatal("refresh token cookie not found")
	return ""
}

func decodeData[T any](t *testing.T, resp envelope) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

// --- in-memory repositories ---

type memUserRepo struct {
	mu   sync.Mutex
	byID map[string]model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]model.User{}}
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == model.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *memUserRepo) Create(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[u.ID] = u
	return nil
}

func (r *memUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.byID)), nil
}

type memProductRepo struct {
	mu   sync.Mutex
	byID map[string]model.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{byID: map[string]model.Product{}}
}

func (r *memProductRepo) FindByID(_ context.Context, id string) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.byID[id]
	if !ok {
		return model.Product{}, model.ErrProductNotFound
	}
	return product, nil
}

func (r *memProductRepo) List(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sortedLocked(func(model.Product) bool { return true }), nil
}

func (r *memProductRepo) ListFeatured(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sortedLocked(func(p model.Product) bool { return p.IsFeatured }), nil
}

func (r *memProductRepo) ListByCategory(_ context.Context, category string) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sortedLocked(func(p model.Product) bool { return p.Category == category }), nil
}

func (r *memProductRepo) ListRandom(_ context.Context, limit int) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.sortedLocked(func(model.Product) bool { return true })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *memProductRepo) Create(_ context.Context, p model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[p.ID] = p
	return nil
}

func (r *memProductRepo) ToggleFeatured(_ context.Context, id string) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.byID[id]
	if !ok {
		return model.Product{}, model.ErrProductNotFound
	}
	product.IsFeatured = !product.IsFeatured
	r.byID[id] = product
	return product, nil
}

func (r *memProductRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memProductRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.byID)), nil
}

func (r *memProductRepo) sortedLocked(keep func(model.Product) bool) []model.Product {
	out := make([]model.Product, 0, len(r.byID))
	for _, product := range r.byID {
		if keep(product) {
			out = append(out, product)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]model.Coupon
}

func newMemCouponRepo() *memCouponRepo {
	return &memCouponRepo{coupons: map[string]model.Coupon{}}
}

func (r *memCouponRepo) FindActive(_ context.Context, code string, userID string) (model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, coupon := range r.coupons {
		if coupon.Code == code && coupon.UserID == userID && coupon.IsActive && !coupon.Expired(time.Now()) {
			return coupon, nil
		}
	}
	return model.Coupon{}, model.ErrCouponNotFound
}

func (r *memCouponRepo) FindActiveForUser(_ context.Context, userID string) (model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, coupon := range r.coupons {
		if coupon.UserID == userID && coupon.IsActive && !coupon.Expired(time.Now()) {
			return coupon, nil
		}
	}
	return model.Coupon{}, model.ErrCouponNotFound
}

func (r *memCouponRepo) Create(_ context.Context, c model.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.coupons[c.ID] = c
	return nil
}

func (r *memCouponRepo) Deactivate(_ context.Context, code string, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, coupon := range r.coupons {
		if coupon.Code == code && coupon.UserID == userID && coupon.IsActive {
			coupon.IsActive = false
			r.coupons[id] = coupon
			return nil
		}
	}
	return model.ErrCouponNotFound
}

func (r *memCouponRepo) DeactivateAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, coupon := range r.coupons {
		if coupon.UserID == userID && coupon.IsActive {
			coupon.IsActive = false
			r.coupons[id] = coupon
		}
	}
	return nil
}

type memOrderRepo struct {
	mu        sync.Mutex
	byID      map[string]model.Order
	bySession map[string]string
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{byID: map[string]model.Order{}, bySession: map[string]string{}}
}

func (r *memOrderRepo) CreateIfAbsent(_ context.Context, o model.Order) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySession[o.ProviderSessionID]; exists {
		return false, nil
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	r.byID[o.ID] = o
	r.bySession[o.ProviderSessionID] = o.ID
	return true, nil
}

func (r *memOrderRepo) FindByProviderSessionID(_ context.Context, sessionID string) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.bySession[sessionID]
	if !ok {
		return model.Order{}, model.ErrOrderNotFound
	}
	return r.byID[id], nil
}

func (r *memOrderRepo) ListForUser(_ context.Context, userID string) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []model.Order{}
	for _, order := range r.byID {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memOrderRepo) SalesSummary(_ context.Context) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var revenue int64
	for _, order := range r.byID {
		revenue += order.TotalCents
	}
	return int64(len(r.byID)), revenue, nil
}

func (r *memOrderRepo) DailySales(_ context.Context, start time.Time, end time.Time) ([]repository.DailySalesRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDay := map[string]*repository.DailySalesRow{}
	for _, order := range r.byID {
		if order.CreatedAt.Before(start) || order.CreatedAt.After(end) {
			continue
		}
		day := order.CreatedAt.UTC().Format("2006-01-02")
		row, ok := byDay[day]
		if !ok {
			row = &repository.DailySalesRow{Day: day}
			byDay[day] = row
		}
		row.Sales++
		row.RevenueCents += order.TotalCents
	}

	out := make([]repository.DailySalesRow, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}
