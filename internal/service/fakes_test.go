package service

import (
	"context"
	"sync"
	"time"

	"go-shop-backend/internal/model"
)

// In-memory repo doubles backing the service tests.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by ID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]model.User{}}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeUserRepo) Create(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return model.ErrUserAlreadyExists
		}
	}
	r.users[u.ID] = u
	return nil
}

type fakeCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]model.Coupon // keyed by ID
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{coupons: map[string]model.Coupon{}}
}

func (r *fakeCouponRepo) FindActive(_ context.Context, code string, userID string) (model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.coupons {
		if c.Code == code && c.UserID == userID && c.IsActive && !c.Expired(time.Now()) {
			return c, nil
		}
	}
	return model.Coupon{}, model.ErrCouponNotFound
}

func (r *fakeCouponRepo) FindActiveForUser(_ context.Context, userID string) (model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.coupons {
		if c.UserID == userID && c.IsActive && !c.Expired(time.Now()) {
			return c, nil
		}
	}
	return model.Coupon{}, model.ErrCouponNotFound
}

func (r *fakeCouponRepo) Create(_ context.Context, c model.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.coupons[c.ID] = c
	return nil
}

func (r *fakeCouponRepo) Deactivate(_ context.Context, code string, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.coupons {
		if c.Code == code && c.UserID == userID && c.IsActive {
			c.IsActive = false
			r.coupons[id] = c
			return nil
		}
	}
	return model.ErrCouponNotFound
}

func (r *fakeCouponRepo) DeactivateAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.coupons {
		if c.UserID == userID && c.IsActive {
			c.IsActive = false
			r.coupons[id] = c
		}
	}
	return nil
}

func (r *fakeCouponRepo) activeCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, c := range r.coupons {
		if c.UserID == userID && c.IsActive {
			count++
		}
	}
	return count
}

type fakeOrderRepo struct {
	mu        sync.Mutex
	bySession map[string]model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{bySession: map[string]model.Order{}}
}

func (r *fakeOrderRepo) CreateIfAbsent(_ context.Context, o model.Order) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySession[o.ProviderSessionID]; exists {
		return false, nil
	}
	r.bySession[o.ProviderSessionID] = o
	return true, nil
}

func (r *fakeOrderRepo) FindByProviderSessionID(_ context.Context, sessionID string) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.bySession[sessionID]
	if !ok {
		return model.Order{}, model.ErrOrderNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) ListForUser(_ context.Context, userID string) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders := make([]model.Order, 0)
	for _, order := range r.bySession {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySession)
}
