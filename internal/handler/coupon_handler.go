package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-shop-backend/internal/middleware"
	"go-shop-backend/internal/model"
	"go-shop-backend/internal/service"
	"go-shop-backend/pkg/apierror"
)

type CouponHandler struct {
	service *service.CouponService
}

func NewCouponHandler(service *service.CouponService) *CouponHandler {
	return &CouponHandler{service: service}
}

// Active returns the caller's currently active coupon, or null data when
// none exists. A missing coupon is not an error for this endpoint.
func (h *CouponHandler) Active(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	coupon, err := h.service.ActiveForUser(r.Context(), user.ID)
	if err != nil {
		if err == model.ErrCouponNotFound {
			writeSuccess(w, http.StatusOK, nil)
			return
		}
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, coupon)
}

func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	var payload model.ValidateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	code := strings.TrimSpace(payload.Code)
	if code == "" {
		writeError(w, apierror.New("BAD_REQUEST", "code is required", "code", http.StatusBadRequest))
		return
	}

	coupon, err := h.service.FindActive(r.Context(), code, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"code":                coupon.Code,
		"discount_percentage": coupon.DiscountPercentage,
	})
}
