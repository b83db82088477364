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

type CheckoutHandler struct {
	service *service.CheckoutService
}

func NewCheckoutHandler(service *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	var payload model.CreateCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	session, err := h.service.CreateCheckout(r.Context(), user.ID, payload.Items, strings.TrimSpace(payload.CouponCode))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, session)
}

// Confirm finalizes a paid provider session into an order. Replays of the
// same session return the already-recorded order with the same shape.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	var payload model.ConfirmCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	sessionID := strings.TrimSpace(payload.SessionID)
	if sessionID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "session_id is required", "session_id", http.StatusBadRequest))
		return
	}

	order, err := h.service.ConfirmCheckout(r.Context(), user.ID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, order)
}

func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	orders, err := h.service.ListOrders(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, orders)
}
