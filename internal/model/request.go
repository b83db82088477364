package model

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Category    string `json:"category"`
	// Image is a data URI or remote URL forwarded to the media host.
	Image string `json:"image,omitempty"`
}

type ValidateCouponRequest struct {
	Code string `json:"code"`
}

type CreateCheckoutRequest struct {
	Items      []CartItem `json:"items"`
	CouponCode string     `json:"coupon_code,omitempty"`
}

type CreateCheckoutResponse struct {
	SessionID  string `json:"session_id"`
	TotalCents int64  `json:"total_cents"`
}

type ConfirmCheckoutRequest struct {
	SessionID string `json:"session_id"`
}
