package model

import "time"

// CartItem is one line of a checkout request. PriceCents is the unit price
// in minor currency units; totals are always computed in integer cents.
type CartItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	ImageURL   string `json:"image_url,omitempty"`
	Quantity   int64  `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// CartMetadataItem is the minimal per-line snapshot carried in provider
// session metadata.
type CartMetadataItem struct {
	ProductID  string `json:"id"`
	Quantity   int64  `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type OrderItem struct {
	ProductID  string `json:"product_id"`
	Quantity   int64  `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type Order struct {
	ID                string      `json:"id"`
	UserID            string      `json:"user_id"`
	Items             []OrderItem `json:"items"`
	TotalCents        int64       `json:"total_cents"`
	ProviderSessionID string      `json:"provider_session_id"`
	CreatedAt         time.Time   `json:"created_at"`
}
