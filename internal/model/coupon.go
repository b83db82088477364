package model

import "time"

type Coupon struct {
	ID                 string    `json:"id"`
	Code               string    `json:"code"`
	UserID             string    `json:"user_id"`
	DiscountPercentage int       `json:"discount_percentage"`
	ExpirationDate     time.Time `json:"expiration_date"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

// Expired reports whether the coupon expiration has passed at the given
// instant.
func (c Coupon) Expired(now time.Time) bool {
	return c.ExpirationDate.Before(now)
}
