package event

type Type string

const (
	TypeOrderCreated   Type = "order.created"
	TypeCouponGranted  Type = "coupon.granted"
	TypeCouponRedeemed Type = "coupon.redeemed"
	TypeProductCreated Type = "product.created"
	TypeProductUpdated Type = "product.updated"
	TypeProductDeleted Type = "product.deleted"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"` // Who triggered the event
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
