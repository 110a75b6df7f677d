package domain

import "time"

type CartAction string

const (
	ActionNone    CartAction = "none"
	ActionAdded   CartAction = "added"
	ActionRemoved CartAction = "removed"
)

// CartEvent announces a committed cart mutation to other storefront
// instances. Origin identifies the publishing instance.
type CartEvent struct {
	UserID     string     `json:"user_id"`
	Action     CartAction `json:"action"`
	ProductID  string     `json:"product_id"`
	EntryID    string     `json:"entry_id"`
	Origin     string     `json:"origin"`
	OccurredAt time.Time  `json:"occurred_at"`
}
