package domain

import "time"

// DeliveryLogEntry is an append-only record of one successfully sent
// order notification. Entries are never updated; they only feed the
// aggregate stats on the admin surface.
type DeliveryLogEntry struct {
	ID           string    `json:"id" bson:"_id"`
	SubscriberID string    `json:"subscriber_id" bson:"subscriber_id"`
	StoreID      string    `json:"store_id" bson:"store_id"`
	OrderNumber  string    `json:"order_number" bson:"order_number"`
	OrderTotal   float64   `json:"order_total" bson:"order_total"`
	SentAt       time.Time `json:"sent_at" bson:"sent_at"`
}

// DeliveryStats aggregates the delivery log for the dashboard.
// RevenueExcludingTest leaves out orders whose number carries the
// TEST prefix merchants use for trial purchases.
type DeliveryStats struct {
	Notifications        int64   `json:"notifications"`
	Revenue              float64 `json:"revenue"`
	RevenueExcludingTest float64 `json:"revenue_excluding_test"`
}
