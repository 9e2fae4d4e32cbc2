package domain

import "time"

// Store represents one connected shop. The integration ID is the opaque
// identifier the storefront platform stamps on every webhook it sends for
// the shop; the link code is the short code operators type into the bot to
// subscribe. Both are unique and never change after creation.
type Store struct {
	ID            string    `json:"id" bson:"_id"`
	AgencyID      string    `json:"agency_id" bson:"agency_id"`
	Name          string    `json:"name" bson:"name"`
	IntegrationID string    `json:"integration_id" bson:"integration_id"`
	LinkCode      string    `json:"link_code" bson:"link_code"`
	AccessToken   string    `json:"-" bson:"access_token,omitempty"`
	WebhookID     string    `json:"webhook_id,omitempty" bson:"webhook_id,omitempty"`
	Active        bool      `json:"active" bson:"active"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// StoreWithCount is a Store annotated with its active subscriber count,
// used by the admin listing.
type StoreWithCount struct {
	Store
	AgencyName      string `json:"agency_name,omitempty"`
	SubscriberCount int64  `json:"subscriber_count"`
}
