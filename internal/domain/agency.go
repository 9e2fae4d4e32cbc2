package domain

import "time"

// Agency represents a reseller that owns one or more connected stores.
type Agency struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	APIKey    string    `json:"api_key" bson:"api_key"`
	Notes     string    `json:"notes,omitempty" bson:"notes"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
