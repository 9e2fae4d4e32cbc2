package domain

import "time"

// Subscriber binds one chat identity to the store it currently receives
// order notifications for. A chat ID has at most one binding; re-linking
// to another store overwrites the row in place.
type Subscriber struct {
	ID        string    `json:"id" bson:"_id"`
	StoreID   string    `json:"store_id" bson:"store_id"`
	ChatID    string    `json:"chat_id" bson:"chat_id"`
	FirstName string    `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty" bson:"last_name,omitempty"`
	Username  string    `json:"username,omitempty" bson:"username,omitempty"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// SubscriberProfile carries the display fields captured from the chat
// platform when a subscriber links.
type SubscriberProfile struct {
	FirstName string
	LastName  string
	Username  string
}
