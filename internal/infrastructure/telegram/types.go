package telegram

import "strconv"

// Update is the messaging platform's standard webhook envelope. Only the
// fields the command interpreter reads are declared.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is one inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// User is the sender profile attached to a message.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// ChatID returns the chat identity as the string form used across the
// subscriber registry.
func (m *Message) ChatID() string {
	return strconv.FormatInt(m.Chat.ID, 10)
}
