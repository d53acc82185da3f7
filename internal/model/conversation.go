package model

import "time"

// ConversationSummary is the denormalized conversation entry kept under each
// participant's user node. Two copies exist per conversation, one per
// participant, and both are rewritten whenever a message is sent.
type ConversationSummary struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	OtherUserEmail string        `json:"other_user_email"`
	LatestMessage  LatestMessage `json:"latest_message"`
}

// LatestMessage is the preview projection of a conversation's most recent
// message.
type LatestMessage struct {
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
	IsRead  bool      `json:"is_read"`
}
