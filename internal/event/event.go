package event

import (
	"encoding/json"

	"ChatSync/internal/model"
)

const (
	// client -> server
	EventClientMessage = "client_message"

	// server -> client
	EventMessagesSnapshot      = "messages_snapshot"
	EventConversationsSnapshot = "conversations_snapshot"
	EventError                 = "error"
)

type WsEvent struct {
	Event   string          `json:"event"`
	Room    string          `json:"room"`
	Message json.RawMessage `json:"message"`
}

// ClientMessage is the payload of an EventClientMessage. FileLink is set for
// photo messages whose image was uploaded over the REST surface first.
type ClientMessage struct {
	Type           string `json:"type"`
	Body           string `json:"body"`
	FileLink       string `json:"fileLink"`
	OtherUserEmail string `json:"otherUserEmail"`
	Name           string `json:"name"`
}

// MessagesSnapshot carries the full decoded message log of a conversation.
type MessagesSnapshot struct {
	ConversationID string                `json:"conversationId"`
	Messages       []model.MessageRecord `json:"messages"`
}

// ConversationsSnapshot carries the full decoded conversation list of a user.
type ConversationsSnapshot struct {
	UserKey       string                      `json:"userKey"`
	Conversations []model.ConversationSummary `json:"conversations"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
