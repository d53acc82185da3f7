package model

import "time"

// Kind is the wire tag stored in a message record's "type" field.
type Kind string

const (
	KindText           Kind = "text"
	KindAttributedText Kind = "attributed_text"
	KindPhoto          Kind = "photo"
	KindVideo          Kind = "video"
	KindLocation       Kind = "location"
	KindEmoji          Kind = "emoji"
	KindAudio          Kind = "audio"
	KindContact        Kind = "contact"
	KindLinkPreview    Kind = "link_preview"
	KindCustom         Kind = "custom"
)

// Message is an outbound message as handed to the sync engine. Only the
// fields matching its Kind are meaningful: Text for KindText, MediaURL for
// KindPhoto. Every other kind serializes with empty content.
type Message struct {
	ID       string
	Kind     Kind
	Text     string
	MediaURL string
	SentAt   time.Time
}

// Content returns the string stored in the record's "content" field.
func (m Message) Content() string {
	switch m.Kind {
	case KindText:
		return m.Text
	case KindPhoto:
		return m.MediaURL
	default:
		return ""
	}
}

// MessageRecord is a single entry of a conversation's message log, as stored
// and as decoded back out of the store.
type MessageRecord struct {
	ID          string    `json:"id"`
	Type        Kind      `json:"type"`
	Content     string    `json:"content"`
	Date        time.Time `json:"date"`
	SenderEmail string    `json:"sender_email"`
	IsRead      bool      `json:"is_read"`
	Name        string    `json:"name"`
}

// MediaURL returns the retrievable URL carried by a photo record. Records of
// any other kind, including video and audio, carry their content as plain
// text and return an empty URL.
func (r MessageRecord) MediaURL() string {
	if r.Type == KindPhoto {
		return r.Content
	}
	return ""
}
