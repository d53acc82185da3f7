// Package identity derives storage-safe keys and blob file names from user
// emails. Keys are used as path segments in the tree store, so every
// character reserved by path syntax must be escaped the same way everywhere.
package identity

import (
	"fmt"
	"strings"
	"time"
)

// SafeKey escapes an email address into a storage-safe key by replacing
// every '.' and '@' with '-'. Applying it to an already-safe key is a no-op.
func SafeKey(email string) string {
	safe := strings.ReplaceAll(email, ".", "-")
	return strings.ReplaceAll(safe, "@", "-")
}

// ProfilePictureFileName returns the blob store file name for a user's
// profile picture.
func ProfilePictureFileName(email string) string {
	return SafeKey(email) + "_profile_picture.png"
}

// PhotoMessageFileName returns the blob store file name for a photo attached
// to the message with the given id.
func PhotoMessageFileName(messageID string) string {
	return "photo_message_" + messageID + ".png"
}

// MessageID builds a client-generated message identifier from the two
// participants and the send time. Two messages from the same pair within the
// same nanosecond collide; callers that need stronger uniqueness append
// their own suffix.
func MessageID(otherKey, selfKey string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s", SafeKey(otherKey), SafeKey(selfKey), at.UTC().Format(time.RFC3339Nano))
}
