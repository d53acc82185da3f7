package model

import "ChatSync/internal/identity"

// Session identifies the caller on every sync engine operation. It replaces
// the ambient "current user" lookup the mobile client used: handlers resolve
// it once from the request and thread it through explicitly.
type Session struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Key returns the storage-safe identity key for the session's email.
func (s Session) Key() string {
	return identity.SafeKey(s.Email)
}

func (s Session) Valid() bool {
	return s.Email != ""
}
