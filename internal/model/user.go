package model

import "ChatSync/internal/identity"

// User is an account record, keyed in the store by its safe email.
type User struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u User) SafeEmail() string {
	return identity.SafeKey(u.Email)
}

func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

func (u User) ProfilePictureFileName() string {
	return identity.ProfilePictureFileName(u.Email)
}

// DirectoryEntry is one row of the global "users" directory used for user
// search.
type DirectoryEntry struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
