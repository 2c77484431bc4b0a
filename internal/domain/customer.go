package domain

import "time"

// Customer is a registered shopper.
type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity describes the caller of a request. Exactly one of UserID and GuestID is set.
type Identity struct {
	UserID  string `json:"userId,omitempty"`
	GuestID string `json:"guestId,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}

// Authenticated reports whether the caller is a signed-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
