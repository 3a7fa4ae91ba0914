package model

import "time"

// AuthManual is the authentication plugin for accounts created by the service
const AuthManual = "manual"

// User represents a platform user account (the identity backing a panelist)
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Auth      string    `json:"auth"`
	Hash      *string   `json:"-"` // Never expose password hash
	Confirmed bool      `json:"confirmed"`
	Deleted   bool      `json:"deleted"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// IsActive returns true if the account has not been deactivated
func (u *User) IsActive() bool {
	return !u.Deleted
}

// FullName returns the display name of the user
func (u *User) FullName() string {
	if u.Lastname == "" {
		return u.Firstname
	}
	return u.Firstname + " " + u.Lastname
}
