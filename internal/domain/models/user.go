package models

import "time"

// User is a stored account. The system user (IsSystem) is a non-human account
// that owns global configuration.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsAdmin    bool      `json:"is_admin"`
	IsSystem   bool      `json:"is_system"`
	Deleted    bool      `json:"deleted"`
	APIKeyHash *string   `json:"-"`
	WebhookURL *string   `json:"webhook_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasAPIKey reports whether the user enabled API access.
func (u *User) HasAPIKey() bool {
	return u.APIKeyHash != nil && *u.APIKeyHash != ""
}

// Actor returns the principal view of the user used for authorization.
func (u *User) Actor() Actor {
	return Actor{
		ID:        u.ID,
		Name:      u.Name,
		IsSystem:  u.IsSystem,
		IsAdmin:   u.IsAdmin,
		IsDeleted: u.Deleted,
	}
}

// Actor is an authenticated principal on whose behalf an action is evaluated.
// A deleted actor never passes authorization.
type Actor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsSystem  bool   `json:"is_system"`
	IsAdmin   bool   `json:"is_admin"`
	IsDeleted bool   `json:"is_deleted"`
}
