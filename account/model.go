// Package account implements the authenticated user's profile: the /account
// endpoints and a cached state container mutated in place after server
// confirmation.
package account

// Account is the authenticated user's profile.
type Account struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Avatar             *string `json:"avatar"`
	DateCreated        string  `json:"date_created"`
	LastPasswordChange string  `json:"last_password_change"`
}

// AvatarResult is the response of avatar change/removal.
type AvatarResult struct {
	ID     string `json:"id"`
	Avatar string `json:"avatar"`
}

// PasswordChange is the payload for changing the password while logged in.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
