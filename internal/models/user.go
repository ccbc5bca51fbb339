package models

import "time"

// User represents a Telegram user known to the mini-app. Rows are created on
// first successful login (full profile) or on the first API call referencing
// an unknown Telegram id (bare profile), and are never deleted.
type User struct {
	ID         int64     `json:"id" db:"id"`
	TelegramID string    `json:"telegram_id" db:"telegram_id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	Username   string    `json:"username" db:"username"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the user's full name
func (u *User) FullName() string {
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

// DisplayName returns the best display name for the user
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FullName()
}
