package models

import "time"

type User struct {
	ID       string
	Username string
	Email    string
	// Password holds the argon2id hash for local accounts
	// and is empty for accounts created through Google OAuth.
	Password      string
	GoogleSubject string
	IsActive      bool
	CreatedAt     time.Time
	LastLogin     *time.Time
}
