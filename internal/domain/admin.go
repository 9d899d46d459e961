package domain

import "time"

// Admin is the domain model for back-office operators.
type Admin struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
