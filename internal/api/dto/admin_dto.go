package dto

import "time"

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Password string `json:"password"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
