package dto

import "time"

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

// CustomerLoginRequest payload.
type CustomerLoginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

// CustomerRegisterRequest payload for self-registration.
type CustomerRegisterRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

// PINChangeRequest payload for authenticated PIN changes.
type PINChangeRequest struct {
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProviderSessionResponse mirrors the hosted provider session returned
// alongside the service token.
type ProviderSessionResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
