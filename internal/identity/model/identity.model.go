package model

import "time"

type Profile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department *string   `json:"department,omitempty"`
	Position   *string   `json:"position,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Me is the caller as reported by the identity service, plus the optional
// profile fields kept in the users table.
type Me struct {
	ID         string  `json:"id"`
	Email      string  `json:"email,omitempty"`
	Name       string  `json:"name,omitempty"`
	Department *string `json:"department,omitempty"`
	Position   *string `json:"position,omitempty"`
}

// Account is what the identity service reports about a signed-in or newly
// registered user. AccessToken is empty when sign-up needs email
// confirmation before a session is issued.
type Account struct {
	ID           string
	Email        string
	Name         string
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

func NewSessionResponse(a *Account) SessionResponse {
	return SessionResponse{
		UserID:       a.ID,
		Email:        a.Email,
		Name:         a.Name,
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		ExpiresAt:    a.ExpiresAt,
	}
}
