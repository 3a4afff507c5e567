package session

import "time"

// Session is the signed-in user as returned by the login endpoint.
type Session struct {
	UserID       int64     `json:"userId"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	SavedAt      time.Time `json:"savedAt"`
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest describes a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Username string `json:"username,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Account is the registration result. Registering does not sign in.
type Account struct {
	UserID   int64  `json:"userId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
