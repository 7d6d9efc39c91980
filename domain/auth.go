package domain

import "time"

// ClientInfo identifies where a request came from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthResult struct {
	AuthTokens
	User User `json:"user"`
}

const (
	SessionTTL    = 7 * 24 * time.Hour
	ResetTokenTTL = time.Hour
)
