package models

// TokenResponse is returned when a reporting user is registered
type TokenResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
