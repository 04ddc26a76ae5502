package models

// UserRecord is the identity payload captured at OAuth login. It lives in
// the server-side session only; there is no local user table.
type UserRecord struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}
