package domain

import "time"

// Account models one registered user. Salt and digest are set together at
// creation and never serialized.
type Account struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordSalt   []byte    `json:"-"`
	PasswordDigest []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Identity returns the public part of the account.
func (a *Account) Identity() *Identity {
	return &Identity{ID: a.ID, Username: a.Username}
}

// Identity is what registration hands back to the caller.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Claims are the identity facts carried by a verified token.
type Claims struct {
	AccountID string    `json:"id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	AccountID string
	Username  string
}
