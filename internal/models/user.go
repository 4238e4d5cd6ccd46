// Package models contains data structures for the application's domain models.
package models

import (
	"slices"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SessionToken is one active login held by a user.
type SessionToken struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issuedAt"`
}

// User is a registered account together with its active sessions.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;not null;size:64" json:"username"`
	Email     string         `gorm:"uniqueIndex;not null;size:254" json:"email"`
	FullName  string         `json:"fullname,omitempty"`
	Password  string         `gorm:"not null" json:"-"`
	Tokens    []SessionToken `gorm:"type:text;serializer:json" json:"-"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// SetPassword replaces the stored hash with a bcrypt hash of plain.
// A zero cost selects bcrypt.DefaultCost.
func (u *User) SetPassword(plain string, cost int) error {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// AddToken records a newly issued session token.
func (u *User) AddToken(token string, issuedAt time.Time) {
	u.Tokens = append(u.Tokens, SessionToken{Token: token, IssuedAt: issuedAt})
}

// HasToken reports whether token is still an active session.
func (u *User) HasToken(token string) bool {
	return slices.ContainsFunc(u.Tokens, func(t SessionToken) bool { return t.Token == token })
}

// RemoveToken revokes a single session. It reports whether the token was present.
func (u *User) RemoveToken(token string) bool {
	before := len(u.Tokens)
	u.Tokens = slices.DeleteFunc(u.Tokens, func(t SessionToken) bool { return t.Token == token })
	return len(u.Tokens) != before
}

// ClearTokens revokes every session.
func (u *User) ClearTokens() {
	u.Tokens = []SessionToken{}
}
