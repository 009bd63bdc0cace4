// Package auth models the dashboard user and checks credentials against the
// rows of the login sheet.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	TypeAdmin = "admin"
	TypeUser  = "user"

	// FullAdminUsername is the only account with unrestricted admin rights.
	FullAdminUsername = "admin"
)

type User struct {
	Username    string
	DisplayName string
	UserType    string
	Department  string
}

func (u User) IsAdmin() bool {
	return u.UserType == TypeAdmin
}

func (u User) IsFullAdmin() bool {
	return u.IsAdmin() && u.Username == FullAdminUsername
}

// IsLimitedAdmin is any admin-typed account other than "admin". Limited
// admins see everything but are view-only on privileged actions.
func (u User) IsLimitedAdmin() bool {
	return u.IsAdmin() && !u.IsFullAdmin()
}

func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Username       string `json:"username"`
		DisplayName    string `json:"displayName"`
		UserType       string `json:"userType"`
		Department     string `json:"department,omitempty"`
		IsFullAdmin    bool   `json:"isFullAdmin"`
		IsLimitedAdmin bool   `json:"isLimitedAdmin"`
	}{u.Username, u.DisplayName, u.UserType, u.Department, u.IsFullAdmin(), u.IsLimitedAdmin()})
}

// NormalizeType maps a free-text user type cell onto admin|user.
func NormalizeType(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), TypeAdmin) {
		return TypeAdmin
	}
	return TypeUser
}

// Credential is one row of the login sheet. Password holds either the
// plaintext value or a bcrypt hash.
type Credential struct {
	Username    string
	Password    string
	DisplayName string
	UserType    string
	Department  string
}

// Authenticate scans creds for an exact username and password match. A miss
// is reported as false, never as an error.
func Authenticate(creds []Credential, username, password string) (User, bool) {
	if username == "" || password == "" {
		return User{}, false
	}
	for _, c := range creds {
		if c.Username != username {
			continue
		}
		if !passwordMatches(c.Password, password) {
			continue
		}
		display := c.DisplayName
		if display == "" {
			display = c.Username
		}
		return User{
			Username:    c.Username,
			DisplayName: display,
			UserType:    NormalizeType(c.UserType),
			Department:  c.Department,
		}, true
	}
	return User{}, false
}

func passwordMatches(stored, given string) bool {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

type ctxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}
