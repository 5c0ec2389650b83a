// Package models defines the account, identity and status types shared by the region server components.
package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Reserved administrator identity. It bypasses the normal field length rules.
const (
	AdminUsername = "Admin"
	AdminPassword = "Admin"
)

// Username and password length limits for player accounts.
const (
	MinUsernameLen = 6
	MaxUsernameLen = 15
	MinPasswordLen = 6
)

// Kind tags an identity as a regular player or the reserved administrator.
type Kind uint8

const (
	// KindPlayer is a regular player account.
	KindPlayer Kind = iota
	// KindAdmin is the reserved region administrator.
	KindAdmin
)

// String returns the lower-case name used in audit messages.
func (k Kind) String() string {
	if k == KindAdmin {
		return "admin"
	}

	return "player"
}

// Credentials is a username/password pair presented by a caller.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Kind reports whether the pair is exactly the reserved administrator pair.
func (c Credentials) Kind() Kind {
	if c.Username == AdminUsername && c.Password == AdminPassword {
		return KindAdmin
	}

	return KindPlayer
}

// ValidUsername reports whether name satisfies the username rules.
// Lengths are counted in characters, not bytes.
func ValidUsername(name string) bool {
	if name == AdminUsername {
		return true
	}

	n := utf8.RuneCountInString(name)
	return n >= MinUsernameLen && n <= MaxUsernameLen
}

// ValidPassword reports whether password satisfies the password rules.
func ValidPassword(password string) bool {
	return password == AdminPassword || utf8.RuneCountInString(password) >= MinPasswordLen
}

// AccountFields carries everything needed to create an account.
type AccountFields struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	IPAddress string `json:"ip_address"`
	Age       int    `json:"age"`
}

// Account is a player or administrator record owned by one region registry.
// Online is the only field mutated after creation.
type Account struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Password  string `json:"-"`
	IPAddress string `json:"ip_address"`
	Age       int    `json:"age"`
	Kind      Kind   `json:"kind"`
	Online    bool   `json:"online"`
}

// NewAccount builds an offline account from fields. The administrator kind is
// assigned only to the exact reserved pair.
func NewAccount(f AccountFields) Account {
	return Account{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Username:  f.Username,
		Password:  f.Password,
		IPAddress: f.IPAddress,
		Age:       f.Age,
		Kind:      Credentials{Username: f.Username, Password: f.Password}.Kind(),
	}
}

// StatusReport is the online/offline tally of one region's non-administrator accounts.
type StatusReport struct {
	Region  string `json:"region"`
	Online  int    `json:"online"`
	Offline int    `json:"offline"`
}

// String renders the report in the inter-region wire format.
func (r StatusReport) String() string {
	return fmt.Sprintf("%s: Online: %d Offline: %d", r.Region, r.Online, r.Offline)
}

// AuditEntry is one persisted audit record.
type AuditEntry struct {
	CreatedAt   time.Time `json:"created_at"`
	Region      string    `json:"region"`
	Source      string    `json:"source"`
	CountryCode string    `json:"country_code,omitempty"`
	Message     string    `json:"message"`
	ID          int64     `json:"id"`
}

// SessionRequest is the control-surface payload for sign-in, sign-out and status calls.
// IPAddress is optional; the caller's address is used when it is empty.
type SessionRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}
