// Package auth resolves the caller's identity. Authentication itself
// (sessions, tokens, password checks) happens upstream; this package only
// exposes the identity and shipping snapshot the core needs.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrUnauthorized is returned when no valid identity accompanies the
// request.
var ErrUnauthorized = errors.New("unauthorized")

// ShippingInfo is the user's shipping profile as known at request time.
type ShippingInfo struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// User is the caller's identity snapshot.
type User struct {
	ID       uint          `json:"id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Admin    bool          `json:"admin"`
	Shipping *ShippingInfo `json:"shipping,omitempty"`
}

// Provider resolves the current user for a request.
type Provider interface {
	CurrentUser(r *http.Request) (*User, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(r *http.Request) (*User, error)

func (f ProviderFunc) CurrentUser(r *http.Request) (*User, error) {
	return f(r)
}

// UserHeader carries the authenticated identity, set by the gateway after
// it validates the session.
const UserHeader = "X-Gateway-User"

// HeaderProvider trusts the gateway-injected identity header. The service
// runs behind the gateway; requests without the header are unauthorized.
type HeaderProvider struct{}

func (HeaderProvider) CurrentUser(r *http.Request) (*User, error) {
	raw := r.Header.Get(UserHeader)
	if raw == "" {
		return nil, ErrUnauthorized
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, ErrUnauthorized
	}
	if user.ID == 0 {
		return nil, ErrUnauthorized
	}
	return &user, nil
}
