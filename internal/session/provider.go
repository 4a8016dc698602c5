// Package session talks to the hosted identity/session provider. Identities
// there are keyed by a synthesized email-like address derived from the phone
// number, with the PIN as password equivalent. The provider is independently
// writable, so its view of the secret can drift from the credential store;
// callers must treat drift as expected.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdentityNotFound indicates no provider identity exists for the address.
	ErrIdentityNotFound = errors.New("session provider: identity not found")
	// ErrInvalidSecret indicates the provider rejected the password
	// equivalent, i.e. it has drifted from the internal PIN.
	ErrInvalidSecret = errors.New("session provider: invalid secret")
	// ErrUnavailable indicates the provider could not be reached or answered
	// with an unexpected failure.
	ErrUnavailable = errors.New("session provider: unavailable")
)

// Identity is a provider-owned identity record.
type Identity struct {
	ID      string
	Address string
}

// Session is an issued provider session.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Identity     Identity
}

// Provider is the hosted collaborator surface this service depends on.
type Provider interface {
	// SignIn establishes a session for the address/secret pair.
	SignIn(ctx context.Context, address, secret string) (*Session, error)
	// CreateIdentity provisions a pre-verified identity.
	CreateIdentity(ctx context.Context, address, secret string) (*Identity, error)
	// FindIdentity looks an identity up by address.
	FindIdentity(ctx context.Context, address string) (*Identity, error)
	// UpdateSecret replaces the identity's password equivalent.
	UpdateSecret(ctx context.Context, identityID, secret string) error
	// DeleteIdentity removes the identity. Deleting an identity that no
	// longer exists is not an error.
	DeleteIdentity(ctx context.Context, identityID string) error
}

// SynthesizeAddress builds the provider address for a phone number.
func SynthesizeAddress(phone, domain string) string {
	return phone + "@" + domain
}
