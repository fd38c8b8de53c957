// Package security implements the guest-side embedding check.
//
// A guest runs the check exactly once at startup, before any protocol
// traffic. Failure is fail-closed: the guest locks out for the rest of its
// lifetime and neither emits nor accepts envelopes.
package security

import (
	"errors"
	"strings"
)

// DefaultAllowedDomains is the embedder allow-list used when the guest
// supplies none.
var DefaultAllowedDomains = []string{"pixeljamarcade.com"}

// ErrUntrustedEmbedder is returned when the embedding page is not on the
// allow-list.
var ErrUntrustedEmbedder = errors.New("security: untrusted embedding origin")

// Validator decides whether a guest may talk to its embedder.
type Validator struct {
	allowed []string
}

// New builds a validator over a domain-suffix allow-list. An empty list
// falls back to DefaultAllowedDomains.
func New(allowedDomains []string) *Validator {
	if len(allowedDomains) == 0 {
		allowedDomains = DefaultAllowedDomains
	}
	return &Validator{allowed: allowedDomains}
}

// Validate applies the embedding rules: with no referrer the guest must be
// running on localhost; otherwise the referrer must contain at least one
// allow-listed domain. Anything else fails.
func (v *Validator) Validate(referrer, hostname string) error {
	if referrer == "" {
		if hostname == "localhost" {
			return nil
		}
		return ErrUntrustedEmbedder
	}
	for _, domain := range v.allowed {
		if domain != "" && strings.Contains(referrer, domain) {
			return nil
		}
	}
	return ErrUntrustedEmbedder
}

// LockoutNotice is the fixed text shown in place of guest content after a
// failed check.
func LockoutNotice() string {
	return "This game can only be played on an authorized site."
}
