// Package session resolves the opaque per-client token that scopes upload
// ownership. The token is not an authentication credential; it only filters
// which index entries a client can see.
package session

import "github.com/google/uuid"

// CookieName is the client-side cookie carrying the session token.
const CookieName = "gallery_session"

// Resolve returns the session ID for a request token. An absent or
// syntactically invalid token yields a freshly minted UUID and isNew=true,
// signalling the caller to persist it on the client.
func Resolve(requestToken string) (id string, isNew bool) {
	if requestToken != "" {
		if _, err := uuid.Parse(requestToken); err == nil {
			return requestToken, false
		}
	}
	return uuid.NewString(), true
}
