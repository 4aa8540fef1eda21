// Package session carries the authenticated caller through a request.
//
// Services never look the caller up themselves. Handlers pull the Identity
// out of the request context and pass it explicitly; a nil *Identity means
// nobody is logged in.
package session

import "context"

type Identity struct {
	UserID      string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	AccessToken string `json:"-"`
}

type contextKey string

const identityKey contextKey = "identity"

func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the caller stored by the auth middleware, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}
