package auth

import "context"

type clientIDKey struct{}

// WithClientID attaches the authenticated client id to ctx.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// GetClientID returns the authenticated client id, or "" for anonymous requests.
func GetClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey{}).(string)
	return id
}
