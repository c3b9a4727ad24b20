package ctxutil

import "context"

type callerKey struct{}

// Caller is the authenticated identity attached by the auth middleware.
// Handlers read it once and pass the ids explicitly to services.
type Caller struct {
	UserID string
	Role   string
}

func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func GetCaller(ctx context.Context) *Caller {
	if ctx == nil {
		return nil
	}
	if c, ok := ctx.Value(callerKey{}).(*Caller); ok {
		return c
	}
	return nil
}
