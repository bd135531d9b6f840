package auth

import "context"

type roleKey struct{}

// ContextKeyRole is exported for tests that need raw context.WithValue.
var ContextKeyRole = roleKey{}

func withRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ContextKeyRole, role)
}

// Role retrieves the authenticated role from the context.
func Role(ctx context.Context) string {
	if role, ok := ctx.Value(ContextKeyRole).(string); ok {
		return role
	}
	return ""
}
