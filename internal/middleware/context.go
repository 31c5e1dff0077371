package middleware

import "context"

type userSlotKey struct{}

func withUserSlot(ctx context.Context, slot *userSlot) context.Context {
	return context.WithValue(ctx, userSlotKey{}, slot)
}

// recordUser lets the request logger see who the auth middleware resolved.
func recordUser(ctx context.Context, id string) {
	if slot, ok := ctx.Value(userSlotKey{}).(*userSlot); ok {
		slot.id = id
	}
}
