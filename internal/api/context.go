package api

import "context"

type contextKey string

const userIDKey contextKey = "userID"

// UserIDFromContext extracts the user ID set by the auth middleware.
// Returns empty string if not present.
func UserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}

	return ""
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
