package auth

import "context"

// SetUserIDForTest injects a user ID into the context for testing purposes.
func SetUserIDForTest(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, claimsKey, &Claims{UserID: userID})
}

// SetSessionClaimsForTest injects rejoin-token claims into the context
// for testing purposes.
func SetSessionClaimsForTest(ctx context.Context, userID, sessionID, faction string) context.Context {
	return context.WithValue(ctx, claimsKey, &Claims{UserID: userID, SessionID: sessionID, Faction: faction})
}
