package utils

import "time"

const revokedPrefix = "session:revoked:"

// RevokeToken marks a session token id as logged out until the token would have expired anyway.
func RevokeToken(tokenID string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if tokenID == "" || ttl <= 0 {
		return
	}
	if err := kvSet(revokedPrefix+tokenID, "1", ttl); err != nil {
		Sugar.Warnw("revoke token failed", "jti", tokenID, "error", err)
	}
}

// IsTokenRevoked reports whether the token id was logged out. Redis errors read as not revoked.
func IsTokenRevoked(tokenID string) bool {
	_, ok := kvGet(revokedPrefix + tokenID)
	return ok
}
