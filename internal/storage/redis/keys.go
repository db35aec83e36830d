package redis

import (
	"fmt"

	"github.com/mcoot/noughts/internal/model"
)

// Key prefix for all server data
const keyPrefix = "noughts"

// credentialsKey returns the Redis key for the HASH of fingerprint -> display name
func credentialsKey() string {
	return fmt.Sprintf("%s:credentials", keyPrefix)
}

// claimKey returns the Redis key holding the connection that claimed a secret
func claimKey(fingerprint string) string {
	return fmt.Sprintf("%s:claim:%s", keyPrefix, fingerprint)
}

// claimPattern matches every claim key
func claimPattern() string {
	return fmt.Sprintf("%s:claim:*", keyPrefix)
}

// sessionKey returns the Redis key for a GameSession
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// sessionsIndexKey returns the Redis key for the SET of live session IDs
func sessionsIndexKey() string {
	return fmt.Sprintf("%s:idx:sessions", keyPrefix)
}
