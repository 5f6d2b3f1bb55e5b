package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Token returns the hex SHA-256 of kind|subject|t. The same inputs always give the same token.
func Token(kind, subject string, t time.Time) string {
	sum := sha256.Sum256([]byte(kind + "|" + subject + "|" + t.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}

func dataHash(dataID string) string {
	sum := sha256.Sum256([]byte(dataID))
	return hex.EncodeToString(sum[:])
}
