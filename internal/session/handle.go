package session

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeStageHandle computes a stable stage handle from the root layer
// identifier. The handle names the session file and is what users pass to
// stage-scoped commands.
func ComputeStageHandle(rootIdentifier string) string {
	hash := sha256.Sum256([]byte(rootIdentifier))
	return hex.EncodeToString(hash[:])[:12]
}
