package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(kind|mint|actor|distribution|timestamp|sequence)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(
	kind string,
	mint string,
	actor string,
	distribution string,
	timestamp int64,
	sequence uint64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d|%d",
		kind,
		mint,
		actor,
		distribution,
		timestamp,
		sequence,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
