// Package identity derives stable content hashes for project records.
package identity

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// idLength is the number of hex characters kept from the digest
const idLength = 16

// RecordID hashes the identifying parts of a record. The same parts in the
// same order always produce the same id, across runs and processes.
func RecordID(parts ...string) string {
	h, _ := blake2b.New256(nil)
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(strings.TrimSpace(p)))
	}
	return hex.EncodeToString(h.Sum(nil))[:idLength]
}
