package record

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainRecord separates record digests from any other hash computed over
// the same bytes. The version suffix allows a future algorithm change.
const DomainRecord = "lotetrace/record/v1"

// Digest returns the hex SHA-256 of a stored value with domain separation:
// SHA256(domain + 0x00 + data).
func Digest(data []byte) string {
	h := sha256.New()
	h.Write([]byte(DomainRecord))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
