package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for changing the hashed layout.
const (
	DomainRecompute = "calculate/recompute/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps domain and data unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID of a recompute event.
// Every field except ID contributes, so the same recomputation at the same
// sequence number always hashes to the same value.
func EventID(e Event) (string, error) {
	canonical, err := MarshalCanonical(e.content())
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecompute, canonical), nil
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(e Event) string {
	id, err := EventID(e)
	if err != nil {
		panic(err)
	}
	return id
}
