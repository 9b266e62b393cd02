// Package id generates and manipulates posting reference ids.
package id

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

const reversalPrefix = "rev-"

// NewReference returns a fresh reference id for a posting whose caller did
// not supply one. ULIDs sort by creation time, which keeps reference listings
// roughly chronological.
func NewReference() string {
	return "TXN-" + ulid.Make().String()
}

// ReversalReference derives the reference id for the mirrored leg set that
// reverses ref. The original stays recoverable via Original.
func ReversalReference(ref string) string {
	return reversalPrefix + ref
}

// IsReversal reports whether ref identifies a reversal set.
func IsReversal(ref string) bool {
	return strings.HasPrefix(ref, reversalPrefix)
}

// Original returns the reference a reversal points back to.
// Original("rev-TXN-x") -> ("TXN-x", true).
func Original(ref string) (string, bool) {
	if !IsReversal(ref) {
		return "", false
	}
	return strings.TrimPrefix(ref, reversalPrefix), true
}
