// internal/utils/address.go
package utils

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsValidAddress reports whether s is 0x followed by 40 hex digits. Case is
// not checked against EIP-55.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// NormalizeAddress lower-cases an address for storage and comparison.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeOptionalAddress lower-cases a non-nil address pointer.
func NormalizeOptionalAddress(s *string) *string {
	if s == nil {
		return nil
	}
	n := NormalizeAddress(*s)
	return &n
}

// Keccak256Hex returns the 0x-prefixed legacy Keccak-256 digest of data.
func Keccak256Hex(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// EventTopic is the topic0 of an EVM log for the given event signature,
// e.g. "Transfer(address,address,uint256)".
func EventTopic(signature string) string {
	return Keccak256Hex([]byte(signature))
}

// PadAddressTopic left-pads an address to a 32-byte log topic.
func PadAddressTopic(address string) string {
	clean := strings.TrimPrefix(NormalizeAddress(address), "0x")
	return "0x" + strings.Repeat("0", 64-len(clean)) + clean
}

// TopicToAddress extracts the trailing 20 bytes of a 32-byte topic.
func TopicToAddress(topic string) string {
	clean := strings.TrimPrefix(strings.ToLower(topic), "0x")
	if len(clean) < 40 {
		return ""
	}
	return "0x" + clean[len(clean)-40:]
}

// ChecksumAddress renders an address in EIP-55 mixed case.
func ChecksumAddress(address string) string {
	lower := strings.TrimPrefix(NormalizeAddress(address), "0x")
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(lower))
	digest := hex.EncodeToString(hash.Sum(nil))

	out := []byte(lower)
	for i := range out {
		if out[i] >= 'a' && out[i] <= 'f' && digest[i] >= '8' {
			out[i] -= 'a' - 'A'
		}
	}
	return "0x" + string(out)
}
