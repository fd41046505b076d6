package utils

import (
	"strings"
)

// NormalizeEmailAddress lower-cases and strips angle brackets from an address.
func NormalizeEmailAddress(address string) string {
	address = strings.TrimSpace(address)
	address = strings.TrimPrefix(address, "<")
	address = strings.TrimSuffix(address, ">")
	return strings.ToLower(strings.TrimSpace(address))
}

// LocalPart returns the part of the address before the @, empty when malformed.
func LocalPart(address string) string {
	parts := strings.Split(NormalizeEmailAddress(address), "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[0]
}
