package utils

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateNanoIDWithPrefix returns a prefixed nano-id, e.g. "rcpt_8x1k...".
func GenerateNanoIDWithPrefix(prefix string, length int) string {
	id, err := gonanoid.Generate(idAlphabet, length)
	if err != nil {
		panic(err)
	}
	return prefix + "_" + id
}

// GenerateEditToken returns an opaque single-use token for fix links.
func GenerateEditToken() string {
	return uuid.NewString()
}
