package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmailAddress(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmailAddress(" <Alice@Example.COM> "))
	assert.Equal(t, "bob@example.com", NormalizeEmailAddress("bob@example.com"))
	assert.Equal(t, "", NormalizeEmailAddress(""))
}

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "alice", LocalPart("Alice@Example.com"))
	assert.Equal(t, "", LocalPart("not-an-address"))
	assert.Equal(t, "", LocalPart("too@many@ats"))
}

func TestNormalizeMessageID(t *testing.T) {
	assert.Equal(t, "abc@mail.example.com", NormalizeMessageID("<abc@mail.example.com>"))
	assert.Equal(t, "abc@mail.example.com", NormalizeMessageID("  abc@mail.example.com "))
	assert.Equal(t, "", NormalizeMessageID(""))
}

func TestGetFileExtensionFromContentType(t *testing.T) {
	assert.Equal(t, ".jpg", GetFileExtensionFromContentType("image/jpeg"))
	assert.Equal(t, ".jpg", GetFileExtensionFromContentType("IMAGE/JPEG"))
	assert.Equal(t, ".pdf", GetFileExtensionFromContentType("application/pdf"))
	assert.Equal(t, ".bin", GetFileExtensionFromContentType("application/zip"))
}
