package processor

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestMessage(t *testing.T) []byte {
	t.Helper()

	payload := base64.StdEncoding.EncodeToString([]byte("fake-jpeg-bytes"))
	raw := strings.Join([]string{
		"From: Alice Example <Alice@Example.com>",
		"To: <receipts@company.example>",
		"Subject: Lunch receipt",
		"Message-Id: <abc123@mail.example.com>",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="XYZ"`,
		"",
		"--XYZ",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Receipt attached.",
		"--XYZ",
		"Content-Type: image/jpeg",
		`Content-Disposition: attachment; filename="lunch.jpg"`,
		"Content-Transfer-Encoding: base64",
		"",
		payload,
		"--XYZ--",
		"",
	}, "\r\n")
	return []byte(raw)
}

func TestParseInboundMessage(t *testing.T) {
	msg, err := ParseInboundMessage(buildTestMessage(t))
	require.NoError(t, err)

	assert.Equal(t, "abc123@mail.example.com", msg.MessageID)
	assert.Equal(t, "alice@example.com", msg.FromAddress)
	assert.Equal(t, "Alice Example", msg.FromName)
	assert.Equal(t, "receipts@company.example", msg.ToAddress)
	assert.Equal(t, "Lunch receipt", msg.Subject)
	assert.Contains(t, msg.BodyText, "Receipt attached.")

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "lunch.jpg", msg.Attachments[0].Filename)
	assert.Equal(t, "image/jpeg", msg.Attachments[0].ContentType)
	assert.Equal(t, []byte("fake-jpeg-bytes"), msg.Attachments[0].Content)
}

func TestParseInboundMessage_InlineImageCounts(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("inline-png"))
	raw := strings.Join([]string{
		"From: bob@example.com",
		"Subject: photo",
		"MIME-Version: 1.0",
		`Content-Type: multipart/related; boundary="ABC"`,
		"",
		"--ABC",
		"Content-Type: text/plain",
		"",
		"here",
		"--ABC",
		"Content-Type: image/png",
		`Content-Disposition: inline; filename="photo.png"`,
		"Content-Transfer-Encoding: base64",
		"",
		payload,
		"--ABC--",
		"",
	}, "\r\n")

	msg, err := ParseInboundMessage([]byte(raw))
	require.NoError(t, err)

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "photo.png", msg.Attachments[0].Filename)
}

func TestParseInboundMessage_BareFromFallsBackToLocalPart(t *testing.T) {
	raw := strings.Join([]string{
		"From: carol@example.com",
		"Subject: receipt",
		"Content-Type: text/plain",
		"",
		"no attachments",
		"",
	}, "\r\n")

	msg, err := ParseInboundMessage([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "carol@example.com", msg.FromAddress)
	assert.Equal(t, "carol", msg.FromName)
	assert.Empty(t, msg.Attachments)
}
