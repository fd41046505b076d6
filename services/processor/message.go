package processor

import (
	"bytes"
	"net/mail"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/receiptops/receiptstack/dto"
	"github.com/receiptops/receiptstack/internal/utils"
)

// ParseInboundMessage turns a raw RFC 5322 message into the pipeline's
// intake shape. Both intake paths buffer the full message before calling
// this, so a parse failure never half-consumes a stream.
func ParseInboundMessage(raw []byte) (*dto.InboundMessage, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse mime message")
	}

	msg := &dto.InboundMessage{
		MessageID: utils.NormalizeMessageID(envelope.GetHeader("Message-Id")),
		Subject:   envelope.GetHeader("Subject"),
		BodyText:  envelope.Text,
	}

	if addr, err := mail.ParseAddress(envelope.GetHeader("From")); err == nil {
		msg.FromAddress = utils.NormalizeEmailAddress(addr.Address)
		msg.FromName = addr.Name
	} else {
		msg.FromAddress = utils.NormalizeEmailAddress(envelope.GetHeader("From"))
	}
	if msg.FromName == "" && msg.FromAddress != "" {
		msg.FromName = utils.LocalPart(msg.FromAddress)
	}

	if addr, err := mail.ParseAddress(envelope.GetHeader("To")); err == nil {
		msg.ToAddress = utils.NormalizeEmailAddress(addr.Address)
	} else {
		msg.ToAddress = utils.NormalizeEmailAddress(envelope.GetHeader("To"))
	}

	for _, part := range envelope.Attachments {
		msg.Attachments = append(msg.Attachments, toAttachmentPart(part))
	}
	// Inline images count too: phone mail clients often embed receipt
	// photos instead of attaching them.
	for _, part := range envelope.Inlines {
		msg.Attachments = append(msg.Attachments, toAttachmentPart(part))
	}

	return msg, nil
}

func toAttachmentPart(part *enmime.Part) dto.AttachmentPart {
	return dto.AttachmentPart{
		Filename:    part.FileName,
		ContentType: strings.ToLower(strings.TrimSpace(part.ContentType)),
		Content:     part.Content,
	}
}
