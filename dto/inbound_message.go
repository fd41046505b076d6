package dto

// AttachmentPart is one MIME part of an inbound message, as declared by the
// sender. Content type is taken from the part header, never sniffed.
type AttachmentPart struct {
	Filename    string
	ContentType string
	Content     []byte
}

// InboundMessage is the parsed, ephemeral form of a raw inbound email. Both
// intake paths (SMTP listener, IMAP poller) produce this shape before handing
// off to the processing pipeline.
type InboundMessage struct {
	MessageID   string
	FromAddress string
	FromName    string
	ToAddress   string
	Subject     string
	BodyText    string
	Attachments []AttachmentPart
}
