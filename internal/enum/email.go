package enum

type InboundEmailStatus string

const (
	InboundEmailStatusReceived      InboundEmailStatus = "received"
	InboundEmailStatusProcessing    InboundEmailStatus = "processing"
	InboundEmailStatusNoAttachments InboundEmailStatus = "no_attachments"
	InboundEmailStatusProcessed     InboundEmailStatus = "processed"
	InboundEmailStatusError         InboundEmailStatus = "error"
)

func (t InboundEmailStatus) String() string {
	return string(t)
}
