package enum

type ReceiptStatus string

const (
	ReceiptStatusPending    ReceiptStatus = "pending"
	ReceiptStatusProcessing ReceiptStatus = "processing"
	ReceiptStatusProcessed  ReceiptStatus = "processed"
	ReceiptStatusError      ReceiptStatus = "error"
)

func (t ReceiptStatus) String() string {
	return string(t)
}

type SyncResult string

const (
	SyncResultCreated       SyncResult = "created"
	SyncResultAlreadyExists SyncResult = "already_exists"
	SyncResultFailed        SyncResult = "failed"
)

func (t SyncResult) String() string {
	return string(t)
}
