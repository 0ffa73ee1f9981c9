package entity

import "time"

// ReadingBatchMessage is the queue payload carrying submitted readings
// from the API to the ingest worker.
type ReadingBatchMessage struct {
	BatchID     string          `json:"batch_id"`
	Source      string          `json:"source"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Readings    []SensorReading `json:"readings"`
}

// BatchReceipt is returned to the submitter once a batch is queued.
type BatchReceipt struct {
	BatchID  string `json:"batch_id"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
}

// ReportLink points at the most recent archived compliance report.
type ReportLink struct {
	Key string `json:"report_key"`
	URL string `json:"url"`
}
