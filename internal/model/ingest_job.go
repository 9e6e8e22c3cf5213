package model

// IngestJob is the payload queued for asynchronous ingestion. PDF is the
// raw document bytes (base64 on the wire).
type IngestJob struct {
	FileName string `json:"file_name"`
	PDF      []byte `json:"pdf"`
}
