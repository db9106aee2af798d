package worker

// IndexRequestPayload is the body of an index.request message.
type IndexRequestPayload struct {
	Paths     []string `json:"paths"`
	CreateNew bool     `json:"create_new"`
	Reindex   bool     `json:"reindex"`

	CorrelationID string `json:"correlation_id"`
}
