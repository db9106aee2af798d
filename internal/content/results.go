package content

// UpsertResult reports a bulk chunk write: how many of the submitted records
// the index accepted.
type UpsertResult struct {
	Succeeded int `json:"succeeded"`
	Total     int `json:"total"`
}

// DeleteResult reports a delete-by-source. Zero matches is a successful
// no-op, not an error.
type DeleteResult struct {
	DeletedCount int `json:"deleted_count"`
	FailedCount  int `json:"failed_count"`
}
