package config

const (
	// TopicIndexRequest is the NSQ topic carrying indexing run requests.
	TopicIndexRequest = "index.request"

	// ChannelIndexer is the consumer channel for the indexing worker.
	ChannelIndexer = "indexer"
)
