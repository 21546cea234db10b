package domain

import "time"

// DocumentChunk is a fixed-size slice of the source document plus its embedding.
type DocumentChunk struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// StoredEmbedding carries an embedding as read back from storage. Native
// vector columns populate Vector; legacy rows hold a JSON-encoded Encoded value.
type StoredEmbedding struct {
	Vector  []float32
	Encoded string
}

// StoredChunk is the projection returned by a full chunk scan.
type StoredChunk struct {
	ID        string
	Content   string
	Embedding StoredEmbedding
}

// IngestionJob is the queue payload that asks a worker to ingest a stored document.
type IngestionJob struct {
	ID          string    `json:"id"`
	SourceKey   string    `json:"source_key"`
	ChunkSize   int       `json:"chunk_size,omitempty"`
	Reset       bool      `json:"reset,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

type IngestionRequest struct {
	SourceKey string
	ChunkSize int
	Reset     bool
}

type IngestionReport struct {
	ChunkIDs    []string  `json:"chunk_ids"`
	Dimensions  int       `json:"dimensions"`
	Removed     int64     `json:"removed"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
