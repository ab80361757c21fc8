package db

import "time"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	IsActive     bool
}

type Image struct {
	ID          int64
	Filename    string
	Caption     string
	Embedding   []byte
	UploadTime  time.Time
	FilePath    string
	FileSize    int64
	ContentType string
}

// EmbeddingRow is the projection used by the similarity search path. Rows are
// always returned in insertion (id) order.
type EmbeddingRow struct {
	ID        int64
	Embedding []byte
}
