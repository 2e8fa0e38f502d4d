package vectorstore

import "errors"

var (
	ErrQdrantUnreachable = errors.New("qdrant server unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrLengthMismatch    = errors.New("chunk and vector counts differ")
	ErrIndexClosed       = errors.New("index is closed")
)
