package rawdata

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Payload is a verbatim provider response kept for reprocessing.
type Payload struct {
	Source      string `validate:"required"`
	EntityType  string `validate:"required"`
	EntityKey   string `validate:"required"`
	PayloadJSON []byte `validate:"required"`
	PayloadHash string
	FetchedAt   time.Time
}

// NewPayload hashes body so unchanged snapshots are not rewritten.
func NewPayload(source, entityType, entityKey string, body []byte, fetchedAt time.Time) Payload {
	sum := sha256.Sum256(body)
	return Payload{
		Source:      source,
		EntityType:  entityType,
		EntityKey:   entityKey,
		PayloadJSON: body,
		PayloadHash: hex.EncodeToString(sum[:]),
		FetchedAt:   fetchedAt,
	}
}
