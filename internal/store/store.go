package store

import "context"

// Snapshot is the serialized form of one tenant collection.
type Snapshot struct {
	Key  string
	Data []byte
}

// Repository persists whole-collection snapshots per tenant. SaveCollections
// must apply every snapshot or none of them. An unknown tenant loads as an
// empty map.
type Repository interface {
	LoadCollections(ctx context.Context, tenantID string) (map[string][]byte, error)
	SaveCollections(ctx context.Context, tenantID string, snapshots []Snapshot) error
	Ping(ctx context.Context) error
	Close() error
}
