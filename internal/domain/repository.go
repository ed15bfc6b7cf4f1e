package domain

import (
	"context"
	"encoding/json"
)

// UserDirectory is the identity provider's user-metadata store.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*User, error)
	// UpdatePublicMetadata replaces the whole public metadata blob.
	UpdatePublicMetadata(ctx context.Context, id string, metadata json.RawMessage) error
}
