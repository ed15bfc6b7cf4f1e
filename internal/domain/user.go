package domain

import (
	"encoding/json"
	"time"
)

// User is the identity provider's view of an account. The provider owns
// authentication; this service only reads names and the public metadata blob.
type User struct {
	ID             string
	FirstName      *string
	FullName       *string
	PublicMetadata json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Metadata decodes the public metadata blob with the loose read schema.
func (u User) Metadata() (ProfileMetadata, bool) {
	return ParseProfileMetadata(u.PublicMetadata)
}
