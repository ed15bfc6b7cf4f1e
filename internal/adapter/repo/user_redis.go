package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"inksynth/internal/domain"
)

// DefaultRedisKeyPrefix namespaces user documents.
const DefaultRedisKeyPrefix = "inksynth:"

const maxWatchRetries = 5

// userDocument is the JSON stored per user key.
type userDocument struct {
	ID             string          `json:"id"`
	FirstName      *string         `json:"firstName,omitempty"`
	FullName       *string         `json:"fullName,omitempty"`
	PublicMetadata json.RawMessage `json:"publicMetadata,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (d userDocument) user() *domain.User {
	return &domain.User{
		ID:             d.ID,
		FirstName:      d.FirstName,
		FullName:       d.FullName,
		PublicMetadata: d.PublicMetadata,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// UserDirectoryRedis keeps one JSON document per user in Redis.
type UserDirectoryRedis struct {
	client    *redis.Client
	keyPrefix string
	now       func() time.Time
}

// NewUserDirectoryRedis creates a directory on an existing client.
func NewUserDirectoryRedis(client *redis.Client, keyPrefix string) *UserDirectoryRedis {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &UserDirectoryRedis{client: client, keyPrefix: keyPrefix, now: time.Now}
}

func (r *UserDirectoryRedis) key(id string) string {
	return r.keyPrefix + "user:" + id
}

// GetUser loads a user document.
func (r *UserDirectoryRedis) GetUser(ctx context.Context, id string) (*domain.User, error) {
	doc, err := readDocument(ctx, r.client, r.key(id))
	if err != nil {
		return nil, err
	}
	return doc.user(), nil
}

// UpdatePublicMetadata replaces the metadata of an existing user. The
// read-modify-write runs under WATCH so concurrent writers retry.
func (r *UserDirectoryRedis) UpdatePublicMetadata(ctx context.Context, id string, metadata json.RawMessage) error {
	key := r.key(id)
	update := func(tx *redis.Tx) error {
		doc, err := readDocument(ctx, tx, key)
		if err != nil {
			return err
		}
		doc.PublicMetadata = append(json.RawMessage(nil), metadata...)
		doc.UpdatedAt = r.now().UTC()
		body, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, body, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.client.Watch(ctx, update, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update metadata for %s: too much contention", id)
}

// SaveUser writes a full user document, used to seed accounts.
func (r *UserDirectoryRedis) SaveUser(ctx context.Context, u domain.User) error {
	now := r.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	body, err := json.Marshal(userDocument{
		ID:             u.ID,
		FirstName:      u.FirstName,
		FullName:       u.FullName,
		PublicMetadata: u.PublicMetadata,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(u.ID), body, 0).Err()
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readDocument(ctx context.Context, c stringGetter, key string) (userDocument, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return userDocument{}, domain.ErrNotFound
		}
		return userDocument{}, err
	}
	var doc userDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return userDocument{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc, nil
}

var _ domain.UserDirectory = (*UserDirectoryRedis)(nil)
