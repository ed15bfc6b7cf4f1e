package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"inksynth/internal/domain"
	"inksynth/internal/infra"
	"inksynth/internal/sqlinline"
)

// UserDirectoryPG implements domain.UserDirectory over the identity_users table.
type UserDirectoryPG struct {
	db infra.SQLExecutor
}

// NewUserDirectoryPG creates a directory on top of a marker-aware executor.
func NewUserDirectoryPG(db infra.SQLExecutor) *UserDirectoryPG {
	return &UserDirectoryPG{db: db}
}

// GetUser fetches a user by identity provider id.
func (r *UserDirectoryPG) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, sqlinline.QSelectIdentityUserByID, id)
	return scanUser(row)
}

// UpdatePublicMetadata replaces the metadata blob of an existing user.
func (r *UserDirectoryPG) UpdatePublicMetadata(ctx context.Context, id string, metadata json.RawMessage) error {
	tag, err := r.db.Exec(ctx, sqlinline.QReplacePublicMetadata, id, string(metadata))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpsertUser inserts a user or refreshes its names. Metadata of an existing
// user is left untouched.
func (r *UserDirectoryPG) UpsertUser(ctx context.Context, u domain.User) (*domain.User, error) {
	var metadata any
	if len(u.PublicMetadata) > 0 {
		metadata = string(u.PublicMetadata)
	}
	row := r.db.QueryRow(ctx, sqlinline.QUpsertIdentityUser, u.ID, u.FirstName, u.FullName, metadata)
	return scanUser(row)
}

// SetRole writes role into the metadata blob, keeping the other keys. It is
// the only path that may grant admin.
func (r *UserDirectoryPG) SetRole(ctx context.Context, id string, role domain.ProfileRole) (json.RawMessage, error) {
	if !role.IsKnown() {
		return nil, fmt.Errorf("role %q: %w", role, domain.ErrInvalidPayload)
	}
	var metadata []byte
	err := r.db.QueryRow(ctx, sqlinline.QSetUserRole, id, string(role)).Scan(&metadata)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return json.RawMessage(metadata), nil
}

// RoleHolder is a row of ListByRole.
type RoleHolder struct {
	ID   string
	Name string
	Role string
}

// ListByRole returns up to limit users holding role, most recently updated first.
func (r *UserDirectoryPG) ListByRole(ctx context.Context, role domain.ProfileRole, limit int) ([]RoleHolder, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListUsersByRole, string(role), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoleHolder
	for rows.Next() {
		var h RoleHolder
		if err := rows.Scan(&h.ID, &h.Name, &h.Role); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u        domain.User
		metadata []byte
	)
	if err := row.Scan(&u.ID, &u.FirstName, &u.FullName, &metadata, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.PublicMetadata = json.RawMessage(metadata)
	return &u, nil
}

var _ domain.UserDirectory = (*UserDirectoryPG)(nil)
