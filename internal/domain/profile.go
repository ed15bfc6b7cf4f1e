package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProfileRole enumerates profile roles.
type ProfileRole string

const (
	RoleUser   ProfileRole = "user"
	RoleArtist ProfileRole = "artist"
	// RoleAdmin can be read from stored metadata but is never accepted as input.
	RoleAdmin ProfileRole = "admin"
)

// Display name bounds, counted in code points. They mirror
// schema/profile_input.json.
const (
	DisplayNameMinLen = 2
	DisplayNameMaxLen = 64
)

// Profile is the display-safe profile exchanged with clients.
type Profile struct {
	DisplayName string      `json:"displayName"`
	Role        ProfileRole `json:"role"`
}

// ProfileMetadata is the loose schema of provider-held public metadata.
type ProfileMetadata struct {
	DisplayName         *string      `json:"displayName,omitempty"`
	Role                *ProfileRole `json:"role,omitempty"`
	OnboardingCompleted *bool        `json:"onboardingCompleted,omitempty"`
}

// RoleOption pairs a role with its label.
type RoleOption struct {
	Value ProfileRole `json:"value"`
	Label string      `json:"label"`
}

var roleOptions = []RoleOption{
	{Value: RoleUser, Label: "Collector"},
	{Value: RoleArtist, Label: "Artist"},
	{Value: RoleAdmin, Label: "Admin"},
}

// RoleOptions lists every role, admin included.
func RoleOptions() []RoleOption {
	return append([]RoleOption(nil), roleOptions...)
}

// UserFacingRoleOptions lists the roles a user may pick for themselves.
func UserFacingRoleOptions() []RoleOption {
	out := make([]RoleOption, 0, len(roleOptions))
	for _, opt := range roleOptions {
		if opt.Value == RoleAdmin {
			continue
		}
		out = append(out, opt)
	}
	return out
}

// IsUserFacing reports whether the role may be submitted by a user.
func (r ProfileRole) IsUserFacing() bool {
	return r == RoleUser || r == RoleArtist
}

// IsKnown reports whether the role belongs to the closed enumeration.
func (r ProfileRole) IsKnown() bool {
	return r.IsUserFacing() || r == RoleAdmin
}

// ValidationError describes why a payload was rejected. It matches
// ErrInvalidPayload with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid payload: %s", e.Reason)
	}
	return fmt.Sprintf("invalid payload: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidPayload
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ValidateProfileInput validates an untrusted profile payload against the
// profile input schema. Only "user" and "artist" are accepted as roles,
// compared exactly. Unknown keys are ignored.
func ValidateProfileInput(raw []byte) (Profile, error) {
	if err := validateDocument(profileInputSchema, raw); err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, invalid("", err.Error())
	}
	return p, nil
}

// ValidateProfile applies the write-path rules to an already typed profile.
func ValidateProfile(p Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return invalid("", err.Error())
	}
	return validateDocument(profileInputSchema, raw)
}

// ParseProfileMetadata decodes stored metadata with the loose read schema.
// Any field present with the wrong type fails the whole parse.
func ParseProfileMetadata(raw []byte) (ProfileMetadata, bool) {
	var md ProfileMetadata
	if len(bytes.TrimSpace(raw)) == 0 {
		return md, false
	}
	if err := validateDocument(profileMetadataSchema, raw); err != nil {
		return md, false
	}
	if err := json.Unmarshal(raw, &md); err != nil {
		return ProfileMetadata{}, false
	}
	return md, true
}

// ReadProfile builds the display-safe profile for a user. Admins are
// reported as plain users.
func ReadProfile(u User) Profile {
	md, ok := u.Metadata()

	var name string
	switch {
	case ok && md.DisplayName != nil:
		name = *md.DisplayName
	case u.FullName != nil:
		name = *u.FullName
	case u.FirstName != nil:
		name = *u.FirstName
	}

	role := RoleUser
	if ok && md.Role != nil && *md.Role == RoleArtist {
		role = RoleArtist
	}
	return Profile{DisplayName: name, Role: role}
}

// NewProfileMetadata builds the metadata blob persisted when a profile is saved.
func NewProfileMetadata(p Profile) ProfileMetadata {
	name := p.DisplayName
	role := p.Role
	done := true
	return ProfileMetadata{DisplayName: &name, Role: &role, OnboardingCompleted: &done}
}

// Marshal encodes metadata for storage.
func (m ProfileMetadata) Marshal() (json.RawMessage, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode profile metadata: %w", err)
	}
	return b, nil
}
