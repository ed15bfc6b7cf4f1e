package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestValidateProfileInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Profile
		wantErr bool
	}{
		{name: "user", body: `{"displayName":"Ada","role":"user"}`, want: Profile{DisplayName: "Ada", Role: RoleUser}},
		{name: "artist", body: `{"displayName":"Kai","role":"artist"}`, want: Profile{DisplayName: "Kai", Role: RoleArtist}},
		{name: "minimum length", body: `{"displayName":"Jo","role":"user"}`, want: Profile{DisplayName: "Jo", Role: RoleUser}},
		{name: "maximum length", body: `{"displayName":"` + strings.Repeat("x", 64) + `","role":"artist"}`, want: Profile{DisplayName: strings.Repeat("x", 64), Role: RoleArtist}},
		{name: "unknown keys ignored", body: `{"displayName":"Ada","role":"user","extra":1}`, want: Profile{DisplayName: "Ada", Role: RoleUser}},
		{name: "admin", body: `{"displayName":"Ada","role":"admin"}`, wantErr: true},
		{name: "admin upper", body: `{"displayName":"Ada","role":"ADMIN"}`, wantErr: true},
		{name: "admin title", body: `{"displayName":"Ada","role":"Admin"}`, wantErr: true},
		{name: "admin padded", body: `{"displayName":"Ada","role":" admin "}`, wantErr: true},
		{name: "user padded", body: `{"displayName":"Ada","role":"user "}`, wantErr: true},
		{name: "user upper", body: `{"displayName":"Ada","role":"USER"}`, wantErr: true},
		{name: "too short", body: `{"displayName":"A","role":"user"}`, wantErr: true},
		{name: "empty name", body: `{"displayName":"","role":"user"}`, wantErr: true},
		{name: "too long", body: `{"displayName":"` + strings.Repeat("x", 65) + `","role":"user"}`, wantErr: true},
		{name: "missing role", body: `{"displayName":"Ada"}`, wantErr: true},
		{name: "missing name", body: `{"role":"user"}`, wantErr: true},
		{name: "null role", body: `{"displayName":"Ada","role":null}`, wantErr: true},
		{name: "numeric name", body: `{"displayName":42,"role":"user"}`, wantErr: true},
		{name: "array", body: `[]`, wantErr: true},
		{name: "null", body: `null`, wantErr: true},
		{name: "garbage", body: `{`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateProfileInput([]byte(tc.body))
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPayload), "error %v should match ErrInvalidPayload", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateProfileCountsRunes(t *testing.T) {
	assert.NoError(t, ValidateProfile(Profile{DisplayName: "李明", Role: RoleUser}))
	assert.Error(t, ValidateProfile(Profile{DisplayName: "李", Role: RoleUser}))
	assert.NoError(t, ValidateProfile(Profile{DisplayName: strings.Repeat("墨", 64), Role: RoleArtist}))
}

func TestParseProfileMetadata(t *testing.T) {
	md, ok := ParseProfileMetadata([]byte(`{"displayName":"Ada","role":"admin","onboardingCompleted":true}`))
	require.True(t, ok)
	assert.Equal(t, "Ada", *md.DisplayName)
	assert.Equal(t, RoleAdmin, *md.Role)
	assert.True(t, *md.OnboardingCompleted)

	md, ok = ParseProfileMetadata([]byte(`{}`))
	require.True(t, ok)
	assert.Nil(t, md.DisplayName)
	assert.Nil(t, md.Role)

	for _, raw := range []string{``, `null`, `"x"`, `{"role":"ADMIN"}`, `{"displayName":3}`, `{"onboardingCompleted":"yes"}`, `{"role":null}`} {
		_, ok := ParseProfileMetadata([]byte(raw))
		assert.False(t, ok, "metadata %q should not parse", raw)
	}
}

func TestReadProfile(t *testing.T) {
	tests := []struct {
		name string
		user User
		want Profile
	}{
		{
			name: "metadata wins",
			user: User{FullName: ptr("Ada Lovelace"), PublicMetadata: json.RawMessage(`{"displayName":"Ink Queen","role":"artist"}`)},
			want: Profile{DisplayName: "Ink Queen", Role: RoleArtist},
		},
		{
			name: "admin demoted",
			user: User{PublicMetadata: json.RawMessage(`{"displayName":"Root","role":"admin"}`)},
			want: Profile{DisplayName: "Root", Role: RoleUser},
		},
		{
			name: "full name fallback",
			user: User{FullName: ptr("Ada Lovelace"), FirstName: ptr("Ada"), PublicMetadata: json.RawMessage(`{"role":"artist"}`)},
			want: Profile{DisplayName: "Ada Lovelace", Role: RoleArtist},
		},
		{
			name: "first name fallback",
			user: User{FirstName: ptr("Ada")},
			want: Profile{DisplayName: "Ada", Role: RoleUser},
		},
		{
			name: "empty fallback",
			user: User{},
			want: Profile{DisplayName: "", Role: RoleUser},
		},
		{
			name: "empty metadata name stops chain",
			user: User{FullName: ptr("Ada Lovelace"), PublicMetadata: json.RawMessage(`{"displayName":""}`)},
			want: Profile{DisplayName: "", Role: RoleUser},
		},
		{
			name: "invalid metadata ignored",
			user: User{FirstName: ptr("Ada"), PublicMetadata: json.RawMessage(`{"displayName":"X","role":"superuser"}`)},
			want: Profile{DisplayName: "Ada", Role: RoleUser},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReadProfile(tc.user))
		})
	}
}

func TestNewProfileMetadataMarksOnboarding(t *testing.T) {
	raw, err := NewProfileMetadata(Profile{DisplayName: "Ada", Role: RoleArtist}).Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"displayName":"Ada","role":"artist","onboardingCompleted":true}`, string(raw))
}

func TestUserFacingRoleOptionsExcludeAdmin(t *testing.T) {
	opts := UserFacingRoleOptions()
	require.Len(t, opts, 2)
	for _, opt := range opts {
		assert.NotEqual(t, RoleAdmin, opt.Value)
	}
	assert.Len(t, RoleOptions(), 3)
}

func TestValidateProfileInputReportsField(t *testing.T) {
	tests := []struct {
		body  string
		field string
	}{
		{body: `{"displayName":"A","role":"user"}`, field: "displayName"},
		{body: `{"displayName":null,"role":"user"}`, field: "displayName"},
		{body: `{"displayName":"Ada","role":"admin"}`, field: "role"},
		{body: `{"displayName":"Ada","role":7}`, field: "role"},
	}
	for _, tc := range tests {
		t.Run(tc.body, func(t *testing.T) {
			_, err := ValidateProfileInput([]byte(tc.body))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.NotEmpty(t, ve.Reason)
		})
	}
}

func TestValidateProfileInputRejectsTrailingData(t *testing.T) {
	_, err := ValidateProfileInput([]byte(`{"displayName":"Ada","role":"user"} {}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
