package auth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Role
	}{
		{"admin", "admin", RoleAdmin},
		{"user", "user", RoleUser},
		{"empty defaults to user", "", RoleUser},
		{"unknown defaults to user", "superuser", RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseRole(tt.raw))
		})
	}
}

func TestResolveRole_ProfileWins(t *testing.T) {
	profile := &Profile{UID: "u1", Role: RoleAdmin}
	claims := TokenClaims{UID: "u1", Role: RoleUser}

	assert.Equal(t, RoleAdmin, ResolveRole(profile, claims))
}

func TestResolveRole_ClaimFallback(t *testing.T) {
	claims := TokenClaims{UID: "u1", Role: RoleAdmin}

	// No profile at all
	assert.Equal(t, RoleAdmin, ResolveRole(nil, claims))

	// Profile present but without a role value
	assert.Equal(t, RoleAdmin, ResolveRole(&Profile{UID: "u1"}, claims))
}

func TestResolveRole_Default(t *testing.T) {
	assert.Equal(t, RoleUser, ResolveRole(nil, TokenClaims{UID: "u1"}))
}

func TestMergeUser_ClaimsPreferredForIdentity(t *testing.T) {
	now := NewTimestamp(time.Now())
	claims := TokenClaims{
		UID:           "u1",
		Email:         "claims@example.com",
		DisplayName:   "Claims Name",
		EmailVerified: true,
	}
	profile := &Profile{
		UID:         "u1",
		Email:       "profile@example.com",
		DisplayName: "Profile Name",
		Role:        RoleAdmin,
		CreatedAt:   now,
		LastLoginAt: now,
	}

	user := MergeUser(claims, profile)

	assert.Equal(t, "claims@example.com", user.Email)
	assert.Equal(t, "Claims Name", user.DisplayName)
	assert.Equal(t, RoleAdmin, user.Role)
	assert.Equal(t, now, user.CreatedAt)
	assert.Equal(t, now, user.LastLoginAt)
	assert.True(t, user.EmailVerified)
}

func TestMergeUser_ProfileFillsMissingFields(t *testing.T) {
	claims := TokenClaims{UID: "u1"}
	profile := &Profile{
		UID:         "u1",
		Email:       "profile@example.com",
		DisplayName: "Profile Name",
		PhotoURL:    "https://cdn.example.com/p.png",
	}

	user := MergeUser(claims, profile)

	assert.Equal(t, "profile@example.com", user.Email)
	assert.Equal(t, "Profile Name", user.DisplayName)
	assert.Equal(t, "https://cdn.example.com/p.png", user.PhotoURL)
}

func TestMergeUser_ClaimsOnly(t *testing.T) {
	claims := TokenClaims{UID: "u1", Email: "u1@example.com"}

	user := MergeUser(claims, nil)

	assert.Equal(t, "u1", user.UID)
	assert.Equal(t, "u1@example.com", user.Email)
	assert.Equal(t, RoleUser, user.Role)
	assert.True(t, user.CreatedAt.IsZero())
}

func TestTimestamp_JSONRoundTrip(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-01T12:30:00Z"`, string(data))

	var decoded Timestamp
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ts, decoded)
}

func TestTimestamp_JSONNull(t *testing.T) {
	var ts Timestamp

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var decoded Timestamp
	require.NoError(t, json.Unmarshal([]byte("null"), &decoded))
	assert.True(t, decoded.IsZero())
}

func TestTimestamp_JSONUnixSeconds(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte("1748780000"), &ts))
	assert.Equal(t, int64(1748780000), ts.Unix())
}

func TestTimestamp_FromUnix(t *testing.T) {
	assert.True(t, FromUnix(0).IsZero())
	assert.True(t, FromUnix(-5).IsZero())
	assert.Equal(t, int64(100), FromUnix(100).Unix())
}

func TestTimestamp_Scan(t *testing.T) {
	var ts Timestamp

	require.NoError(t, ts.Scan(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Equal(t, "2025-01-02T03:04:05Z", ts.Time().Format(time.RFC3339))

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	require.NoError(t, ts.Scan("2025-01-02T03:04:05Z"))
	assert.False(t, ts.IsZero())

	assert.Error(t, ts.Scan(42))
}
