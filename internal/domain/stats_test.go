package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCountProfiles(t *testing.T) {
	t.Parallel()

	profiles := []Profile{
		{ID: "a"},
		{ID: "b", Role: strPtr("Admin")},
		{ID: "c", Role: strPtr("user")},
		{ID: "d", Role: strPtr("USER"), IsBlocked: boolPtr(true)},
	}

	tests := []struct {
		name    string
		input   []Profile
		loading bool
		want    UserStats
	}{
		{
			name:  "mixed roles and block flags",
			input: profiles,
			want:  UserStats{Users: 2, Admins: 1, Active: 3, Blocked: 1},
		},
		{
			name:    "loading hides stale data",
			input:   profiles,
			loading: true,
			want:    UserStats{},
		},
		{
			name:  "empty input",
			input: nil,
			want:  UserStats{},
		},
		{
			name:  "explicit false block flag is active",
			input: []Profile{{ID: "x", Role: strPtr("editor"), IsBlocked: boolPtr(false)}},
			want:  UserStats{Active: 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CountProfiles(tc.input, tc.loading))
		})
	}
}

func TestFilterProfiles(t *testing.T) {
	t.Parallel()

	profiles := []Profile{
		{ID: "1", Username: strPtr("alice"), Email: strPtr("alice@example.com")},
		{ID: "2", FullName: strPtr("Bob Stone")},
		{ID: "3", Email: strPtr("carol@EXAMPLE.org")},
	}

	assert.Len(t, FilterProfiles(profiles, ""), 3)
	assert.Len(t, FilterProfiles(profiles, "   "), 3)

	got := FilterProfiles(profiles, "STONE")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "2", got[0].ID)
	}

	got = FilterProfiles(profiles, "example")
	assert.Len(t, got, 2)

	assert.Empty(t, FilterProfiles(profiles, "zed"))
}

func TestProfileSearch(t *testing.T) {
	t.Parallel()

	_, ok := ProfileSearch("   ")
	assert.False(t, ok)

	f, ok := ProfileSearch(" bob ")
	require.True(t, ok)
	assert.Equal(t, AnyOf(
		ILike("username", "%bob%"),
		ILike("full_name", "%bob%"),
		ILike("email", "%bob%"),
	), f)
	require.NoError(t, Query{Collection: "profiles"}.With(f).Validate())
}
