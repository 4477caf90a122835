package resource

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := NewID(TenantKind)
	assert.Equal(t, TenantKind, id.Kind)
	assert.Regexp(t, `^tnt-[1-9A-HJ-NP-Za-km-z]{16}$`, id.String())
}

func TestParseID(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		want := NewID(ProfileKind)
		got, err := ParseID(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("site", func(t *testing.T) {
		got, err := ParseID("site")
		require.NoError(t, err)
		assert.Equal(t, SiteID, got)
	})

	tests := []struct {
		name string
		s    string
	}{
		{"empty", ""},
		{"no separator", "tnt123"},
		{"missing kind", "-1BCDEFGHJKLMNPQR"},
		{"suffix too short", "tnt-123"},
		{"non-base58 characters", "tnt-0OIl0OIl0OIl0OIl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseID(tt.s)
			assert.Error(t, err)
		})
	}
}

func TestID_IsZero(t *testing.T) {
	assert.True(t, ID{}.IsZero())
	assert.False(t, NewID(TenantKind).IsZero())
	assert.False(t, SiteID.IsZero())
}

func TestID_JSON(t *testing.T) {
	want := NewID(TenantKind)
	b, err := json.Marshal(want)
	require.NoError(t, err)
	assert.Equal(t, `"`+want.String()+`"`, string(b))

	var got ID
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, want, got)
}

func TestID_Scan(t *testing.T) {
	want := NewID(ProfileKind)
	v, err := want.Value()
	require.NoError(t, err)

	var got ID
	require.NoError(t, got.Scan(v))
	assert.Equal(t, want, got)
}
