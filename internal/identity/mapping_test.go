package identity

import (
	"testing"
	"time"

	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMapping(t *testing.T) {
	opts := UpsertOptions{
		TenantID: resource.NewID(resource.TenantKind),
		Type:     Email,
		Value:    "alice@example.com",
		EntityID: resource.NewID(resource.ProfileKind),
	}

	t.Run("valid", func(t *testing.T) {
		mapping, err := NewMapping(opts)
		require.NoError(t, err)
		assert.Equal(t, opts.EntityID, mapping.EntityID)
		assert.Nil(t, mapping.ExpiresAt)
	})

	t.Run("missing tenant", func(t *testing.T) {
		missing := opts
		missing.TenantID = resource.ID{}
		_, err := NewMapping(missing)
		assert.ErrorAs(t, err, new(*internal.ErrMissingParameter))
	})

	t.Run("missing type", func(t *testing.T) {
		missing := opts
		missing.Type = ""
		_, err := NewMapping(missing)
		assert.ErrorAs(t, err, new(*internal.ErrMissingParameter))
	})

	t.Run("missing value", func(t *testing.T) {
		missing := opts
		missing.Value = ""
		_, err := NewMapping(missing)
		assert.ErrorAs(t, err, new(*internal.ErrMissingParameter))
	})

	t.Run("missing entity", func(t *testing.T) {
		missing := opts
		missing.EntityID = resource.ID{}
		_, err := NewMapping(missing)
		assert.ErrorAs(t, err, new(*internal.ErrMissingParameter))
	})

	t.Run("unknown types are permitted", func(t *testing.T) {
		custom := opts
		custom.Type = "loyalty_card"
		mapping, err := NewMapping(custom)
		require.NoError(t, err)
		assert.Equal(t, Type("loyalty_card"), mapping.Type)
	})
}

func TestNewMappingWithDefaultTTL(t *testing.T) {
	opts := UpsertOptions{
		TenantID: resource.NewID(resource.TenantKind),
		Value:    "abc123",
		EntityID: resource.NewID(resource.ProfileKind),
	}

	tests := []struct {
		name string
		t    Type
		want time.Duration
	}{
		{"session expires after 30 days", Session, SessionTTL},
		{"cookie expires after a year", Cookie, CookieTTL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := opts
			o.Type = tt.t
			mapping, err := NewMappingWithDefaultTTL(o)
			require.NoError(t, err)
			require.NotNil(t, mapping.ExpiresAt)
			assert.Equal(t, tt.want, mapping.ExpiresAt.Sub(mapping.CreatedAt))
		})
	}

	t.Run("permanent types receive no expiry", func(t *testing.T) {
		for _, permanent := range []Type{Email, Phone, UserID} {
			o := opts
			o.Type = permanent
			mapping, err := NewMappingWithDefaultTTL(o)
			require.NoError(t, err)
			assert.Nil(t, mapping.ExpiresAt)
		}
	})

	t.Run("explicit expiry wins over default", func(t *testing.T) {
		expiry := internal.CurrentTimestamp().Add(time.Hour)
		o := opts
		o.Type = Session
		o.ExpiresAt = &expiry
		mapping, err := NewMappingWithDefaultTTL(o)
		require.NoError(t, err)
		assert.Equal(t, expiry, *mapping.ExpiresAt)
	})
}

func TestMapping_Expired(t *testing.T) {
	now := internal.CurrentTimestamp()

	t.Run("permanent mapping never expires", func(t *testing.T) {
		m := Mapping{}
		assert.False(t, m.Expired(now))
	})

	t.Run("future expiry", func(t *testing.T) {
		m := Mapping{ExpiresAt: internal.Time(now.Add(time.Minute))}
		assert.False(t, m.Expired(now))
	})

	t.Run("past expiry", func(t *testing.T) {
		m := Mapping{ExpiresAt: internal.Time(now.Add(-time.Minute))}
		assert.True(t, m.Expired(now))
	})
}
