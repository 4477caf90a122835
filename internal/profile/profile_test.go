package profile

import (
	"encoding/json"
	"testing"

	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfile(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		profile, err := NewProfile(CreateOptions{
			TenantID:   resource.NewID(resource.TenantKind),
			Attributes: json.RawMessage(`{"plan": "pro"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, resource.ProfileKind, profile.ID.Kind)
		assert.JSONEq(t, `{"plan": "pro"}`, string(profile.Attributes))
	})

	t.Run("attributes default to empty object", func(t *testing.T) {
		profile, err := NewProfile(CreateOptions{TenantID: resource.NewID(resource.TenantKind)})
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(profile.Attributes))
	})

	t.Run("missing tenant", func(t *testing.T) {
		_, err := NewProfile(CreateOptions{})
		assert.ErrorAs(t, err, new(*internal.ErrMissingParameter))
	})
}

func TestProfile_Update(t *testing.T) {
	newProfile := func(t *testing.T, attrs string) *Profile {
		t.Helper()
		profile, err := NewProfile(CreateOptions{
			TenantID:   resource.NewID(resource.TenantKind),
			Attributes: json.RawMessage(attrs),
		})
		require.NoError(t, err)
		return profile
	}

	t.Run("merge", func(t *testing.T) {
		profile := newProfile(t, `{"plan": "free", "region": "eu"}`)

		err := profile.Update(UpdateOptions{Attributes: json.RawMessage(`{"plan": "pro"}`)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"plan": "pro", "region": "eu"}`, string(profile.Attributes))
	})

	t.Run("nil attributes is a no-op", func(t *testing.T) {
		profile := newProfile(t, `{"plan": "free"}`)

		err := profile.Update(UpdateOptions{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"plan": "free"}`, string(profile.Attributes))
	})

	t.Run("malformed attributes", func(t *testing.T) {
		profile := newProfile(t, `{}`)

		err := profile.Update(UpdateOptions{Attributes: json.RawMessage(`not json`)})
		assert.Error(t, err)
	})
}
