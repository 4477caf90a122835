package tenant

import (
	"testing"

	"github.com/stitchkit/stitch/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tenant, err := NewTenant(CreateOptions{Name: internal.Ptr("acme-corp")})
		require.NoError(t, err)
		assert.Equal(t, "acme-corp", tenant.Name)
		assert.False(t, tenant.ID.IsZero())
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := NewTenant(CreateOptions{})
		assert.ErrorIs(t, err, internal.ErrRequiredName)
	})

	tests := []struct {
		name string
		arg  string
	}{
		{"empty", ""},
		{"leading hyphen", "-acme"},
		{"spaces", "acme corp"},
		{"punctuation", "acme!"},
	}
	for _, tt := range tests {
		t.Run("invalid name: "+tt.name, func(t *testing.T) {
			_, err := NewTenant(CreateOptions{Name: internal.Ptr(tt.arg)})
			assert.ErrorIs(t, err, internal.ErrInvalidName)
		})
	}
}
