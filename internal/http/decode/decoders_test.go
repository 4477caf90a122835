package decode

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	var params struct {
		Type  string `schema:"type,required"`
		Value string `schema:"value"`
	}

	t.Run("decode", func(t *testing.T) {
		err := Query(&params, url.Values{"type": {"email"}, "value": {"alice@example.com"}})
		require.NoError(t, err)
		assert.Equal(t, "email", params.Type)
		assert.Equal(t, "alice@example.com", params.Value)
	})

	t.Run("missing required key", func(t *testing.T) {
		err := Query(&params, url.Values{"value": {"alice@example.com"}})
		assert.ErrorAs(t, err, new(*internal.ErrMissingParameter))
	})
}

func TestRoute(t *testing.T) {
	var params struct {
		TenantID resource.ID `schema:"tenant_id,required"`
	}
	want := resource.NewID(resource.TenantKind)

	r := httptest.NewRequest("GET", "/", nil)
	r = mux.SetURLVars(r, map[string]string{"tenant_id": want.String()})
	require.NoError(t, Route(&params, r))
	assert.Equal(t, want, params.TenantID)
}

func TestAll(t *testing.T) {
	var params struct {
		TenantID resource.ID `schema:"tenant_id,required"`
		Value    string      `schema:"value,required"`
	}
	want := resource.NewID(resource.TenantKind)

	// path variables take precedence over query params
	r := httptest.NewRequest("GET", "/?tenant_id=ignored&value=v1", nil)
	r = mux.SetURLVars(r, map[string]string{"tenant_id": want.String()})
	require.NoError(t, All(&params, r))
	assert.Equal(t, want, params.TenantID)
	assert.Equal(t, "v1", params.Value)
}

func TestID(t *testing.T) {
	want := resource.NewID(resource.TenantKind)

	t.Run("from path", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r = mux.SetURLVars(r, map[string]string{"tenant_id": want.String()})
		got, err := ID("tenant_id", r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		_, err := ID("tenant_id", r)
		assert.ErrorAs(t, err, new(*internal.ErrMissingParameter))
	})

	t.Run("malformed", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r = mux.SetURLVars(r, map[string]string{"tenant_id": "garbage"})
		_, err := ID("tenant_id", r)
		assert.Error(t, err)
	})
}
