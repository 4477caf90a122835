package identity

import (
	"testing"
	"time"

	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Upsert(t *testing.T) {
	ctx := newTestContext()
	tenantID := resource.NewID(resource.TenantKind)
	entityID := resource.NewID(resource.ProfileKind)
	opts := UpsertOptions{
		TenantID: tenantID,
		Type:     Email,
		Value:    "alice@example.com",
		EntityID: entityID,
	}

	t.Run("round trip", func(t *testing.T) {
		svc := newTestService(newFakeStorage())

		_, err := svc.Upsert(ctx, opts)
		require.NoError(t, err)

		got, err := svc.Resolve(ctx, tenantID, Email, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, entityID, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		db := newFakeStorage()
		svc := newTestService(db)

		first, err := svc.Upsert(ctx, opts)
		require.NoError(t, err)
		second, err := svc.Upsert(ctx, opts)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, db.mappings, 1)
	})

	t.Run("rebind replaces silently", func(t *testing.T) {
		db := newFakeStorage()
		svc := newTestService(db)

		_, err := svc.Upsert(ctx, opts)
		require.NoError(t, err)

		rebound := opts
		rebound.EntityID = resource.NewID(resource.ProfileKind)
		_, err = svc.Upsert(ctx, rebound)
		require.NoError(t, err)

		got, err := svc.Resolve(ctx, tenantID, Email, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, rebound.EntityID, got)
		assert.Len(t, db.mappings, 1)

		// the previous entity no longer owns the identifier
		mappings, err := svc.ListByEntity(ctx, tenantID, entityID)
		require.NoError(t, err)
		assert.Empty(t, mappings)
	})

	t.Run("same value in another tenant is independent", func(t *testing.T) {
		svc := newTestService(newFakeStorage())

		_, err := svc.Upsert(ctx, opts)
		require.NoError(t, err)

		other := opts
		other.TenantID = resource.NewID(resource.TenantKind)
		other.EntityID = resource.NewID(resource.ProfileKind)
		_, err = svc.Upsert(ctx, other)
		require.NoError(t, err)

		got, err := svc.Resolve(ctx, tenantID, Email, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, entityID, got)

		got, err = svc.Resolve(ctx, other.TenantID, Email, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, other.EntityID, got)
	})
}

func TestService_Resolve(t *testing.T) {
	ctx := newTestContext()
	tenantID := resource.NewID(resource.TenantKind)
	entityID := resource.NewID(resource.ProfileKind)

	t.Run("unmapped identifier", func(t *testing.T) {
		svc := newTestService(newFakeStorage())

		_, err := svc.Resolve(ctx, tenantID, Email, "nobody@example.com")
		assert.ErrorIs(t, err, internal.ErrResourceNotFound)
	})

	t.Run("expired mapping is absent and deleted", func(t *testing.T) {
		db := newFakeStorage()
		svc := newTestService(db)

		_, err := svc.Upsert(ctx, UpsertOptions{
			TenantID:  tenantID,
			Type:      Session,
			Value:     "sess-1",
			EntityID:  entityID,
			ExpiresAt: internal.Time(internal.CurrentTimestamp().Add(-time.Hour)),
		})
		require.NoError(t, err)

		_, err = svc.Resolve(ctx, tenantID, Session, "sess-1")
		assert.ErrorIs(t, err, internal.ErrResourceNotFound)
		// lazy expiry removed the stale row
		assert.Empty(t, db.mappings)
	})

	t.Run("future expiry still resolves", func(t *testing.T) {
		svc := newTestService(newFakeStorage())

		_, err := svc.Upsert(ctx, UpsertOptions{
			TenantID:  tenantID,
			Type:      Session,
			Value:     "sess-2",
			EntityID:  entityID,
			ExpiresAt: internal.Time(internal.CurrentTimestamp().Add(time.Hour)),
		})
		require.NoError(t, err)

		got, err := svc.Resolve(ctx, tenantID, Session, "sess-2")
		require.NoError(t, err)
		assert.Equal(t, entityID, got)
	})
}

func TestService_BatchUpsert(t *testing.T) {
	ctx := newTestContext()
	tenantID := resource.NewID(resource.TenantKind)
	entityID := resource.NewID(resource.ProfileKind)

	// a visitor signs up: their anonymous cookie and new email are stitched
	// to the same entity in one event
	batch := []UpsertOptions{
		{TenantID: tenantID, Type: Cookie, Value: "cookie-1", EntityID: entityID},
		{TenantID: tenantID, Type: Email, Value: "alice@example.com", EntityID: entityID},
	}

	t.Run("all succeed", func(t *testing.T) {
		svc := newTestService(newFakeStorage())

		mappings, err := svc.BatchUpsert(ctx, batch)
		require.NoError(t, err)
		assert.Len(t, mappings, 2)

		got, err := svc.Resolve(ctx, tenantID, Cookie, "cookie-1")
		require.NoError(t, err)
		assert.Equal(t, entityID, got)
		got, err = svc.Resolve(ctx, tenantID, Email, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, entityID, got)
	})

	t.Run("failure rolls back whole batch", func(t *testing.T) {
		db := newFakeStorage()
		db.failValue = "alice@example.com"
		svc := newTestService(db)

		_, err := svc.BatchUpsert(ctx, batch)
		require.Error(t, err)

		// the cookie upsert preceding the failure is not visible
		_, err = svc.Resolve(ctx, tenantID, Cookie, "cookie-1")
		assert.ErrorIs(t, err, internal.ErrResourceNotFound)
	})

	t.Run("malformed item fails batch before any write", func(t *testing.T) {
		db := newFakeStorage()
		svc := newTestService(db)

		malformed := []UpsertOptions{
			batch[0],
			{TenantID: tenantID, Type: Email, EntityID: entityID},
		}
		_, err := svc.BatchUpsert(ctx, malformed)
		assert.ErrorContains(t, err, "batch item 1")
		assert.Empty(t, db.mappings)
	})

	t.Run("empty batch", func(t *testing.T) {
		svc := newTestService(newFakeStorage())

		mappings, err := svc.BatchUpsert(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, mappings)
	})
}

func TestService_ListByEntity(t *testing.T) {
	ctx := newTestContext()
	tenantID := resource.NewID(resource.TenantKind)
	entityID := resource.NewID(resource.ProfileKind)
	svc := newTestService(newFakeStorage())

	for _, opts := range []UpsertOptions{
		{TenantID: tenantID, Type: Email, Value: "alice@example.com", EntityID: entityID},
		{TenantID: tenantID, Type: Cookie, Value: "cookie-1", EntityID: entityID,
			ExpiresAt: internal.Time(internal.CurrentTimestamp().Add(-time.Hour))},
		{TenantID: tenantID, Type: Session, Value: "sess-1", EntityID: entityID},
		{TenantID: tenantID, Type: Email, Value: "other@example.com", EntityID: resource.NewID(resource.ProfileKind)},
	} {
		_, err := svc.Upsert(ctx, opts)
		require.NoError(t, err)
	}

	mappings, err := svc.ListByEntity(ctx, tenantID, entityID)
	require.NoError(t, err)
	// newest first, and the expired cookie is still listed until swept
	require.Len(t, mappings, 3)
	assert.Equal(t, Session, mappings[0].Type)
	assert.Equal(t, Cookie, mappings[1].Type)
	assert.Equal(t, Email, mappings[2].Type)
}

func TestService_Delete(t *testing.T) {
	ctx := newTestContext()
	tenantID := resource.NewID(resource.TenantKind)
	entityID := resource.NewID(resource.ProfileKind)

	t.Run("delete", func(t *testing.T) {
		svc := newTestService(newFakeStorage())

		_, err := svc.Upsert(ctx, UpsertOptions{TenantID: tenantID, Type: Email, Value: "alice@example.com", EntityID: entityID})
		require.NoError(t, err)

		err = svc.Delete(ctx, tenantID, Email, "alice@example.com")
		require.NoError(t, err)

		_, err = svc.Resolve(ctx, tenantID, Email, "alice@example.com")
		assert.ErrorIs(t, err, internal.ErrResourceNotFound)
	})

	t.Run("deleting absent mapping errors", func(t *testing.T) {
		svc := newTestService(newFakeStorage())

		err := svc.Delete(ctx, tenantID, Email, "nobody@example.com")
		assert.ErrorIs(t, err, internal.ErrResourceNotFound)
	})

	t.Run("delete all for entity", func(t *testing.T) {
		svc := newTestService(newFakeStorage())

		for _, opts := range []UpsertOptions{
			{TenantID: tenantID, Type: Email, Value: "alice@example.com", EntityID: entityID},
			{TenantID: tenantID, Type: Cookie, Value: "cookie-1", EntityID: entityID},
			{TenantID: tenantID, Type: Email, Value: "other@example.com", EntityID: resource.NewID(resource.ProfileKind)},
		} {
			_, err := svc.Upsert(ctx, opts)
			require.NoError(t, err)
		}

		count, err := svc.DeleteAllForEntity(ctx, tenantID, entityID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		// other entity untouched
		_, err = svc.Resolve(ctx, tenantID, Email, "other@example.com")
		assert.NoError(t, err)
	})

	t.Run("delete all for entity without mappings", func(t *testing.T) {
		svc := newTestService(newFakeStorage())

		count, err := svc.DeleteAllForEntity(ctx, tenantID, entityID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestService_SweepExpired(t *testing.T) {
	ctx := newTestContext()
	tenantID := resource.NewID(resource.TenantKind)
	otherTenantID := resource.NewID(resource.TenantKind)
	entityID := resource.NewID(resource.ProfileKind)
	expired := internal.Time(internal.CurrentTimestamp().Add(-time.Hour))

	seed := func(t *testing.T, svc *Service) {
		t.Helper()
		for _, opts := range []UpsertOptions{
			{TenantID: tenantID, Type: Session, Value: "sess-1", EntityID: entityID, ExpiresAt: expired},
			{TenantID: tenantID, Type: Email, Value: "alice@example.com", EntityID: entityID},
			{TenantID: otherTenantID, Type: Session, Value: "sess-2", EntityID: entityID, ExpiresAt: expired},
		} {
			_, err := svc.Upsert(ctx, opts)
			require.NoError(t, err)
		}
	}

	t.Run("sweep all tenants", func(t *testing.T) {
		svc := newTestService(newFakeStorage())
		seed(t, svc)

		count, err := svc.SweepExpired(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		// permanent mapping survives
		_, err = svc.Resolve(ctx, tenantID, Email, "alice@example.com")
		assert.NoError(t, err)

		// sweeping again is a no-op
		count, err = svc.SweepExpired(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("sweep scoped to tenant", func(t *testing.T) {
		db := newFakeStorage()
		svc := newTestService(db)
		seed(t, svc)

		count, err := svc.SweepExpired(ctx, &tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		// other tenant's expired mapping remains unswept
		assert.Len(t, db.mappings, 2)
	})
}

func TestService_Stats(t *testing.T) {
	ctx := newTestContext()
	tenantID := resource.NewID(resource.TenantKind)
	entityID := resource.NewID(resource.ProfileKind)
	db := newFakeStorage()
	svc := newTestService(db)

	for _, opts := range []UpsertOptions{
		{TenantID: tenantID, Type: Email, Value: "alice@example.com", EntityID: entityID},
		{TenantID: tenantID, Type: Email, Value: "alice@work.example.com", EntityID: entityID},
		{TenantID: tenantID, Type: Session, Value: "sess-1", EntityID: entityID,
			ExpiresAt: internal.Time(internal.CurrentTimestamp().Add(-time.Hour))},
		{TenantID: resource.NewID(resource.TenantKind), Type: Email, Value: "bob@example.com", EntityID: entityID},
	} {
		_, err := svc.Upsert(ctx, opts)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.ExpiredCount)
	assert.Equal(t, []TypeCount{{Email, 2}, {Session, 1}}, stats.ByType)

	// stats never sweeps as a side effect
	assert.Len(t, db.mappings, 4)
}
