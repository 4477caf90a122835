package event

import (
	"context"

	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/authz"
	"github.com/stitchkit/stitch/internal/identity"
	"github.com/stitchkit/stitch/internal/logr"
	"github.com/stitchkit/stitch/internal/resource"
)

func newTestService(db storage, identity identityClient) *Service {
	return &Service{
		Logger:    logr.Discard(),
		Interface: authz.NewAuthorizer(logr.Discard()),
		db:        db,
		identity:  identity,
	}
}

func newTestContext() context.Context {
	return authz.AddSubjectToContext(context.Background(), &authz.Superuser{Username: "event-tests"})
}

// fakeStorage is an in-memory store of events.
type fakeStorage struct {
	events []*Event
}

func (f *fakeStorage) create(ctx context.Context, event *Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStorage) listByEntity(ctx context.Context, tenantID, entityID resource.ID) ([]*Event, error) {
	var events []*Event
	for _, event := range f.events {
		if event.TenantID == tenantID && event.EntityID != nil && *event.EntityID == entityID {
			events = append(events, event)
		}
	}
	return events, nil
}

// fakeIdentityClient resolves identifiers from a static table and records
// batch upserts.
type fakeIdentityClient struct {
	entities map[string]resource.ID
	batches  [][]identity.UpsertOptions
}

func (f *fakeIdentityClient) Resolve(ctx context.Context, tenantID resource.ID, t identity.Type, value string) (resource.ID, error) {
	entityID, ok := f.entities[value]
	if !ok {
		return resource.ID{}, internal.ErrResourceNotFound
	}
	return entityID, nil
}

func (f *fakeIdentityClient) BatchUpsert(ctx context.Context, opts []identity.UpsertOptions) ([]*identity.Mapping, error) {
	f.batches = append(f.batches, opts)
	mappings := make([]*identity.Mapping, len(opts))
	for i, o := range opts {
		mappings[i] = &identity.Mapping{
			TenantID:  o.TenantID,
			Type:      o.Type,
			Value:     o.Value,
			EntityID:  o.EntityID,
			ExpiresAt: o.ExpiresAt,
		}
	}
	return mappings, nil
}
