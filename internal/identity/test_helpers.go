package identity

import (
	"context"
	"sort"
	"sync"

	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/authz"
	"github.com/stitchkit/stitch/internal/logr"
	"github.com/stitchkit/stitch/internal/resource"
)

func newTestService(db storage) *Service {
	return &Service{
		Logger:    logr.Discard(),
		Interface: authz.NewAuthorizer(logr.Discard()),
		db:        db,
	}
}

func newTestContext() context.Context {
	return authz.AddSubjectToContext(context.Background(), &authz.Superuser{Username: "identity-tests"})
}

type mappingKey struct {
	tenantID resource.ID
	t        Type
	value    string
}

// fakeStorage is an in-memory implementation of the store handle.
type fakeStorage struct {
	mu       sync.Mutex
	mappings map[mappingKey]*storedMapping
	seq      int

	// upserting a mapping with this identifier value fails
	failValue string
}

type storedMapping struct {
	mapping Mapping
	seq     int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{mappings: make(map[mappingKey]*storedMapping)}
}

func (f *fakeStorage) upsert(ctx context.Context, mapping *Mapping) (*Mapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.upsertLocked(mapping)
}

func (f *fakeStorage) upsertLocked(mapping *Mapping) (*Mapping, error) {
	if mapping.Value == f.failValue && f.failValue != "" {
		return nil, internal.ErrResourceAlreadyExists
	}
	key := mappingKey{mapping.TenantID, mapping.Type, mapping.Value}
	if existing, ok := f.mappings[key]; ok {
		existing.mapping.EntityID = mapping.EntityID
		existing.mapping.ExpiresAt = mapping.ExpiresAt
		m := existing.mapping
		return &m, nil
	}
	f.seq++
	f.mappings[key] = &storedMapping{mapping: *mapping, seq: f.seq}
	m := *mapping
	return &m, nil
}

func (f *fakeStorage) batchUpsert(ctx context.Context, mappings []*Mapping) ([]*Mapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// snapshot for rollback
	snapshot := make(map[mappingKey]*storedMapping, len(f.mappings))
	for k, v := range f.mappings {
		stored := *v
		snapshot[k] = &stored
	}
	results := make([]*Mapping, len(mappings))
	for i, mapping := range mappings {
		result, err := f.upsertLocked(mapping)
		if err != nil {
			f.mappings = snapshot
			return nil, err
		}
		results[i] = result
	}
	return results, nil
}

func (f *fakeStorage) find(ctx context.Context, tenantID resource.ID, t Type, value string) (*Mapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.mappings[mappingKey{tenantID, t, value}]
	if !ok {
		return nil, internal.ErrResourceNotFound
	}
	m := stored.mapping
	return &m, nil
}

func (f *fakeStorage) listByEntity(ctx context.Context, tenantID, entityID resource.ID) ([]*Mapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var stored []*storedMapping
	for _, s := range f.mappings {
		if s.mapping.TenantID == tenantID && s.mapping.EntityID == entityID {
			stored = append(stored, s)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq > stored[j].seq })
	mappings := make([]*Mapping, len(stored))
	for i, s := range stored {
		m := s.mapping
		mappings[i] = &m
	}
	return mappings, nil
}

func (f *fakeStorage) delete(ctx context.Context, tenantID resource.ID, t Type, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := mappingKey{tenantID, t, value}
	if _, ok := f.mappings[key]; !ok {
		return internal.ErrResourceNotFound
	}
	delete(f.mappings, key)
	return nil
}

func (f *fakeStorage) deleteByEntity(ctx context.Context, tenantID, entityID resource.ID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for key, s := range f.mappings {
		if s.mapping.TenantID == tenantID && s.mapping.EntityID == entityID {
			delete(f.mappings, key)
			count++
		}
	}
	return count, nil
}

func (f *fakeStorage) sweep(ctx context.Context, tenantID *resource.ID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := internal.CurrentTimestamp()
	var count int64
	for key, s := range f.mappings {
		if tenantID != nil && s.mapping.TenantID != *tenantID {
			continue
		}
		if s.mapping.Expired(now) {
			delete(f.mappings, key)
			count++
		}
	}
	return count, nil
}

func (f *fakeStorage) stats(ctx context.Context, tenantID resource.ID) (*Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := internal.CurrentTimestamp()
	counts := make(map[Type]int64)
	var stats Stats
	for _, s := range f.mappings {
		if s.mapping.TenantID != tenantID {
			continue
		}
		counts[s.mapping.Type]++
		stats.Total++
		if s.mapping.Expired(now) {
			stats.ExpiredCount++
		}
	}
	for t, count := range counts {
		stats.ByType = append(stats.ByType, TypeCount{Type: t, Count: count})
	}
	sort.Slice(stats.ByType, func(i, j int) bool {
		if stats.ByType[i].Count != stats.ByType[j].Count {
			return stats.ByType[i].Count > stats.ByType[j].Count
		}
		return stats.ByType[i].Type < stats.ByType[j].Type
	})
	return &stats, nil
}

// fakeService backs the API handler tests.
type fakeService struct {
	mapping  *Mapping
	entityID resource.ID
	count    int64
	stats    *Stats
	err      error
}

func (f *fakeService) Upsert(context.Context, UpsertOptions) (*Mapping, error) {
	return f.mapping, f.err
}

func (f *fakeService) BatchUpsert(context.Context, []UpsertOptions) ([]*Mapping, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*Mapping{f.mapping}, nil
}

func (f *fakeService) Resolve(context.Context, resource.ID, Type, string) (resource.ID, error) {
	return f.entityID, f.err
}

func (f *fakeService) ListByEntity(context.Context, resource.ID, resource.ID) ([]*Mapping, error) {
	return []*Mapping{f.mapping}, f.err
}

func (f *fakeService) Delete(context.Context, resource.ID, Type, string) error {
	return f.err
}

func (f *fakeService) DeleteAllForEntity(context.Context, resource.ID, resource.ID) (int64, error) {
	return f.count, f.err
}

func (f *fakeService) SweepExpired(context.Context, *resource.ID) (int64, error) {
	return f.count, f.err
}

func (f *fakeService) Stats(context.Context, resource.ID) (*Stats, error) {
	return f.stats, f.err
}
