package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/mux"
	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/api"
	"github.com/stitchkit/stitch/internal/authz"
	"github.com/stitchkit/stitch/internal/logr"
	"github.com/stitchkit/stitch/internal/resource"
	"github.com/stitchkit/stitch/internal/sql"
)

type (
	Service struct {
		logr.Logger
		authz.Interface

		db  storage
		api *apiHandlers
	}

	Options struct {
		logr.Logger
		Authorizer authz.Interface

		*sql.DB
		*api.Responder
	}

	// storage is the store handle the service operates on. It is an
	// explicitly injected dependency so tests can substitute an in-memory
	// store.
	storage interface {
		upsert(ctx context.Context, mapping *Mapping) (*Mapping, error)
		batchUpsert(ctx context.Context, mappings []*Mapping) ([]*Mapping, error)
		find(ctx context.Context, tenantID resource.ID, t Type, value string) (*Mapping, error)
		listByEntity(ctx context.Context, tenantID, entityID resource.ID) ([]*Mapping, error)
		delete(ctx context.Context, tenantID resource.ID, t Type, value string) error
		deleteByEntity(ctx context.Context, tenantID, entityID resource.ID) (int64, error)
		sweep(ctx context.Context, tenantID *resource.ID) (int64, error)
		stats(ctx context.Context, tenantID resource.ID) (*Stats, error)
	}

	// Stats aggregates mapping counts for a tenant. ExpiredCount counts
	// mappings past their expiry but not yet swept; it is informational only.
	Stats struct {
		Total        int64       `json:"total"`
		ByType       []TypeCount `json:"by_type"`
		ExpiredCount int64       `json:"expired_count"`
	}

	TypeCount struct {
		Type  Type  `json:"type"`
		Count int64 `json:"count"`
	}
)

func NewService(opts Options) *Service {
	svc := Service{
		Logger:    opts.Logger,
		Interface: opts.Authorizer,
		db:        &pgdb{opts.DB},
	}
	svc.api = &apiHandlers{
		svc:       &svc,
		Responder: opts.Responder,
	}
	return &svc
}

func (s *Service) AddHandlers(r *mux.Router) {
	s.api.addHandlers(r)
}

// Upsert creates a mapping, or, if a mapping already exists for the same
// (tenant, type, value) tuple, replaces its entity and expiry. Replacement is
// silent even when the tuple was bound to a different entity: the store
// always trusts the most recent assertion for an identifier. Exactly one
// mapping exists for the tuple afterwards.
func (s *Service) Upsert(ctx context.Context, opts UpsertOptions) (*Mapping, error) {
	subject, err := s.Authorize(ctx, authz.CreateMappingAction, opts.TenantID)
	if err != nil {
		return nil, err
	}
	mapping, err := NewMapping(opts)
	if err != nil {
		return nil, fmt.Errorf("creating mapping: %w", err)
	}
	mapping, err = s.db.upsert(ctx, mapping)
	if err != nil {
		s.Error(err, "upserting mapping", "tenant_id", opts.TenantID, "type", opts.Type, "subject", subject)
		return nil, err
	}
	s.V(2).Info("upserted mapping", "tenant_id", mapping.TenantID, "type", mapping.Type, "entity_id", mapping.EntityID, "subject", subject)
	return mapping, nil
}

// BatchUpsert applies several upserts as a single atomic unit: either every
// upsert succeeds and is visible, or none are. A batch typically represents a
// single identity-stitching event and may span tenants.
func (s *Service) BatchUpsert(ctx context.Context, opts []UpsertOptions) ([]*Mapping, error) {
	subject, err := s.authorizeBatch(ctx, opts)
	if err != nil {
		return nil, err
	}
	// Validate every item up front; a malformed item fails the whole batch
	// before anything is written.
	mappings := make([]*Mapping, len(opts))
	for i, o := range opts {
		mapping, err := NewMapping(o)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		mappings[i] = mapping
	}
	mappings, err = s.db.batchUpsert(ctx, mappings)
	if err != nil {
		s.Error(err, "batch upserting mappings", "count", len(opts), "subject", subject)
		return nil, err
	}
	s.V(2).Info("batch upserted mappings", "count", len(mappings), "subject", subject)
	return mappings, nil
}

// authorizeBatch authorizes mapping creation for each distinct tenant in the
// batch.
func (s *Service) authorizeBatch(ctx context.Context, opts []UpsertOptions) (authz.Subject, error) {
	var (
		subject authz.Subject
		err     error
		seen    = make(map[resource.ID]struct{})
	)
	for _, o := range opts {
		if _, ok := seen[o.TenantID]; ok {
			continue
		}
		seen[o.TenantID] = struct{}{}
		subject, err = s.Authorize(ctx, authz.CreateMappingAction, o.TenantID)
		if err != nil {
			return nil, err
		}
	}
	if subject == nil {
		// empty batch; still require a subject for logging purposes
		return authz.SubjectFromContext(ctx)
	}
	return subject, nil
}

// Resolve translates an identifier into the entity it is bound to. It returns
// internal.ErrResourceNotFound if no mapping exists or the mapping has
// expired; an expired mapping is opportunistically deleted, and a failure to
// delete it is logged but never surfaced to the caller.
func (s *Service) Resolve(ctx context.Context, tenantID resource.ID, t Type, value string) (resource.ID, error) {
	subject, err := s.Authorize(ctx, authz.ResolveMappingAction, tenantID)
	if err != nil {
		return resource.ID{}, err
	}
	mapping, err := s.db.find(ctx, tenantID, t, value)
	if err != nil {
		if !errors.Is(err, internal.ErrResourceNotFound) {
			s.Error(err, "resolving identifier", "tenant_id", tenantID, "type", t, "subject", subject)
			return resource.ID{}, err
		}
		resolutionsMetric.WithLabelValues("miss").Inc()
		return resource.ID{}, internal.ErrResourceNotFound
	}
	if mapping.Expired(internal.CurrentTimestamp()) {
		// Lazy expiry: the mapping is semantically absent. Deleting the stale
		// row here is best-effort; failure must not alter the outcome.
		if err := s.db.delete(ctx, tenantID, t, value); err != nil {
			s.Error(err, "deleting expired mapping", "tenant_id", tenantID, "type", t)
		}
		resolutionsMetric.WithLabelValues("expired").Inc()
		return resource.ID{}, internal.ErrResourceNotFound
	}
	resolutionsMetric.WithLabelValues("hit").Inc()
	s.V(9).Info("resolved identifier", "tenant_id", tenantID, "type", t, "entity_id", mapping.EntityID, "subject", subject)
	return mapping.EntityID, nil
}

// ListByEntity returns every mapping bound to the entity, newest first.
// Expired mappings remain listed until swept: lazy expiry applies to Resolve,
// not to this listing.
func (s *Service) ListByEntity(ctx context.Context, tenantID, entityID resource.ID) ([]*Mapping, error) {
	subject, err := s.Authorize(ctx, authz.ListMappingsAction, tenantID)
	if err != nil {
		return nil, err
	}
	mappings, err := s.db.listByEntity(ctx, tenantID, entityID)
	if err != nil {
		s.Error(err, "listing mappings", "tenant_id", tenantID, "entity_id", entityID, "subject", subject)
		return nil, err
	}
	s.V(9).Info("listed mappings", "tenant_id", tenantID, "entity_id", entityID, "count", len(mappings), "subject", subject)
	return mappings, nil
}

// Delete removes a single mapping, returning internal.ErrResourceNotFound if
// no mapping exists for the tuple.
func (s *Service) Delete(ctx context.Context, tenantID resource.ID, t Type, value string) error {
	subject, err := s.Authorize(ctx, authz.DeleteMappingAction, tenantID)
	if err != nil {
		return err
	}
	if err := s.db.delete(ctx, tenantID, t, value); err != nil {
		if !errors.Is(err, internal.ErrResourceNotFound) {
			s.Error(err, "deleting mapping", "tenant_id", tenantID, "type", t, "subject", subject)
		}
		return err
	}
	s.V(1).Info("deleted mapping", "tenant_id", tenantID, "type", t, "subject", subject)
	return nil
}

// DeleteAllForEntity removes every mapping bound to the entity, returning the
// number removed. Used when an entity is being retired.
func (s *Service) DeleteAllForEntity(ctx context.Context, tenantID, entityID resource.ID) (int64, error) {
	subject, err := s.Authorize(ctx, authz.DeleteMappingAction, tenantID)
	if err != nil {
		return 0, err
	}
	count, err := s.db.deleteByEntity(ctx, tenantID, entityID)
	if err != nil {
		s.Error(err, "deleting mappings for entity", "tenant_id", tenantID, "entity_id", entityID, "subject", subject)
		return 0, err
	}
	s.V(1).Info("deleted mappings for entity", "tenant_id", tenantID, "entity_id", entityID, "count", count, "subject", subject)
	return count, nil
}

// SweepExpired deletes every mapping past its expiry, optionally scoped to
// one tenant, returning the number deleted. Sweeping with nothing expired
// deletes zero mappings and is not an error.
func (s *Service) SweepExpired(ctx context.Context, tenantID *resource.ID) (int64, error) {
	sweepScope := resource.SiteID
	if tenantID != nil {
		sweepScope = *tenantID
	}
	subject, err := s.Authorize(ctx, authz.SweepMappingsAction, sweepScope)
	if err != nil {
		return 0, err
	}
	count, err := s.db.sweep(ctx, tenantID)
	if err != nil {
		s.Error(err, "sweeping expired mappings", "subject", subject)
		return 0, err
	}
	sweptMetric.Add(float64(count))
	if count > 0 {
		s.V(0).Info("swept expired mappings", "count", count, "subject", subject)
	}
	return count, nil
}

// Stats aggregates mapping counts for a tenant without materializing the
// mappings themselves. It never sweeps as a side effect.
func (s *Service) Stats(ctx context.Context, tenantID resource.ID) (*Stats, error) {
	subject, err := s.Authorize(ctx, authz.GetMappingStatsAction, tenantID)
	if err != nil {
		return nil, err
	}
	stats, err := s.db.stats(ctx, tenantID)
	if err != nil {
		s.Error(err, "retrieving mapping stats", "tenant_id", tenantID, "subject", subject)
		return nil, err
	}
	s.V(9).Info("retrieved mapping stats", "tenant_id", tenantID, "total", stats.Total, "subject", subject)
	return stats, nil
}
