package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/mux"
	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/api"
	"github.com/stitchkit/stitch/internal/authz"
	"github.com/stitchkit/stitch/internal/identity"
	"github.com/stitchkit/stitch/internal/logr"
	"github.com/stitchkit/stitch/internal/resource"
	"github.com/stitchkit/stitch/internal/sql"
)

type (
	Service struct {
		logr.Logger
		authz.Interface

		db       storage
		identity identityClient
		api      *apiHandlers
	}

	Options struct {
		logr.Logger
		Authorizer authz.Interface

		*sql.DB
		*api.Responder
		IdentityService identityClient
	}

	// identityClient is the slice of the identity mapping store that event
	// ingestion depends upon.
	identityClient interface {
		Resolve(ctx context.Context, tenantID resource.ID, t identity.Type, value string) (resource.ID, error)
		BatchUpsert(ctx context.Context, opts []identity.UpsertOptions) ([]*identity.Mapping, error)
	}

	storage interface {
		create(ctx context.Context, event *Event) error
		listByEntity(ctx context.Context, tenantID, entityID resource.ID) ([]*Event, error)
	}

	// Identifier names one way a tenant recognises an entity, for use in
	// identify calls.
	Identifier struct {
		Type  identity.Type `json:"type"`
		Value string        `json:"value"`
	}
)

func NewService(opts Options) *Service {
	svc := Service{
		Logger:    opts.Logger,
		Interface: opts.Authorizer,
		db:        &pgdb{opts.DB},
		identity:  opts.IdentityService,
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

// Ingest records an event, attributing it to the entity the reporting
// identifier resolves to. An unresolvable identifier is not an error: the
// event is stored unattributed.
func (s *Service) Ingest(ctx context.Context, opts IngestOptions) (*Event, error) {
	subject, err := s.Authorize(ctx, authz.IngestEventAction, opts.TenantID)
	if err != nil {
		return nil, err
	}
	var entityID *resource.ID
	resolved, err := s.identity.Resolve(ctx, opts.TenantID, opts.IdentifierType, opts.IdentifierValue)
	switch {
	case err == nil:
		entityID = &resolved
	case errors.Is(err, internal.ErrResourceNotFound):
		// unknown visitor; store the event unattributed
	default:
		s.Error(err, "resolving identifier for event", "tenant_id", opts.TenantID, "subject", subject)
		return nil, err
	}
	event, err := newEvent(opts, entityID)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	if err := s.db.create(ctx, event); err != nil {
		s.Error(err, "ingesting event", "tenant_id", opts.TenantID, "name", opts.Name, "subject", subject)
		return nil, err
	}
	s.V(2).Info("ingested event", "id", event.ID, "tenant_id", event.TenantID, "name", event.Name, "subject", subject)
	return event, nil
}

// Identify binds the given identifiers to an entity in one atomic batch. This
// is the stitching moment: a sign-up or login where a tenant learns that
// several identifiers belong to the same person. Each identifier receives its
// type's default TTL.
func (s *Service) Identify(ctx context.Context, tenantID, entityID resource.ID, identifiers []Identifier) ([]*identity.Mapping, error) {
	subject, err := s.Authorize(ctx, authz.IngestEventAction, tenantID)
	if err != nil {
		return nil, err
	}
	if len(identifiers) == 0 {
		return nil, &internal.ErrMissingParameter{Parameter: "identifiers"}
	}
	batch := make([]identity.UpsertOptions, len(identifiers))
	for i, ident := range identifiers {
		batch[i] = identity.UpsertOptions{
			TenantID:  tenantID,
			Type:      ident.Type,
			Value:     ident.Value,
			EntityID:  entityID,
			ExpiresAt: ident.Type.DefaultExpiry(internal.CurrentTimestamp()),
		}
	}
	mappings, err := s.identity.BatchUpsert(ctx, batch)
	if err != nil {
		s.Error(err, "identifying entity", "tenant_id", tenantID, "entity_id", entityID, "subject", subject)
		return nil, err
	}
	s.V(1).Info("identified entity", "tenant_id", tenantID, "entity_id", entityID, "count", len(mappings), "subject", subject)
	return mappings, nil
}

// ListByEntity returns the events attributed to an entity, most recent first.
func (s *Service) ListByEntity(ctx context.Context, tenantID, entityID resource.ID) ([]*Event, error) {
	subject, err := s.Authorize(ctx, authz.ListEventsAction, tenantID)
	if err != nil {
		return nil, err
	}
	events, err := s.db.listByEntity(ctx, tenantID, entityID)
	if err != nil {
		s.Error(err, "listing events", "tenant_id", tenantID, "entity_id", entityID, "subject", subject)
		return nil, err
	}
	s.V(9).Info("listed events", "tenant_id", tenantID, "entity_id", entityID, "count", len(events), "subject", subject)
	return events, nil
}
