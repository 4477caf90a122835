package tenant

import (
	"context"
	"fmt"

	"github.com/gorilla/mux"
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

		db  *pgdb
		api *apiHandlers

		beforeDeleteHooks []func(context.Context, *Tenant) error
	}

	Options struct {
		logr.Logger
		Authorizer authz.Interface

		*sql.DB
		*api.Responder
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

func (s *Service) Create(ctx context.Context, opts CreateOptions) (*Tenant, error) {
	subject, err := s.Authorize(ctx, authz.CreateTenantAction, resource.SiteID)
	if err != nil {
		return nil, err
	}
	tenant, err := NewTenant(opts)
	if err != nil {
		return nil, fmt.Errorf("creating tenant: %w", err)
	}
	if err := s.db.create(ctx, tenant); err != nil {
		s.Error(err, "creating tenant", "name", tenant.Name, "subject", subject)
		return nil, err
	}
	s.V(0).Info("created tenant", "id", tenant.ID, "name", tenant.Name, "subject", subject)
	return tenant, nil
}

func (s *Service) Get(ctx context.Context, tenantID resource.ID) (*Tenant, error) {
	subject, err := s.Authorize(ctx, authz.GetTenantAction, tenantID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.db.get(ctx, tenantID)
	if err != nil {
		s.Error(err, "retrieving tenant", "id", tenantID, "subject", subject)
		return nil, err
	}
	s.V(9).Info("retrieved tenant", "id", tenantID, "subject", subject)
	return tenant, nil
}

func (s *Service) List(ctx context.Context) ([]*Tenant, error) {
	subject, err := s.Authorize(ctx, authz.ListTenantsAction, resource.SiteID)
	if err != nil {
		return nil, err
	}
	tenants, err := s.db.list(ctx)
	if err != nil {
		s.Error(err, "listing tenants", "subject", subject)
		return nil, err
	}
	s.V(9).Info("listed tenants", "count", len(tenants), "subject", subject)
	return tenants, nil
}

// Delete deletes a tenant. The storage layer cascades deletion to the
// tenant's profiles, identity mappings and events.
func (s *Service) Delete(ctx context.Context, tenantID resource.ID) error {
	subject, err := s.Authorize(ctx, authz.DeleteTenantAction, tenantID)
	if err != nil {
		return err
	}
	err = s.db.Tx(ctx, func(ctx context.Context) error {
		tenant, err := s.db.get(ctx, tenantID)
		if err != nil {
			return err
		}
		for _, hook := range s.beforeDeleteHooks {
			if err := hook(ctx, tenant); err != nil {
				return err
			}
		}
		return s.db.delete(ctx, tenantID)
	})
	if err != nil {
		s.Error(err, "deleting tenant", "id", tenantID, "subject", subject)
		return err
	}
	s.V(0).Info("deleted tenant", "id", tenantID, "subject", subject)
	return nil
}

func (s *Service) BeforeDeleteTenant(hook func(context.Context, *Tenant) error) {
	s.beforeDeleteHooks = append(s.beforeDeleteHooks, hook)
}
