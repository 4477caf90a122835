package profile

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

func (s *Service) Create(ctx context.Context, opts CreateOptions) (*Profile, error) {
	subject, err := s.Authorize(ctx, authz.CreateProfileAction, opts.TenantID)
	if err != nil {
		return nil, err
	}
	profile, err := NewProfile(opts)
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	if err := s.db.create(ctx, profile); err != nil {
		s.Error(err, "creating profile", "tenant_id", opts.TenantID, "subject", subject)
		return nil, err
	}
	s.V(1).Info("created profile", "id", profile.ID, "tenant_id", profile.TenantID, "subject", subject)
	return profile, nil
}

func (s *Service) Get(ctx context.Context, tenantID, profileID resource.ID) (*Profile, error) {
	subject, err := s.Authorize(ctx, authz.GetProfileAction, tenantID)
	if err != nil {
		return nil, err
	}
	profile, err := s.db.get(ctx, tenantID, profileID)
	if err != nil {
		s.Error(err, "retrieving profile", "id", profileID, "subject", subject)
		return nil, err
	}
	s.V(9).Info("retrieved profile", "id", profileID, "subject", subject)
	return profile, nil
}

func (s *Service) List(ctx context.Context, tenantID resource.ID) ([]*Profile, error) {
	subject, err := s.Authorize(ctx, authz.ListProfilesAction, tenantID)
	if err != nil {
		return nil, err
	}
	profiles, err := s.db.list(ctx, tenantID)
	if err != nil {
		s.Error(err, "listing profiles", "tenant_id", tenantID, "subject", subject)
		return nil, err
	}
	s.V(9).Info("listed profiles", "tenant_id", tenantID, "count", len(profiles), "subject", subject)
	return profiles, nil
}

// Update merges attributes into a profile. The merge is carried out within a
// transaction, locking the row to avoid clobbering a concurrent update.
func (s *Service) Update(ctx context.Context, tenantID, profileID resource.ID, opts UpdateOptions) (*Profile, error) {
	subject, err := s.Authorize(ctx, authz.UpdateProfileAction, tenantID)
	if err != nil {
		return nil, err
	}
	profile, err := s.db.update(ctx, tenantID, profileID, func(ctx context.Context, profile *Profile) error {
		return profile.Update(opts)
	})
	if err != nil {
		s.Error(err, "updating profile", "id", profileID, "subject", subject)
		return nil, err
	}
	s.V(2).Info("updated profile", "id", profileID, "subject", subject)
	return profile, nil
}

// Delete deletes a profile. The storage layer cascades deletion to the
// profile's identity mappings via a referential constraint.
func (s *Service) Delete(ctx context.Context, tenantID, profileID resource.ID) error {
	subject, err := s.Authorize(ctx, authz.DeleteProfileAction, tenantID)
	if err != nil {
		return err
	}
	if err := s.db.delete(ctx, tenantID, profileID); err != nil {
		s.Error(err, "deleting profile", "id", profileID, "subject", subject)
		return err
	}
	s.V(0).Info("deleted profile", "id", profileID, "subject", subject)
	return nil
}
