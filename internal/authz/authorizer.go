package authz

import (
	"context"
	"errors"

	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/logr"
	"github.com/stitchkit/stitch/internal/resource"
)

// Authorizer intermediates authorization between subjects (entities
// requesting access) and resources (the entities to which access is being
// requested).
type Authorizer struct {
	logr.Logger
}

// Interface provides an interface for services to use to permit swapping out
// the authorizer for tests.
type Interface interface {
	Authorize(ctx context.Context, action Action, id resource.ID, opts ...CanAccessOption) (Subject, error)
	CanAccess(ctx context.Context, action Action, id resource.ID) bool
}

func NewAuthorizer(logger logr.Logger) *Authorizer {
	return &Authorizer{Logger: logger}
}

// CanAccessOption configures individual calls to Authorize.
type CanAccessOption func(*canAccessConfig)

// WithoutErrorLogging disables logging an unauthorized error. This can be
// useful if just checking whether a subject can do something.
func WithoutErrorLogging() CanAccessOption {
	return func(cfg *canAccessConfig) {
		cfg.disableLogs = true
	}
}

type canAccessConfig struct {
	disableLogs bool
}

// Authorize determines whether the subject can carry out an action on a
// resource. The subject is expected to be contained within the context.
func (a *Authorizer) Authorize(ctx context.Context, action Action, resourceID resource.ID, opts ...CanAccessOption) (Subject, error) {
	if resourceID.IsZero() {
		return nil, errors.New("authorization request resourceID parameter cannot be zero")
	}
	var cfg canAccessConfig
	for _, fn := range opts {
		fn(&cfg)
	}
	subj, err := SubjectFromContext(ctx)
	if err != nil {
		return nil, err
	}
	// Allow context to contain specific instruction to skip authorization.
	// Should only be used for testing purposes.
	if SkipAuthz(ctx) {
		return subj, nil
	}
	if !subj.CanAccess(action, resourceID) {
		if !cfg.disableLogs {
			a.Error(internal.ErrAccessNotPermitted, "authorization failure",
				"resource", resourceID,
				"action", action.String(),
				"subject", subj,
			)
		}
		return subj, internal.ErrAccessNotPermitted
	}
	return subj, nil
}

// CanAccess is a helper to boil down an access request to a true/false
// decision, with any error encountered interpreted as false.
func (a *Authorizer) CanAccess(ctx context.Context, action Action, id resource.ID) bool {
	_, err := a.Authorize(ctx, action, id, WithoutErrorLogging())
	return err == nil
}
