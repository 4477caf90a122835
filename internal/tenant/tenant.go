// Package tenant manages tenants, the isolated customer workspaces that
// partition all other data.
package tenant

import (
	"regexp"
	"time"

	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/resource"
)

// reName validates tenant names: alphanumerics, hyphens and underscores.
var reName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_]*$`)

type (
	// Tenant is an isolated customer workspace.
	Tenant struct {
		ID        resource.ID `json:"id"`
		CreatedAt time.Time   `json:"created_at"`
		UpdatedAt time.Time   `json:"updated_at"`
		Name      string      `json:"name"`
	}

	// CreateOptions are options for creating a tenant.
	CreateOptions struct {
		Name *string `json:"name"`
	}
)

func NewTenant(opts CreateOptions) (*Tenant, error) {
	if opts.Name == nil {
		return nil, internal.ErrRequiredName
	}
	if !reName.MatchString(*opts.Name) {
		return nil, internal.ErrInvalidName
	}
	now := internal.CurrentTimestamp()
	return &Tenant{
		ID:        resource.NewID(resource.TenantKind),
		Name:      *opts.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
