// Package profile manages profiles, the canonical identities that identity
// mappings resolve to.
package profile

import (
	"encoding/json"
	"time"

	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/resource"
)

type (
	// Profile is the unified record of a person or device within a tenant.
	// One or more identifiers resolve to a profile via identity mappings.
	Profile struct {
		ID         resource.ID     `json:"id"`
		TenantID   resource.ID     `json:"tenant_id"`
		CreatedAt  time.Time       `json:"created_at"`
		UpdatedAt  time.Time       `json:"updated_at"`
		Attributes json.RawMessage `json:"attributes"`
	}

	// CreateOptions are options for creating a profile.
	CreateOptions struct {
		TenantID   resource.ID     `json:"tenant_id"`
		Attributes json.RawMessage `json:"attributes"`
	}

	// UpdateOptions are options for updating a profile's attributes.
	UpdateOptions struct {
		Attributes json.RawMessage `json:"attributes"`
	}
)

func NewProfile(opts CreateOptions) (*Profile, error) {
	if opts.TenantID.IsZero() {
		return nil, &internal.ErrMissingParameter{Parameter: "tenant_id"}
	}
	attrs := opts.Attributes
	if attrs == nil {
		attrs = json.RawMessage(`{}`)
	}
	now := internal.CurrentTimestamp()
	return &Profile{
		ID:         resource.NewID(resource.ProfileKind),
		TenantID:   opts.TenantID,
		Attributes: attrs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Update merges the given attributes into the profile's attributes, with
// given attributes taking precedence over existing ones.
func (p *Profile) Update(opts UpdateOptions) error {
	if opts.Attributes == nil {
		return nil
	}
	var existing, updates map[string]json.RawMessage
	if err := json.Unmarshal(p.Attributes, &existing); err != nil {
		return err
	}
	if err := json.Unmarshal(opts.Attributes, &updates); err != nil {
		return err
	}
	if existing == nil {
		existing = make(map[string]json.RawMessage, len(updates))
	}
	for k, v := range updates {
		existing[k] = v
	}
	merged, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	p.Attributes = merged
	p.UpdatedAt = internal.CurrentTimestamp()
	return nil
}
