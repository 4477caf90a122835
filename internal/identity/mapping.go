// Package identity implements the identity mapping store, the tenant-scoped
// index that resolves identifiers to canonical profile identities.
package identity

import (
	"time"

	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/resource"
)

// Conventionally-known identifier types. The set is open-ended: a tenant may
// record mappings with types not listed here without any schema change.
const (
	Email       Type = "email"
	Phone       Type = "phone"
	UserID      Type = "user_id"
	Session     Type = "session"
	Cookie      Type = "cookie"
	DeviceID    Type = "device_id"
	AnonymousID Type = "anonymous_id"
)

// Default TTLs for ephemeral identifier types. These are policy, applied by
// callers via DefaultExpiry; Upsert itself never applies them, so a caller
// can always override.
const (
	SessionTTL = 30 * 24 * time.Hour
	CookieTTL  = 365 * 24 * time.Hour
)

type (
	// Type tags an identifier with the way it recognises a visitor, e.g.
	// email, cookie, session.
	Type string

	// Mapping binds an identifier to the entity it currently resolves to.
	// At most one mapping exists per (tenant, type, value) tuple.
	Mapping struct {
		TenantID  resource.ID `json:"tenant_id"`
		Type      Type        `json:"type"`
		Value     string      `json:"value"`
		EntityID  resource.ID `json:"entity_id"`
		CreatedAt time.Time   `json:"created_at"`
		// ExpiresAt is nil for permanent mappings. A mapping past its expiry
		// is semantically absent for resolution even before it is physically
		// deleted.
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
	}

	// UpsertOptions are options for creating or replacing a mapping.
	UpsertOptions struct {
		TenantID  resource.ID `json:"tenant_id"`
		Type      Type        `json:"type"`
		Value     string      `json:"value"`
		EntityID  resource.ID `json:"entity_id"`
		ExpiresAt *time.Time  `json:"expires_at,omitempty"`
	}
)

// NewMapping constructs a mapping from the given options, validating required
// fields. ExpiresAt is taken as given: use NewMappingWithDefaultTTL to apply
// the type's default TTL.
func NewMapping(opts UpsertOptions) (*Mapping, error) {
	switch {
	case opts.TenantID.IsZero():
		return nil, &internal.ErrMissingParameter{Parameter: "tenant_id"}
	case opts.Type == "":
		return nil, &internal.ErrMissingParameter{Parameter: "type"}
	case opts.Value == "":
		return nil, &internal.ErrMissingParameter{Parameter: "value"}
	case opts.EntityID.IsZero():
		return nil, &internal.ErrMissingParameter{Parameter: "entity_id"}
	}
	return &Mapping{
		TenantID:  opts.TenantID,
		Type:      opts.Type,
		Value:     opts.Value,
		EntityID:  opts.EntityID,
		CreatedAt: internal.CurrentTimestamp(),
		ExpiresAt: opts.ExpiresAt,
	}, nil
}

// NewMappingWithDefaultTTL constructs a mapping, applying the type's default
// TTL if the options do not specify an expiry.
func NewMappingWithDefaultTTL(opts UpsertOptions) (*Mapping, error) {
	if opts.ExpiresAt == nil {
		opts.ExpiresAt = opts.Type.DefaultExpiry(internal.CurrentTimestamp())
	}
	return NewMapping(opts)
}

// Expired determines whether the mapping has expired relative to the given
// time. Permanent mappings never expire.
func (m *Mapping) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && m.ExpiresAt.Before(now)
}

func (t Type) String() string { return string(t) }

// Permanent determines whether identifiers of this type are inherently
// permanent, i.e. never given a default expiry.
func (t Type) Permanent() bool {
	switch t {
	case Email, Phone, UserID:
		return true
	default:
		return false
	}
}

// DefaultExpiry returns the default expiry for identifiers of this type
// relative to the given time, or nil for types without a default TTL.
func (t Type) DefaultExpiry(now time.Time) *time.Time {
	switch t {
	case Session:
		return internal.Time(now.Add(SessionTTL))
	case Cookie:
		return internal.Time(now.Add(CookieTTL))
	default:
		return nil
	}
}
