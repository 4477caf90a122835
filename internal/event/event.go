// Package event implements behavioural event ingestion, the primary producer
// of identity mappings.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/identity"
	"github.com/stitchkit/stitch/internal/resource"
)

type (
	// Event is a behavioural fact reported by a tenant, e.g. a page view or a
	// purchase, attributed where possible to a canonical entity.
	Event struct {
		ID       uuid.UUID   `json:"id"`
		TenantID resource.ID `json:"tenant_id"`
		// EntityID is nil when the reporting identifier could not be resolved;
		// the event is retained unattributed.
		EntityID   *resource.ID    `json:"entity_id,omitempty"`
		Name       string          `json:"name"`
		Payload    json.RawMessage `json:"payload"`
		OccurredAt time.Time       `json:"occurred_at"`
		CreatedAt  time.Time       `json:"created_at"`
	}

	// IngestOptions are options for ingesting an event. The identifier tells
	// the store who reported the event; it need not be mapped.
	IngestOptions struct {
		TenantID        resource.ID     `json:"tenant_id"`
		IdentifierType  identity.Type   `json:"identifier_type"`
		IdentifierValue string          `json:"identifier_value"`
		Name            string          `json:"name"`
		Payload         json.RawMessage `json:"payload,omitempty"`
		OccurredAt      *time.Time      `json:"occurred_at,omitempty"`
	}
)

func newEvent(opts IngestOptions, entityID *resource.ID) (*Event, error) {
	switch {
	case opts.TenantID.IsZero():
		return nil, &internal.ErrMissingParameter{Parameter: "tenant_id"}
	case opts.IdentifierType == "":
		return nil, &internal.ErrMissingParameter{Parameter: "identifier_type"}
	case opts.IdentifierValue == "":
		return nil, &internal.ErrMissingParameter{Parameter: "identifier_value"}
	case opts.Name == "":
		return nil, &internal.ErrMissingParameter{Parameter: "name"}
	}
	now := internal.CurrentTimestamp()
	occurredAt := now
	if opts.OccurredAt != nil {
		occurredAt = *opts.OccurredAt
	}
	payload := opts.Payload
	if payload == nil {
		payload = json.RawMessage("{}")
	}
	return &Event{
		ID:         uuid.New(),
		TenantID:   opts.TenantID,
		EntityID:   entityID,
		Name:       opts.Name,
		Payload:    payload,
		OccurredAt: occurredAt,
		CreatedAt:  now,
	}, nil
}
