package event

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stitchkit/stitch/internal/resource"
	"github.com/stitchkit/stitch/internal/sql"
)

// pgdb is a database of events on postgres
type pgdb struct {
	*sql.DB
}

func (db *pgdb) create(ctx context.Context, event *Event) error {
	_, err := db.Exec(ctx, `
INSERT INTO events (
    event_id,
    tenant_id,
    entity_id,
    name,
    payload,
    occurred_at,
    created_at
) VALUES (
    @event_id,
    @tenant_id,
    @entity_id,
    @name,
    @payload,
    @occurred_at,
    @created_at
)`,
		pgx.NamedArgs{
			"event_id":    event.ID,
			"tenant_id":   event.TenantID,
			"entity_id":   event.EntityID,
			"name":        event.Name,
			"payload":     event.Payload,
			"occurred_at": event.OccurredAt,
			"created_at":  event.CreatedAt,
		},
	)
	return err
}

func (db *pgdb) listByEntity(ctx context.Context, tenantID, entityID resource.ID) ([]*Event, error) {
	rows := db.Query(ctx, `
SELECT
    event_id AS id,
    tenant_id,
    entity_id,
    name,
    payload,
    occurred_at,
    created_at
FROM events
WHERE tenant_id = $1
AND   entity_id = $2
ORDER BY occurred_at DESC
`, tenantID, entityID)
	return sql.CollectRows(rows, func(row pgx.CollectableRow) (*Event, error) {
		return pgx.RowToAddrOfStructByName[Event](row)
	})
}
