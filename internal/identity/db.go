package identity

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/resource"
	"github.com/stitchkit/stitch/internal/sql"
)

// pgdb is a database of identity mappings on postgres
type pgdb struct {
	*sql.DB
}

// upsert inserts a mapping, or, upon conflict with an existing mapping for
// the same (tenant, type, value) tuple, replaces its entity and expiry. The
// primary key makes insert-or-replace atomic: concurrent upserts of the same
// tuple cannot race into two rows. The original created_at is retained on
// replacement.
func (db *pgdb) upsert(ctx context.Context, mapping *Mapping) (*Mapping, error) {
	rows := db.Query(ctx, `
INSERT INTO identity_mappings (
    tenant_id,
    identifier_type,
    identifier_value,
    entity_id,
    created_at,
    expires_at
) VALUES (
    @tenant_id,
    @identifier_type,
    @identifier_value,
    @entity_id,
    @created_at,
    @expires_at
)
ON CONFLICT (tenant_id, identifier_type, identifier_value) DO UPDATE
SET entity_id  = EXCLUDED.entity_id,
    expires_at = EXCLUDED.expires_at
RETURNING
    tenant_id,
    identifier_type AS type,
    identifier_value AS value,
    entity_id,
    created_at,
    expires_at
`,
		pgx.NamedArgs{
			"tenant_id":        mapping.TenantID,
			"identifier_type":  mapping.Type,
			"identifier_value": mapping.Value,
			"entity_id":        mapping.EntityID,
			"created_at":       mapping.CreatedAt,
			"expires_at":       mapping.ExpiresAt,
		},
	)
	return sql.CollectOneRow(rows, scan)
}

// batchUpsert applies the upserts within a single transaction; an error
// applying any one of them rolls back them all.
func (db *pgdb) batchUpsert(ctx context.Context, mappings []*Mapping) ([]*Mapping, error) {
	results := make([]*Mapping, len(mappings))
	err := db.Tx(ctx, func(ctx context.Context) error {
		for i, mapping := range mappings {
			result, err := db.upsert(ctx, mapping)
			if err != nil {
				return err
			}
			results[i] = result
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (db *pgdb) find(ctx context.Context, tenantID resource.ID, t Type, value string) (*Mapping, error) {
	rows := db.Query(ctx, `
SELECT
    tenant_id,
    identifier_type AS type,
    identifier_value AS value,
    entity_id,
    created_at,
    expires_at
FROM identity_mappings
WHERE tenant_id = $1
AND   identifier_type = $2
AND   identifier_value = $3
`, tenantID, t, value)
	return sql.CollectOneRow(rows, scan)
}

func (db *pgdb) listByEntity(ctx context.Context, tenantID, entityID resource.ID) ([]*Mapping, error) {
	rows := db.Query(ctx, `
SELECT
    tenant_id,
    identifier_type AS type,
    identifier_value AS value,
    entity_id,
    created_at,
    expires_at
FROM identity_mappings
WHERE tenant_id = $1
AND   entity_id = $2
ORDER BY created_at DESC
`, tenantID, entityID)
	return sql.CollectRows(rows, scan)
}

func (db *pgdb) delete(ctx context.Context, tenantID resource.ID, t Type, value string) error {
	result, err := db.Exec(ctx, `
DELETE
FROM identity_mappings
WHERE tenant_id = $1
AND   identifier_type = $2
AND   identifier_value = $3
`, tenantID, t, value)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return internal.ErrResourceNotFound
	}
	return nil
}

func (db *pgdb) deleteByEntity(ctx context.Context, tenantID, entityID resource.ID) (int64, error) {
	result, err := db.Exec(ctx, `
DELETE
FROM identity_mappings
WHERE tenant_id = $1
AND   entity_id = $2
`, tenantID, entityID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// sweep deletes every expired mapping, optionally scoped to a tenant. The
// partial index on expires_at lets the scan skip permanent mappings.
func (db *pgdb) sweep(ctx context.Context, tenantID *resource.ID) (int64, error) {
	result, err := db.Exec(ctx, `
DELETE
FROM identity_mappings
WHERE expires_at IS NOT NULL
AND   expires_at < current_timestamp
AND   ($1::text IS NULL OR tenant_id = $1)
`, tenantID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (db *pgdb) stats(ctx context.Context, tenantID resource.ID) (*Stats, error) {
	rows := db.Query(ctx, `
SELECT
    identifier_type AS type,
    count(*) AS count,
    count(*) FILTER (WHERE expires_at IS NOT NULL AND expires_at < current_timestamp) AS expired
FROM identity_mappings
WHERE tenant_id = $1
GROUP BY identifier_type
ORDER BY count DESC, identifier_type
`, tenantID)
	counts, err := sql.CollectRows(rows, pgx.RowToStructByName[typeCountRow])
	if err != nil {
		return nil, err
	}
	stats := Stats{ByType: make([]TypeCount, len(counts))}
	for i, row := range counts {
		stats.ByType[i] = TypeCount{Type: row.Type, Count: row.Count}
		stats.Total += row.Count
		stats.ExpiredCount += row.Expired
	}
	return &stats, nil
}

type typeCountRow struct {
	Type    Type
	Count   int64
	Expired int64
}

func scan(row pgx.CollectableRow) (*Mapping, error) {
	return pgx.RowToAddrOfStructByName[Mapping](row)
}
