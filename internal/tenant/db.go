package tenant

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/resource"
	"github.com/stitchkit/stitch/internal/sql"
)

// pgdb is a database of tenants on postgres
type pgdb struct {
	*sql.DB
}

func (db *pgdb) create(ctx context.Context, tenant *Tenant) error {
	_, err := db.Exec(ctx, `
INSERT INTO tenants (
    tenant_id,
    name,
    created_at,
    updated_at
) VALUES (
    @tenant_id,
    @name,
    @created_at,
    @updated_at
)
`,
		pgx.NamedArgs{
			"tenant_id":  tenant.ID,
			"name":       tenant.Name,
			"created_at": tenant.CreatedAt,
			"updated_at": tenant.UpdatedAt,
		},
	)
	return err
}

func (db *pgdb) get(ctx context.Context, tenantID resource.ID) (*Tenant, error) {
	rows := db.Query(ctx, `
SELECT tenant_id AS id, name, created_at, updated_at
FROM tenants
WHERE tenant_id = $1
`, tenantID)
	return sql.CollectOneRow(rows, scan)
}

func (db *pgdb) list(ctx context.Context) ([]*Tenant, error) {
	rows := db.Query(ctx, `
SELECT tenant_id AS id, name, created_at, updated_at
FROM tenants
ORDER BY name
`)
	return sql.CollectRows(rows, scan)
}

func (db *pgdb) delete(ctx context.Context, tenantID resource.ID) error {
	result, err := db.Exec(ctx, `
DELETE
FROM tenants
WHERE tenant_id = $1
`, tenantID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return internal.ErrResourceNotFound
	}
	return nil
}

func scan(row pgx.CollectableRow) (*Tenant, error) {
	return pgx.RowToAddrOfStructByName[Tenant](row)
}
