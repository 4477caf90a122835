package profile

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/resource"
	"github.com/stitchkit/stitch/internal/sql"
)

// pgdb is a database of profiles on postgres
type pgdb struct {
	*sql.DB
}

func (db *pgdb) create(ctx context.Context, profile *Profile) error {
	_, err := db.Exec(ctx, `
INSERT INTO profiles (
    profile_id,
    tenant_id,
    attributes,
    created_at,
    updated_at
) VALUES (
    @profile_id,
    @tenant_id,
    @attributes,
    @created_at,
    @updated_at
)
`,
		pgx.NamedArgs{
			"profile_id": profile.ID,
			"tenant_id":  profile.TenantID,
			"attributes": []byte(profile.Attributes),
			"created_at": profile.CreatedAt,
			"updated_at": profile.UpdatedAt,
		},
	)
	return err
}

func (db *pgdb) get(ctx context.Context, tenantID, profileID resource.ID) (*Profile, error) {
	rows := db.Query(ctx, `
SELECT profile_id AS id, tenant_id, attributes, created_at, updated_at
FROM profiles
WHERE tenant_id = $1
AND   profile_id = $2
`, tenantID, profileID)
	return sql.CollectOneRow(rows, scan)
}

func (db *pgdb) list(ctx context.Context, tenantID resource.ID) ([]*Profile, error) {
	rows := db.Query(ctx, `
SELECT profile_id AS id, tenant_id, attributes, created_at, updated_at
FROM profiles
WHERE tenant_id = $1
ORDER BY created_at DESC
`, tenantID)
	return sql.CollectRows(rows, scan)
}

func (db *pgdb) update(ctx context.Context, tenantID, profileID resource.ID, fn func(context.Context, *Profile) error) (*Profile, error) {
	var profile *Profile
	err := db.Tx(ctx, func(ctx context.Context) error {
		rows := db.Query(ctx, `
SELECT profile_id AS id, tenant_id, attributes, created_at, updated_at
FROM profiles
WHERE tenant_id = $1
AND   profile_id = $2
FOR UPDATE
`, tenantID, profileID)
		var err error
		profile, err = sql.CollectOneRow(rows, scan)
		if err != nil {
			return err
		}
		if err := fn(ctx, profile); err != nil {
			return err
		}
		_, err = db.Exec(ctx, `
UPDATE profiles
SET attributes = $1, updated_at = $2
WHERE profile_id = $3
`, []byte(profile.Attributes), profile.UpdatedAt, profile.ID)
		return err
	})
	return profile, err
}

func (db *pgdb) delete(ctx context.Context, tenantID, profileID resource.ID) error {
	result, err := db.Exec(ctx, `
DELETE
FROM profiles
WHERE tenant_id = $1
AND   profile_id = $2
`, tenantID, profileID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return internal.ErrResourceNotFound
	}
	return nil
}

func scan(row pgx.CollectableRow) (*Profile, error) {
	return pgx.RowToAddrOfStructByName[Profile](row)
}
