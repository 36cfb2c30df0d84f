package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"billmail/internal/types"
)

// OverrideRepository provides data access for tenant-scoped translation
// bundle and template overrides. It implements i18n.OverrideStore and
// template.OverrideSource.
//
// Tables:
//
//	tenant_bundles   {tenant_id, bundle_type, language, country, content}
//	tenant_templates {tenant_id, template_type, content}
type OverrideRepository struct {
	db DBTX
}

// NewOverrideRepository creates an OverrideRepository.
func NewOverrideRepository(db DBTX) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// GetBundleOverride returns the tenant's bundle override for the given
// (bundle type, language, country) key. found is false when no row exists,
// and also when more than one row matches: an ambiguous override is treated
// as absent rather than picking one arbitrarily.
func (r *OverrideRepository) GetBundleOverride(ctx context.Context, tenantID string, bundleType types.BundleType, language, country string) (string, bool, error) {
	rows, err := r.db.Query(ctx,
		`SELECT content
		 FROM tenant_bundles
		 WHERE tenant_id = $1 AND bundle_type = $2 AND language = $3 AND country = $4
		 LIMIT 2`,
		tenantID, string(bundleType), language, country,
	)
	if err != nil {
		return "", false, types.NewAppError(types.ErrCodeStorageQuery, "failed to read tenant bundle override", err)
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return "", false, types.NewAppError(types.ErrCodeStorageQuery, "failed to scan tenant bundle override", err)
		}
		contents = append(contents, c)
	}
	if err := rows.Err(); err != nil {
		return "", false, types.NewAppError(types.ErrCodeStorageQuery, "error iterating tenant bundle overrides", err)
	}

	if len(contents) != 1 {
		return "", false, nil
	}
	return contents[0], true, nil
}

// GetTemplateOverride returns the tenant's template body override for the
// given template type, if one exists.
func (r *OverrideRepository) GetTemplateOverride(ctx context.Context, tenantID string, templateType types.TemplateType) (string, bool, error) {
	var content string
	err := r.db.QueryRow(ctx,
		`SELECT content
		 FROM tenant_templates
		 WHERE tenant_id = $1 AND template_type = $2`,
		tenantID, string(templateType),
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, types.NewAppError(types.ErrCodeStorageQuery, "failed to read tenant template override", err)
	}
	return content, true, nil
}
