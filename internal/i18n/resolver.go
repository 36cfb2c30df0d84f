// Package i18n resolves locale-aware translation dictionaries for email
// rendering. A dictionary is a flat key->string mapping sourced from at most
// one tenant override bundle plus exactly one compiled-in fallback chain.
package i18n

import (
	"context"
	"embed"
	"fmt"

	"billmail/internal/locale"
	"billmail/internal/types"
)

//go:embed bundles/*.properties
var bundleFS embed.FS

// OverrideStore looks up a tenant-scoped bundle override. Implementations
// return found=false when no override exists for the key. Storage errors are
// reported but never abort resolution; the resolver falls back to the
// compiled-in bundles.
type OverrideStore interface {
	GetBundleOverride(ctx context.Context, tenantID string, bundleType types.BundleType, language, country string) (content string, found bool, err error)
}

// Resolver produces translation dictionaries. Dictionaries are built fresh
// per render and never mutated afterwards.
type Resolver struct {
	overrides OverrideStore
	logger    types.Logger
}

// NewResolver creates a Resolver. The override store may be nil, in which
// case only compiled-in bundles are consulted.
func NewResolver(overrides OverrideStore, logger types.Logger) *Resolver {
	return &Resolver{overrides: overrides, logger: logger}
}

// Resolve returns the dictionary for (locale, bundleType, tenant).
//
// Resolution order:
//  1. Tenant override stored under (bundleType, language, country), unless
//     tenantID is the no-tenant sentinel. A malformed override falls through,
//     it never propagates.
//  2. Compiled-in bundle for the exact locale, then language_COUNTRY, then
//     language only, then the default bundle.
//  3. An empty dictionary. A missing translation key must resolve to the
//     empty string at render time, not abort the whole email.
func (r *Resolver) Resolve(ctx context.Context, loc locale.Locale, bundleType types.BundleType, tenantID string) map[string]string {
	if tenantID != types.NoTenant && r.overrides != nil {
		content, found, err := r.overrides.GetBundleOverride(ctx, tenantID, bundleType, loc.Language, loc.Country)
		switch {
		case err != nil:
			r.logger.Warn("bundle override lookup failed, using compiled-in bundles",
				"tenant_id", tenantID,
				"bundle_type", string(bundleType),
				"locale", loc.String(),
				"error", err.Error(),
			)
		case found:
			dict, parseErr := parseProperties(content)
			if parseErr == nil {
				return dict
			}
			r.logger.Warn("malformed tenant bundle override, using compiled-in bundles",
				"tenant_id", tenantID,
				"bundle_type", string(bundleType),
				"locale", loc.String(),
				"error", parseErr.Error(),
			)
		}
	}

	for _, name := range candidateNames(loc, bundleType) {
		raw, err := bundleFS.ReadFile("bundles/" + name)
		if err != nil {
			continue
		}
		dict, parseErr := parseProperties(string(raw))
		if parseErr != nil {
			// Compiled-in bundles are validated by tests; a parse failure
			// here means a broken build, but the render must still proceed.
			r.logger.Error("compiled-in bundle failed to parse",
				"bundle", name,
				"error", parseErr.Error(),
			)
			continue
		}
		return dict
	}

	return map[string]string{}
}

// candidateNames returns the fallback chain of embedded bundle file names,
// most specific first.
func candidateNames(loc locale.Locale, bundleType types.BundleType) []string {
	prefix := string(bundleType)
	var names []string

	if loc.Variant != "" {
		names = append(names, fmt.Sprintf("%s_%s_%s_%s.properties", prefix, loc.Language, loc.Country, loc.Variant))
	}
	if loc.Country != "" {
		names = append(names, fmt.Sprintf("%s_%s_%s.properties", prefix, loc.Language, loc.Country))
	}
	names = append(names,
		fmt.Sprintf("%s_%s.properties", prefix, loc.Language),
		prefix+".properties",
	)
	return names
}
