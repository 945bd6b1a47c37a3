package healthcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/vvka-141/pgbundle/internal/bootstrap"
	"github.com/vvka-141/pgbundle/internal/config"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// Tier numbers match the order the checks run in.
const (
	TierConnectivity = iota + 1
	TierQuery
	TierExtensions
	TierInitStatus
	TierPreload
	TierCatalog
	TierRecovery
)

var tierNames = map[int]string{
	TierConnectivity: "connectivity",
	TierQuery:        "query",
	TierExtensions:   "extensions",
	TierInitStatus:   "init-status",
	TierPreload:      "preload",
	TierCatalog:      "catalog",
	TierRecovery:     "recovery",
}

// TierFailure reports the first hard tier that failed.
type TierFailure struct {
	Tier       int
	Reason     string
	Diagnostic string
	Err        error
}

func (f *TierFailure) Error() string {
	return fmt.Sprintf("tier %d (%s): %s", f.Tier, tierNames[f.Tier], f.Reason)
}

func (f *TierFailure) Unwrap() []error {
	if f.Err != nil {
		return []error{pgbundle.ErrHealthcheckFailed, f.Err}
	}
	return []error{pgbundle.ErrHealthcheckFailed}
}

// ConnectFunc opens the connection the tiers run over.
type ConnectFunc func(ctx context.Context) (pgbundle.DBConnection, error)

// Verifier runs the healthcheck tiers against a live server.
type Verifier struct {
	connect ConnectFunc
	role    config.Role
	expect  Expectations
	logger  pgbundle.Logger
}

// NewVerifier creates a verifier for the given role.
func NewVerifier(connect ConnectFunc, role config.Role, expect Expectations, logger pgbundle.Logger) *Verifier {
	if expect.MinCatalogRelations <= 0 {
		expect.MinCatalogRelations = pgbundle.MinCatalogRelations
	}
	return &Verifier{connect: connect, role: role, expect: expect, logger: logger}
}

// Verify runs every tier in order and stops at the first hard failure.
// Tier 4 only logs a warning.
func (v *Verifier) Verify(ctx context.Context) error {
	conn, err := v.connect(ctx)
	if err != nil {
		return &TierFailure{Tier: TierConnectivity, Reason: "server is not accepting connections", Err: err}
	}
	v.logger.Verbose("tier %d: connected", TierConnectivity)

	var one int
	if err := conn.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil || one != 1 {
		return &TierFailure{Tier: TierQuery, Reason: "trivial query did not return 1", Err: err}
	}
	v.logger.Verbose("tier %d: query ok", TierQuery)

	if err := v.checkExtensions(ctx, conn); err != nil {
		return err
	}

	if row, err := bootstrap.LatestStatus(ctx, conn); err == nil {
		switch row.Status {
		case bootstrap.StatusCompleted, bootstrap.StatusNoExtensions:
		default:
			v.logger.Warn("last recorded init status is %s", row.Status)
		}
	}

	if err := v.checkPreload(ctx, conn); err != nil {
		return err
	}

	var relations int
	err = conn.QueryRow(ctx, `
SELECT count(*) FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = 'pg_catalog'`).Scan(&relations)
	if err != nil {
		return &TierFailure{Tier: TierCatalog, Reason: "count pg_catalog relations", Err: err}
	}
	if relations < v.expect.MinCatalogRelations {
		return &TierFailure{
			Tier:   TierCatalog,
			Reason: fmt.Sprintf("pg_catalog has %d relations, expected at least %d", relations, v.expect.MinCatalogRelations),
		}
	}
	v.logger.Verbose("tier %d: %d catalog relations", TierCatalog, relations)

	if v.role == config.RoleReplica {
		return nil
	}
	var inRecovery bool
	if err := conn.QueryRow(ctx, "SELECT pg_is_in_recovery()").Scan(&inRecovery); err != nil {
		return &TierFailure{Tier: TierRecovery, Reason: "query recovery state", Err: err}
	}
	if inRecovery {
		return &TierFailure{Tier: TierRecovery, Reason: fmt.Sprintf("%s node is in recovery mode", v.role)}
	}
	return nil
}

func (v *Verifier) checkExtensions(ctx context.Context, conn pgbundle.DBConnection) error {
	if len(v.expect.Extensions) == 0 {
		return nil
	}
	var missing []string
	err := conn.QueryRow(ctx, `
SELECT coalesce(array_agg(e ORDER BY ord), '{}')
FROM unnest($1::text[]) WITH ORDINALITY AS t(e, ord)
WHERE NOT EXISTS (SELECT 1 FROM pg_extension WHERE extname = e)`, v.expect.Extensions).Scan(&missing)
	if err != nil {
		return &TierFailure{Tier: TierExtensions, Reason: "query pg_extension", Err: err}
	}
	if len(missing) == 0 {
		v.logger.Verbose("tier %d: %d extensions present", TierExtensions, len(v.expect.Extensions))
		return nil
	}

	failure := &TierFailure{
		Tier: TierExtensions,
		Reason: fmt.Sprintf("%d of %d expected extensions installed; missing: %s",
			len(v.expect.Extensions)-len(missing), len(v.expect.Extensions), strings.Join(missing, " ")),
	}
	if row, err := bootstrap.LatestStatus(ctx, conn); err == nil {
		failed := "none"
		if len(row.Failed) > 0 {
			failed = strings.Join(row.Failed, ",")
		}
		failure.Diagnostic = fmt.Sprintf("init status %s (failed: %s)", row.Status, failed)
	}
	return failure
}

func (v *Verifier) checkPreload(ctx context.Context, conn pgbundle.DBConnection) error {
	if len(v.expect.Preload) == 0 {
		return nil
	}
	var setting string
	if err := conn.QueryRow(ctx, "SELECT current_setting('shared_preload_libraries')").Scan(&setting); err != nil {
		return &TierFailure{Tier: TierPreload, Reason: "read shared_preload_libraries", Err: err}
	}
	loaded := make(map[string]bool)
	for _, lib := range strings.Split(setting, ",") {
		loaded[strings.Trim(strings.TrimSpace(lib), `"`)] = true
	}
	for _, lib := range v.expect.Preload {
		if !loaded[lib] {
			return &TierFailure{Tier: TierPreload, Reason: fmt.Sprintf("preload library %s is not in shared_preload_libraries", lib)}
		}
	}
	v.logger.Verbose("tier %d: preload libraries present", TierPreload)
	return nil
}
