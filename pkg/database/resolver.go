package database

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ci-pae/engine/pkg/config"
	"github.com/ci-pae/engine/pkg/logging"
)

// FallbackRole is the least-privilege read-only role substituted for
// unrecognized or absent roles.
const FallbackRole = "user"

// knownRoles is the closed set of access tiers the database defines grants
// for. A role outside this set falls back to FallbackRole; a role inside it
// without configured credentials is a configuration error, never a silent
// substitute.
var knownRoles = map[string]struct{}{
	"researcher":   {},
	"analyst":      {},
	"policy_admin": {},
	"statistician": {},
	FallbackRole:   {},
}

// RoleConfigurationError indicates a recognized role has no configured
// database credentials.
type RoleConfigurationError struct {
	Role string
}

func (e *RoleConfigurationError) Error() string {
	return fmt.Sprintf("no database credentials configured for role %q", e.Role)
}

// PoolDialer opens a connection pool. Injected so tests can substitute a
// fake without a running database.
type PoolDialer func(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error)

// Resolver maps caller roles to dedicated connection pools. Pools are
// created lazily on first use and cached for the process lifetime; the same
// role always resolves to the same pool instance. The per-role database
// grants are the real access-control boundary - this resolver only selects
// which credential a statement runs under.
type Resolver struct {
	cfg    *config.DatabaseConfig
	creds  map[string]config.Credential
	dial   PoolDialer
	logger *zap.Logger

	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

// NewResolver creates a resolver using the default pgx pool dialer.
func NewResolver(cfg *config.DatabaseConfig, logger *zap.Logger) *Resolver {
	return NewResolverWithDialer(cfg, NewPool, logger)
}

// NewResolverWithDialer creates a resolver with a custom pool dialer.
func NewResolverWithDialer(cfg *config.DatabaseConfig, dial PoolDialer, logger *zap.Logger) *Resolver {
	return &Resolver{
		cfg:    cfg,
		creds:  cfg.Credentials(),
		dial:   dial,
		logger: logger.Named("db"),
		pools:  make(map[string]*pgxpool.Pool),
	}
}

// ResolveRole maps a caller role to the role whose credentials will be used:
// recognized roles map to themselves, everything else to FallbackRole.
func (r *Resolver) ResolveRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if _, ok := knownRoles[role]; !ok {
		return FallbackRole
	}
	return role
}

// Pool returns the connection pool for the given caller role, creating it
// on first use. Unrecognized roles resolve to the fallback pool; recognized
// roles without configured credentials fail with RoleConfigurationError.
func (r *Resolver) Pool(ctx context.Context, role string) (*pgxpool.Pool, error) {
	resolved := r.ResolveRole(role)

	r.mu.Lock()
	defer r.mu.Unlock()

	if pool, ok := r.pools[resolved]; ok {
		return pool, nil
	}

	cred, ok := r.creds[resolved]
	if !ok {
		return nil, &RoleConfigurationError{Role: resolved}
	}

	url := r.cfg.URLForCredential(cred)
	pool, err := r.dial(ctx, url, r.cfg.PoolMaxConns)
	if err != nil {
		return nil, fmt.Errorf("open pool for role %q: %s", resolved, logging.SanitizeError(err))
	}

	r.logger.Info("opened role pool",
		zap.String("role", resolved),
		zap.String("url", logging.SanitizeConnectionString(url)),
		zap.Int32("max_conns", r.cfg.PoolMaxConns))

	r.pools[resolved] = pool
	return pool, nil
}

// Close closes all pools. Intended for process shutdown and tests.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for role, pool := range r.pools {
		pool.Close()
		delete(r.pools, role)
	}
}
