package database_test

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ci-pae/engine/pkg/config"
	"github.com/ci-pae/engine/pkg/database"
	"github.com/ci-pae/engine/pkg/testhelpers"
)

func integrationConfig(t *testing.T, connStr string) *config.DatabaseConfig {
	t.Helper()
	u, err := url.Parse(connStr)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return &config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Database: "ci_pae_test",
		SSLMode:  "disable",
		RolePasswords: config.RolePasswords{
			Researcher: "pw_researcher",
			User:       "pw_user",
		},
	}
}

func TestResolverAgainstRealDatabase(t *testing.T) {
	db := testhelpers.GetTestDB(t, "../../migrations")
	ctx := context.Background()

	for _, role := range []string{"researcher", "user"} {
		_, err := db.Pool.Exec(ctx, fmt.Sprintf(`ALTER ROLE %q PASSWORD 'pw_%s'`, role, role))
		require.NoError(t, err)
	}

	resolver := database.NewResolver(integrationConfig(t, db.ConnStr), zap.NewNop())
	defer resolver.Close()

	t.Run("researcher reads seeded counties", func(t *testing.T) {
		rows, err := resolver.QueryRows(ctx, "researcher",
			"SELECT county_name FROM counties ORDER BY county_id", 10)
		require.NoError(t, err)
		require.NotEmpty(t, rows)
		assert.Equal(t, "兴和县", rows[0]["county_name"])
	})

	t.Run("row limit caps the result", func(t *testing.T) {
		rows, err := resolver.QueryRows(ctx, "researcher",
			"SELECT county_name FROM counties ORDER BY county_id", 3)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("public role cannot read interview content", func(t *testing.T) {
		_, err := resolver.QueryRows(ctx, "user",
			"SELECT content FROM interview_data", 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "permission denied")
	})

	t.Run("unknown role falls back to public grants", func(t *testing.T) {
		rows, err := resolver.QueryRows(ctx, "intern",
			"SELECT policy_id FROM policies ORDER BY policy_id", 10)
		require.NoError(t, err)
		require.NotEmpty(t, rows)
		assert.Equal(t, "POL001", rows[0]["policy_id"])
	})

	t.Run("parameterized statement", func(t *testing.T) {
		rows, err := resolver.ExecuteStatement(ctx, "researcher",
			"SELECT county_id FROM counties WHERE county_name = $1", []any{"武川县"}, 10)
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})
}
