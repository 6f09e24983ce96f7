package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the CI-PAE query engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values.
// Secrets (database passwords, LLM API key) must only come from environment
// variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3001"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL, one credential per access role)
	Database DatabaseConfig `yaml:"database"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Query pipeline limits
	Pipeline PipelineConfig `yaml:"pipeline"`

	// SchemaContextPath points at the schema-description YAML embedded into
	// prompts. Empty means the compiled-in default is used.
	SchemaContextPath string `yaml:"schema_context_path" env:"SCHEMA_CONTEXT_PATH" env-default:""`

	// RunMigrations applies pending migrations on startup when true.
	RunMigrations  bool   `yaml:"run_migrations" env:"RUN_MIGRATIONS" env-default:"false"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
// The admin credential is used for migrations only; query execution always
// goes through one of the per-role credentials.
type DatabaseConfig struct {
	Host         string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port         int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	Database     string `yaml:"database" env:"PGDATABASE" env-default:"ci_pae"`
	SSLMode      string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	PoolMaxConns int32  `yaml:"pool_max_conns" env:"PGPOOL_MAX_CONNS" env-default:"10"`

	AdminUser     string `yaml:"admin_user" env:"PGUSER" env-default:"postgres"`
	AdminPassword string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML

	// Per-role database passwords. Secrets - environment only. The database
	// username for each role equals the role name; table-level grants on the
	// database side are what actually enforce the access tiers.
	RolePasswords RolePasswords `yaml:"-"`
}

// RolePasswords holds the database password for each access role.
// A role with an empty password is treated as not configured.
type RolePasswords struct {
	Researcher   string `env:"DB_PWD_RESEARCHER"`
	Analyst      string `env:"DB_PWD_ANALYST"`
	PolicyAdmin  string `env:"DB_PWD_POLICY_ADMIN"`
	Statistician string `env:"DB_PWD_STATISTICIAN"`
	User         string `env:"DB_PWD_USER"`
}

// Credential is a database username/password pair for one role.
type Credential struct {
	User     string
	Password string
}

// Credentials returns the role -> credential mapping for all configured
// roles. Roles without a password are omitted so pool creation for them
// fails loudly instead of silently borrowing another role's privileges.
func (d *DatabaseConfig) Credentials() map[string]Credential {
	all := map[string]string{
		"researcher":   d.RolePasswords.Researcher,
		"analyst":      d.RolePasswords.Analyst,
		"policy_admin": d.RolePasswords.PolicyAdmin,
		"statistician": d.RolePasswords.Statistician,
		"user":         d.RolePasswords.User,
	}

	creds := make(map[string]Credential, len(all))
	for role, pwd := range all {
		if pwd == "" {
			continue
		}
		creds[role] = Credential{User: role, Password: pwd}
	}
	return creds
}

// URLForCredential builds a PostgreSQL URL for the given credential.
// User-provided fields are URL-escaped so passwords containing @, /, # or ?
// do not break parsing.
func (d *DatabaseConfig) URLForCredential(cred Credential) string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cred.User),
		url.QueryEscape(cred.Password),
		d.Host,
		d.Port,
		url.QueryEscape(d.Database),
		sslMode,
	)
}

// AdminURL returns the connection URL for the admin credential.
func (d *DatabaseConfig) AdminURL() string {
	return d.URLForCredential(Credential{User: d.AdminUser, Password: d.AdminPassword})
}

// LLMConfig holds external LLM provider configuration.
type LLMConfig struct {
	// Provider selects the client implementation: "openai" for any
	// OpenAI-compatible endpoint (DashScope compatible-mode, vLLM, OpenAI
	// itself), or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`

	// Endpoint is the provider base URL.
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://dashscope.aliyuncs.com/compatible-mode/v1"`

	// Model is the completion model name.
	Model string `yaml:"model" env:"LLM_MODEL" env-default:"qwen3-max"`

	// APIKey is the provider API key. Secret - environment only.
	APIKey string `yaml:"-" env:"LLM_API_KEY"`

	// Temperature for completion requests. Kept low: SQL generation wants
	// determinism more than variety.
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.1"`

	// MaxRetries bounds retry attempts for transport-level failures.
	// Content-level failures (bad JSON, non-SELECT SQL) are never retried.
	MaxRetries int `yaml:"max_retries" env:"LLM_MAX_RETRIES" env-default:"2"`
}

// PipelineConfig bounds the query pipeline.
type PipelineConfig struct {
	// StageTimeoutSeconds is the per-stage budget for each LLM call and the
	// database execution. Zero disables the per-stage deadline.
	StageTimeoutSeconds int `yaml:"stage_timeout_seconds" env:"PIPELINE_STAGE_TIMEOUT_SECONDS" env-default:"60"`

	// MaxResultRows caps how many rows the executor returns.
	MaxResultRows int `yaml:"max_result_rows" env:"PIPELINE_MAX_RESULT_ROWS" env-default:"200"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom reads configuration from the given YAML file with environment
// variable overrides. If the file does not exist, configuration comes from
// environment variables and defaults alone.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	return cfg, nil
}
