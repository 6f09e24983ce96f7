// Package schema holds the hand-curated schema context embedded into every
// prompt the pipeline sends: the reporting database's DDL with business
// comments, and the curated policy reference dataset. This is static data
// versioned with the source, not live schema introspection.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultContext []byte

var createTablePattern = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+([a-zA-Z_][a-zA-Z0-9_]*)`)

// PolicyRecord is one curated policy reference entry.
type PolicyRecord struct {
	PolicyID         string   `yaml:"policy_id" json:"policy_id"`
	PolicyName       string   `yaml:"policy_name" json:"policy_name"`
	PolicyType       string   `yaml:"policy_type" json:"policy_type"`
	Department       string   `yaml:"department" json:"department,omitempty"`
	IssueDate        string   `yaml:"issue_date" json:"issue_date,omitempty"`
	Status           string   `yaml:"status" json:"status,omitempty"`
	Summary          string   `yaml:"summary" json:"summary"`
	CoverageCounties []string `yaml:"coverage_counties" json:"coverage_counties,omitempty"`
}

// Context is the immutable prompt context: DDL text, province scope, and the
// policy reference dataset.
type Context struct {
	Version  string         `yaml:"version"`
	Province string         `yaml:"province"`
	DDL      string         `yaml:"ddl"`
	Policies []PolicyRecord `yaml:"policies"`

	tables map[string]struct{}
}

// Load reads the schema context from path, or the compiled-in default when
// path is empty.
func Load(path string) (*Context, error) {
	data := defaultContext
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schema context: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes a schema context document and indexes its table names.
func Parse(data []byte) (*Context, error) {
	var ctx Context
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("parse schema context: %w", err)
	}
	if strings.TrimSpace(ctx.DDL) == "" {
		return nil, fmt.Errorf("schema context has no DDL")
	}

	ctx.tables = make(map[string]struct{})
	for _, m := range createTablePattern.FindAllStringSubmatch(ctx.DDL, -1) {
		ctx.tables[strings.ToLower(m[1])] = struct{}{}
	}
	if len(ctx.tables) == 0 {
		return nil, fmt.Errorf("schema context DDL declares no tables")
	}

	return &ctx, nil
}

// HasTable reports whether the DDL declares the given table.
func (c *Context) HasTable(name string) bool {
	_, ok := c.tables[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// TableNames returns the declared table names, sorted.
func (c *Context) TableNames() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PolicyReferenceText renders the policy dataset as prompt text, one policy
// per block.
func (c *Context) PolicyReferenceText() string {
	if len(c.Policies) == 0 {
		return ""
	}

	var b strings.Builder
	for _, p := range c.Policies {
		fmt.Fprintf(&b, "- %s %s（类型：%s", p.PolicyID, p.PolicyName, p.PolicyType)
		if p.IssueDate != "" {
			fmt.Fprintf(&b, "，发文日期：%s", p.IssueDate)
		}
		if len(p.CoverageCounties) > 0 {
			fmt.Fprintf(&b, "，覆盖县域：%s", strings.Join(p.CoverageCounties, "、"))
		}
		b.WriteString("）\n")
		if p.Summary != "" {
			fmt.Fprintf(&b, "  摘要：%s\n", p.Summary)
		}
	}
	return b.String()
}
