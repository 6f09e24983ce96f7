package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_EmbeddedDefault(t *testing.T) {
	ctx, err := Load("")
	if err != nil {
		t.Fatalf("Load embedded context: %v", err)
	}

	if ctx.Version == "" {
		t.Error("embedded context must carry a version")
	}
	if ctx.Province == "" {
		t.Error("embedded context must name the province")
	}

	for _, table := range []string{"counties", "economic_indicators", "policies", "interview_data"} {
		if !ctx.HasTable(table) {
			t.Errorf("embedded DDL must declare table %q", table)
		}
	}
	if ctx.HasTable("orders") {
		t.Error("embedded DDL must not declare unrelated tables")
	}

	if len(ctx.Policies) == 0 {
		t.Fatal("embedded context must carry policy reference records")
	}
	if ctx.Policies[0].PolicyID == "" || ctx.Policies[0].Summary == "" {
		t.Errorf("policy records must have id and summary: %+v", ctx.Policies[0])
	}
}

func TestLoad_FileOverride(t *testing.T) {
	doc := `
version: "test"
province: "测试省"
ddl: |
  CREATE TABLE widgets (
      widget_id INT PRIMARY KEY
  );
policies: []
`
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write schema file: %v", err)
	}

	ctx, err := Load(path)
	if err != nil {
		t.Fatalf("Load file context: %v", err)
	}
	if ctx.Version != "test" {
		t.Errorf("expected file version, got %q", ctx.Version)
	}
	if !ctx.HasTable("widgets") {
		t.Error("file DDL table not indexed")
	}
	if ctx.HasTable("counties") {
		t.Error("file override must not include embedded tables")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing schema file")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty ddl", "version: x\nddl: \"\""},
		{"no tables", "version: x\nddl: \"SELECT 1\""},
		{"bad yaml", ": not yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestHasTable_Normalization(t *testing.T) {
	ctx, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ctx.HasTable("  COUNTIES ") {
		t.Error("table lookup must trim and case-fold")
	}
}

func TestTableNames_Sorted(t *testing.T) {
	ctx, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	names := ctx.TableNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("table names not sorted: %v", names)
		}
	}
}

func TestPolicyReferenceText(t *testing.T) {
	ctx, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	text := ctx.PolicyReferenceText()
	if !strings.Contains(text, "POL001") {
		t.Error("policy reference text must mention policy ids")
	}
	if !strings.Contains(text, "摘要") {
		t.Error("policy reference text must include summaries")
	}
}
