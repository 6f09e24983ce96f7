package llm

import (
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "sql fence",
			input:    "```sql\nSELECT 1\n```",
			expected: "SELECT 1",
		},
		{
			name:     "json fence",
			input:    "```json\n{\"a\":1}\n```",
			expected: `{"a":1}`,
		},
		{
			name:     "bare fence",
			input:    "```\nSELECT t1.name FROM counties t1\n```",
			expected: "SELECT t1.name FROM counties t1",
		},
		{
			name:     "no fence",
			input:    "  SELECT 1  ",
			expected: "SELECT 1",
		},
		{
			name:     "think tag then fence",
			input:    "<think>reasoning here</think>\n```sql\nSELECT 2\n```",
			expected: "SELECT 2",
		},
		{
			name:     "multiline statement",
			input:    "```sql\nSELECT t2.gdp\nFROM counties t1\nJOIN economic_indicators t2 ON t1.county_id = t2.county_id\n```",
			expected: "SELECT t2.gdp\nFROM counties t1\nJOIN economic_indicators t2 ON t1.county_id = t2.county_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.input); got != tt.expected {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "plain object",
			input:    `{"analysis":"x","tables_needed":["counties"]}`,
			expected: `{"analysis":"x","tables_needed":["counties"]}`,
		},
		{
			name:     "fenced object",
			input:    "```json\n{\"analysis\":\"x\"}\n```",
			expected: `{"analysis":"x"}`,
		},
		{
			name:     "prose around object",
			input:    "Here is the plan:\n{\"tables_needed\":[]}\nHope that helps.",
			expected: `{"tables_needed":[]}`,
		},
		{
			name:     "nested braces in strings",
			input:    `{"analysis":"uses {curly} braces","tables_needed":[]}`,
			expected: `{"analysis":"uses {curly} braces","tables_needed":[]}`,
		},
		{
			name:    "not json",
			input:   "SELECT * FROM counties",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			input:   `{"analysis": "oops"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ExtractJSON = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type plan struct {
		Analysis     string   `json:"analysis"`
		TablesNeeded []string `json:"tables_needed"`
	}

	got, err := ParseJSONResponse[plan]("```json\n{\"analysis\":\"gdp lookup\",\"tables_needed\":[\"counties\",\"economic_indicators\"]}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Analysis != "gdp lookup" {
		t.Errorf("unexpected analysis: %q", got.Analysis)
	}
	if len(got.TablesNeeded) != 2 || got.TablesNeeded[0] != "counties" {
		t.Errorf("unexpected tables: %v", got.TablesNeeded)
	}

	if _, err := ParseJSONResponse[plan]("no json here"); err == nil {
		t.Error("expected error for non-JSON input")
	}
}
