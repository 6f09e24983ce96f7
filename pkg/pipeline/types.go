// Package pipeline implements the natural-language query pipeline: plan the
// question, synthesize SQL, execute it under the caller's role, and
// summarize the result.
package pipeline

// QueryRequest is one incoming natural-language question with the caller's
// access role. Created per call, owned by one orchestration run, discarded
// after the response is sent.
type QueryRequest struct {
	Question string
	Role     string
}

// PolicyMatch is one candidate policy the planner considers relevant.
type PolicyMatch struct {
	PolicyID   string `json:"policy_id"`
	PolicyName string `json:"policy_name"`
	Relevance  string `json:"relevance"`
}

// QueryPlan is the planner's structured intermediate artifact: what the
// question is asking, which tables answer it, and which policies bear on it.
// Consumed only by the SQL synthesizer within the same run; never persisted.
type QueryPlan struct {
	Analysis         string        `json:"analysis"`
	TablesNeeded     []string      `json:"tables_needed"`
	RelevantPolicies []PolicyMatch `json:"relevant_policies"`
}

// QueryResponse is the externally visible artifact of one run. Every field
// is always present; failures surface as report text, never as a missing
// response.
type QueryResponse struct {
	Plan   string           `json:"plan"`
	SQL    string           `json:"sql"`
	Result []map[string]any `json:"result"`
	Report string           `json:"report"`
}
