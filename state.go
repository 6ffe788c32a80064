package sqlpilot

import "github.com/sqlpilot-ai/sqlpilot/sqlguard"

// Intent is the routing decision for one request.
type Intent string

const (
	IntentConversational     Intent = "conversational"
	IntentDataQuery          Intent = "data_query"
	IntentNeedsClarification Intent = "needs_clarification"
)

// Turn is one message in a session's conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Row is one result record, column name to scalar value.
type Row map[string]any

// QueryState is the single mutable record threaded through every stage of
// one request. One instance is created per request, flows through the
// pipeline exactly once, and is discarded after the response is returned.
// Only History outlives the request, via the session store.
type QueryState struct {
	RequestText string
	History     []Turn

	Intent      Intent
	Confidence  float64
	RouteReason string

	// Set if and only if the router chose data_query.
	CandidateTables []string
	CandidateSQL    string

	Validation sqlguard.Result

	// ExecutionRows and ExecutionError are mutually exclusive.
	// ExecutionErrorType distinguishes timeouts from engine rejections.
	ExecutionRows      []Row
	ExecutionError     string
	ExecutionErrorType string

	// FinalResponse is non-empty exactly once a terminal stage is reached.
	FinalResponse string

	// StageMarker records the last stage for observability and tests, not
	// control flow.
	StageMarker Stage
}

// Stage names the orchestrator's states. Terminal stages always populate
// FinalResponse.
type Stage string

const (
	StageStart              Stage = "start"
	StageRouted             Stage = "routed"
	StageFeasibilityChecked Stage = "feasibility_checked"
	StageSQLDrafted         Stage = "sql_drafted"
	StageSQLValidated       Stage = "sql_validated"
	StageExecuted           Stage = "executed"
	StageSummarized         Stage = "summarized"
	StageConversationalDone Stage = "conversational_done"
	StageClarificationDone  Stage = "clarification_done"
)

// Terminal reports whether no further transition occurs from s.
func (s Stage) Terminal() bool {
	switch s {
	case StageSummarized, StageConversationalDone, StageClarificationDone:
		return true
	}
	return false
}
