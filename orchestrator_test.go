package sqlpilot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	response string
	err      error
	calls    int
}

func (s *stubGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

type stubExecutor struct {
	rows    []Row
	err     error
	calls   int
	lastSQL string
}

func (s *stubExecutor) Execute(ctx context.Context, sql string) ([]Row, error) {
	s.calls++
	s.lastSQL = sql
	return s.rows, s.err
}

func newTestOrchestrator(t *testing.T, gen TextGenerator, exec QueryExecutor, cfg *Config) *Orchestrator {
	t.Helper()
	drafter, err := NewDrafter(DrafterOptions{Generator: gen})
	require.NoError(t, err)
	orch, err := NewOrchestrator(OrchestratorOptions{
		Drafter:  drafter,
		Executor: exec,
		Config:   cfg,
	})
	require.NoError(t, err)
	return orch
}

func TestOrchestratorConversationalPath(t *testing.T) {
	exec := &stubExecutor{}
	orch := newTestOrchestrator(t, &stubGenerator{}, exec, nil)

	result, err := orch.Handle(context.Background(), "s1", "hello")
	require.NoError(t, err)
	require.Equal(t, IntentConversational, result.Intent)
	require.NotEmpty(t, result.Response)
	require.Empty(t, result.SQL)
	require.Nil(t, result.Err)
	require.Zero(t, exec.calls)
	require.Contains(t, result.PathTaken, string(StageConversationalDone))
}

func TestOrchestratorHappyPath(t *testing.T) {
	gen := &stubGenerator{response: "```sql\nSELECT employee_id, first_name FROM hr_casino.employees LIMIT 5;\n```"}
	exec := &stubExecutor{rows: []Row{
		{"employee_id": int64(1), "first_name": "Ana"},
		{"employee_id": int64(2), "first_name": "Rui"},
	}}
	orch := newTestOrchestrator(t, gen, exec, nil)

	result, err := orch.Handle(context.Background(), "s1", "show me 5 employees")
	require.NoError(t, err)
	require.Equal(t, IntentDataQuery, result.Intent)
	require.Nil(t, result.Err)
	require.Equal(t, "SELECT employee_id, first_name FROM hr_casino.employees LIMIT 5;", result.SQL)
	require.Len(t, result.Rows, 2)
	require.NotEmpty(t, result.Response)
	require.Equal(t, []string{
		string(StageStart), string(StageRouted), string(StageFeasibilityChecked),
		string(StageSQLDrafted), string(StageSQLValidated), string(StageExecuted),
		string(StageSummarized),
	}, result.PathTaken)

	// Both turns of the exchange land in the session history.
	history := orch.Sessions().Get("s1")
	require.Len(t, history, 2)
	require.Equal(t, "user", history[0].Role)
	require.Equal(t, "show me 5 employees", history[0].Content)
	require.Equal(t, "assistant", history[1].Role)
}

func TestOrchestratorValidationFailureSkipsExecution(t *testing.T) {
	gen := &stubGenerator{response: "DROP TABLE hr_casino.employees"}
	exec := &stubExecutor{}
	orch := newTestOrchestrator(t, gen, exec, nil)

	result, err := orch.Handle(context.Background(), "s1", "show me 5 employees")
	require.NoError(t, err)
	require.Zero(t, exec.calls, "invalid SQL must never reach execution")
	require.NotNil(t, result.Err)
	require.Equal(t, ErrorTypeValidation, result.Err.Type)
	require.Contains(t, result.Response, result.Err.Cause)
	require.Contains(t, result.PathTaken, string(StageClarificationDone))
}

func TestOrchestratorExecutionErrorSurfacesSQL(t *testing.T) {
	sql := "SELECT employee_id FROM hr_casino.employees LIMIT 5;"
	gen := &stubGenerator{response: sql}
	exec := &stubExecutor{err: errors.New(`relation "hr_casino.employes" does not exist`)}
	orch := newTestOrchestrator(t, gen, exec, nil)

	result, err := orch.Handle(context.Background(), "s1", "show me 5 employees")
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	require.Equal(t, ErrorTypeExecution, result.Err.Type)
	require.Contains(t, result.Response, sql)
	require.Contains(t, result.Response, "does not exist")
	require.Contains(t, result.PathTaken, string(StageClarificationDone))
}

func TestOrchestratorExecutionTimeoutClassified(t *testing.T) {
	gen := &stubGenerator{response: "SELECT employee_id FROM hr_casino.employees LIMIT 5;"}
	exec := &stubExecutor{err: context.DeadlineExceeded}
	orch := newTestOrchestrator(t, gen, exec, nil)

	result, err := orch.Handle(context.Background(), "s1", "show me employees")
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	require.Equal(t, ErrorTypeTimeout, result.Err.Type)
	require.Contains(t, result.PathTaken, string(StageClarificationDone))
}

func TestOrchestratorGenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model unavailable")}
	exec := &stubExecutor{}
	orch := newTestOrchestrator(t, gen, exec, nil)

	result, err := orch.Handle(context.Background(), "s1", "show me 5 employees")
	require.NoError(t, err)
	require.Zero(t, exec.calls)
	require.NotNil(t, result.Err)
	require.Equal(t, ErrorTypeGeneration, result.Err.Type)
	require.Contains(t, result.Response, "model unavailable")
	require.Contains(t, result.PathTaken, string(StageClarificationDone))
}

func TestOrchestratorEmptyResultIsDistinctTerminal(t *testing.T) {
	sql := "SELECT employee_id FROM hr_casino.employees WHERE salary > 900000 LIMIT 5;"
	gen := &stubGenerator{response: sql}
	exec := &stubExecutor{rows: []Row{}}
	orch := newTestOrchestrator(t, gen, exec, nil)

	result, err := orch.Handle(context.Background(), "s1", "find employees with salary above 900000")
	require.NoError(t, err)
	require.Nil(t, result.Err, "empty result is not an error")
	require.Contains(t, result.Response, "no matching records")
	require.Contains(t, result.Response, sql)
	require.Contains(t, result.PathTaken, string(StageSummarized))
}

func TestOrchestratorEmptyInputClarifies(t *testing.T) {
	orch := newTestOrchestrator(t, &stubGenerator{}, &stubExecutor{}, nil)

	result, err := orch.Handle(context.Background(), "s1", "")
	require.NoError(t, err)
	require.Equal(t, IntentNeedsClarification, result.Intent)
	require.Zero(t, result.Confidence)
	require.NotEmpty(t, result.Response)
	require.Contains(t, result.PathTaken, string(StageClarificationDone))
}

func TestOrchestratorTruncatesRows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxResultRows = 2
	gen := &stubGenerator{response: "SELECT employee_id FROM hr_casino.employees LIMIT 5;"}
	exec := &stubExecutor{rows: []Row{
		{"employee_id": 1}, {"employee_id": 2}, {"employee_id": 3},
	}}
	orch := newTestOrchestrator(t, gen, exec, cfg)

	result, err := orch.Handle(context.Background(), "s1", "show me employees")
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
}

func TestOrchestratorLowConfidenceClarifies(t *testing.T) {
	fallback := &stubFallback{result: Classification{Intent: IntentDataQuery, Confidence: 0.4}}
	router := NewRouter(RouterOptions{Fallback: fallback})
	drafter, err := NewDrafter(DrafterOptions{Generator: &stubGenerator{}})
	require.NoError(t, err)
	orch, err := NewOrchestrator(OrchestratorOptions{
		Router:   router,
		Drafter:  drafter,
		Executor: &stubExecutor{},
	})
	require.NoError(t, err)

	result, err := orch.Handle(context.Background(), "s1", "something entirely unrelated")
	require.NoError(t, err)
	require.Equal(t, IntentDataQuery, result.Intent)
	require.Empty(t, result.SQL)
	require.Contains(t, result.PathTaken, string(StageClarificationDone))
	require.Contains(t, result.Response, "hr_casino.employees")
}
