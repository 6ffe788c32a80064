package sqlpilot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sqlpilot-ai/sqlpilot/sqlguard"
	"go.jetify.com/typeid"
)

// NewRequestID returns a new typed ID for request identification
func NewRequestID() string {
	id, err := typeid.WithPrefix("req")
	if err != nil {
		panic(err)
	}
	return id.String()
}

// Result is the caller-facing outcome of one request.
type Result struct {
	RequestID  string         `json:"request_id"`
	Response   string         `json:"response"`
	SQL        string         `json:"sql,omitempty"`
	Rows       []Row          `json:"rows,omitempty"`
	Intent     Intent         `json:"intent"`
	Confidence float64        `json:"confidence"`
	PathTaken  []string       `json:"path_taken"`
	Duration   time.Duration  `json:"duration"`
	Err        *PipelineError `json:"error,omitempty"`
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	Router        *Router
	Drafter       *Drafter
	Responder     *Responder
	Summarizer    *Summarizer
	Executor      QueryExecutor
	Sessions      *SessionStore
	Schema        Snapshot
	RequestLogger RequestLogger
	Logger        *slog.Logger
	Config        *Config
}

// Orchestrator runs the fixed request pipeline: route, tag candidate
// tables, draft, validate, execute, summarize. Every transition is
// deterministic and evaluated once; no stage retries, and every failure
// lands in the clarification terminal with the concrete cause attached.
type Orchestrator struct {
	router        *Router
	drafter       *Drafter
	responder     *Responder
	summarizer    *Summarizer
	executor      QueryExecutor
	sessions      *SessionStore
	schema        Snapshot
	requestLogger RequestLogger
	logger        *slog.Logger
	config        *Config
}

// NewOrchestrator creates an Orchestrator and applies defaults for every
// optional collaborator.
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	if opts.Drafter == nil {
		return nil, fmt.Errorf("drafter is required")
	}
	if opts.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if opts.Config == nil {
		opts.Config = DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Router == nil {
		opts.Router = NewRouter(RouterOptions{Logger: opts.Logger})
	}
	if opts.Responder == nil {
		opts.Responder = NewResponder(nil, opts.Logger)
	}
	if opts.Summarizer == nil {
		opts.Summarizer = NewSummarizer(SummarizerOptions{
			MaxRows: opts.Config.MaxResultRows,
			Logger:  opts.Logger,
		})
	}
	if opts.Sessions == nil {
		opts.Sessions = NewSessionStore(opts.Config.HistoryLimit)
	}
	if len(opts.Schema) == 0 {
		opts.Schema = StaticCatalog()
	}
	if opts.RequestLogger == nil {
		opts.RequestLogger = NewNullRequestLogger()
	}
	return &Orchestrator{
		router:        opts.Router,
		drafter:       opts.Drafter,
		responder:     opts.Responder,
		summarizer:    opts.Summarizer,
		executor:      opts.Executor,
		sessions:      opts.Sessions,
		schema:        opts.Schema,
		requestLogger: opts.RequestLogger,
		logger:        opts.Logger,
		config:        opts.Config,
	}, nil
}

// Schema exposes the loaded snapshot for the HTTP surface.
func (o *Orchestrator) Schema() Snapshot {
	return o.schema
}

// Sessions exposes the session store for the HTTP surface.
func (o *Orchestrator) Sessions() *SessionStore {
	return o.sessions
}

// Handle processes one request through a single sequential pass of the
// state machine. The returned Result always carries a non-empty Response;
// the error return reports caller cancellation only.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, requestText string) (*Result, error) {
	requestID := NewRequestID()
	logger := o.logger.With("request_id", requestID, "session_id", sessionID)
	start := time.Now()

	state := &QueryState{
		RequestText: requestText,
		History:     o.sessions.Get(sessionID),
		StageMarker: StageStart,
	}
	path := []string{string(StageStart)}

	var terminalErr *PipelineError
	for !state.StageMarker.Terminal() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, stageErr := o.advance(ctx, state, logger)
		if stageErr != nil {
			terminalErr = stageErr
		}
		state.StageMarker = next
		path = append(path, string(next))
	}

	duration := time.Since(start)
	logger.Info("request complete",
		"intent", state.Intent,
		"confidence", state.Confidence,
		"terminal", state.StageMarker,
		"duration", duration)

	o.sessions.Append(sessionID,
		Turn{Role: "user", Content: requestText},
		Turn{Role: "assistant", Content: state.FinalResponse},
	)

	result := &Result{
		RequestID:  requestID,
		Response:   state.FinalResponse,
		SQL:        state.CandidateSQL,
		Rows:       state.ExecutionRows,
		Intent:     state.Intent,
		Confidence: state.Confidence,
		PathTaken:  path,
		Duration:   duration,
		Err:        terminalErr,
	}
	o.logRequest(ctx, sessionID, state, result)
	return result, nil
}

// advance performs the work that moves the state machine out of the
// current stage and returns the next stage. A non-nil PipelineError
// classifies the failure that sent the request to clarification.
func (o *Orchestrator) advance(ctx context.Context, state *QueryState, logger *slog.Logger) (Stage, *PipelineError) {
	switch state.StageMarker {

	case StageStart:
		c := o.router.Classify(ctx, state.RequestText, state.History)
		state.Intent = c.Intent
		state.Confidence = c.Confidence
		state.RouteReason = c.Reason
		logger.Info("routed", "intent", c.Intent, "confidence", c.Confidence, "reason", c.Reason)
		return StageRouted, nil

	case StageRouted:
		switch {
		case state.Intent == IntentConversational:
			genCtx, cancel := context.WithTimeout(ctx, o.config.GenerationTimeout())
			defer cancel()
			state.FinalResponse = o.responder.Respond(genCtx, state.RequestText, state.History)
			return StageConversationalDone, nil
		case state.Intent == IntentDataQuery && state.Confidence >= o.config.ConfidenceThreshold:
			state.CandidateTables = CandidateTables(state.RequestText)
			logger.Info("feasibility checked", "candidate_tables", state.CandidateTables)
			return StageFeasibilityChecked, nil
		default:
			state.FinalResponse = clarifyLowConfidence(state.RequestText, o.schema.TableNames())
			return StageClarificationDone, nil
		}

	case StageFeasibilityChecked:
		genCtx, cancel := context.WithTimeout(ctx, o.config.GenerationTimeout())
		defer cancel()
		state.CandidateSQL = o.drafter.Draft(genCtx, state.RequestText, o.schema.Subset(state.CandidateTables))
		logger.Info("sql drafted", "sql", state.CandidateSQL)
		return StageSQLDrafted, nil

	case StageSQLDrafted:
		// A sentinel draft short-circuits validation and routes directly
		// to clarification.
		if isSentinel(state.CandidateSQL) {
			state.FinalResponse = clarifyGenerationFailure(state.CandidateSQL)
			return StageClarificationDone, NewPipelineError(ErrorTypeGeneration, state.CandidateSQL)
		}
		state.Validation = sqlguard.Validate(state.CandidateSQL, o.schema.TableNames())
		if !state.Validation.Valid {
			logger.Warn("sql validation failed", "errors", state.Validation.Errors)
		}
		return StageSQLValidated, nil

	case StageSQLValidated:
		if !state.Validation.Valid {
			first := state.Validation.Errors[0]
			state.FinalResponse = clarifyValidationFailure(first, state.CandidateSQL)
			return StageClarificationDone, NewPipelineError(ErrorTypeValidation, first)
		}
		execCtx, cancel := context.WithTimeout(ctx, o.config.ExecutionTimeout())
		defer cancel()
		rows, err := o.executor.Execute(execCtx, state.CandidateSQL)
		if err != nil {
			classified := ClassifyError(err)
			state.ExecutionError = truncateError(classified.Cause)
			state.ExecutionErrorType = classified.Type
		} else {
			if len(rows) > o.config.MaxResultRows {
				rows = rows[:o.config.MaxResultRows]
			}
			state.ExecutionRows = rows
		}
		return StageExecuted, nil

	case StageExecuted:
		if state.ExecutionError != "" {
			state.FinalResponse = clarifyExecutionFailure(state.ExecutionError, state.CandidateSQL)
			return StageClarificationDone, NewPipelineError(state.ExecutionErrorType, state.ExecutionError)
		}
		if len(state.ExecutionRows) == 0 {
			// Empty result is not an error; the terminal message still
			// carries the executed SQL.
			state.FinalResponse = clarifyNoResults(state.CandidateSQL)
			return StageSummarized, nil
		}
		genCtx, cancel := context.WithTimeout(ctx, o.config.GenerationTimeout())
		defer cancel()
		state.FinalResponse = o.summarizer.Summarize(genCtx, state.RequestText, state.ExecutionRows)
		return StageSummarized, nil

	default:
		// Unreachable with the fixed stage set; fail safe to clarification.
		state.FinalResponse = clarifyLowConfidence(state.RequestText, o.schema.TableNames())
		return StageClarificationDone, nil
	}
}

func (o *Orchestrator) logRequest(ctx context.Context, sessionID string, state *QueryState, result *Result) {
	entry := &RequestLogEntry{
		RequestID:   result.RequestID,
		SessionID:   sessionID,
		RequestText: state.RequestText,
		Intent:      string(state.Intent),
		Confidence:  state.Confidence,
		SQL:         state.CandidateSQL,
		PathTaken:   string(state.StageMarker),
		StartTime:   time.Now().Add(-result.Duration),
		Duration:    result.Duration.Seconds(),
	}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}
	if err := o.requestLogger.LogRequest(ctx, entry); err != nil {
		o.logger.Warn("failed to write request log", "error", err)
	}
}

func isSentinel(sql string) bool {
	return len(sql) >= len(sqlguard.ErrorSentinelPrefix) &&
		sql[:len(sqlguard.ErrorSentinelPrefix)] == sqlguard.ErrorSentinelPrefix
}

// truncateError bounds downstream error text before it reaches the user.
func truncateError(message string) string {
	const max = 500
	if len(message) > max {
		return message[:max] + "..."
	}
	return message
}
