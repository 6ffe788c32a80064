// Package httpapi exposes the request pipeline over HTTP. The handlers
// are thin adapters: they parse the request, call the orchestrator, and
// shape its Result into the wire response.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sqlpilot-ai/sqlpilot"
)

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// QueryResponse is the body returned by POST /query.
type QueryResponse struct {
	RequestID     string         `json:"request_id"`
	Response      string         `json:"response"`
	SQL           string         `json:"sql,omitempty"`
	Results       []sqlpilot.Row `json:"results,omitempty"`
	Intent        string         `json:"intent"`
	Confidence    float64        `json:"confidence"`
	PathTaken     []string       `json:"path_taken"`
	ExecutionTime float64        `json:"execution_time"`
	Error         string         `json:"error,omitempty"`
}

// Server wraps an echo instance around one orchestrator.
type Server struct {
	orchestrator *sqlpilot.Orchestrator
	echo         *echo.Echo
	logger       *slog.Logger
	addr         string
}

// ServerOptions configures a Server.
type ServerOptions struct {
	Orchestrator *sqlpilot.Orchestrator
	Logger       *slog.Logger
	ListenAddr   string
}

// NewServer builds the HTTP surface and registers all routes.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ListenAddr == "" {
		opts.ListenAddr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		orchestrator: opts.Orchestrator,
		echo:         e,
		logger:       opts.Logger,
		addr:         opts.ListenAddr,
	}

	e.POST("/query", s.handleQuery)
	e.GET("/schema", s.handleSchema)
	e.DELETE("/history/:session_id", s.handleClearHistory)
	e.GET("/health", s.handleHealth)

	return s, nil
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.echo,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Info("http server starting", "addr", s.addr)
	return s.echo.StartServer(server)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	result, err := s.orchestrator.Handle(c.Request().Context(), req.SessionID, req.Query)
	if err != nil {
		// Only caller cancellation reaches here.
		return echo.NewHTTPError(http.StatusRequestTimeout, "request cancelled")
	}

	resp := QueryResponse{
		RequestID:     result.RequestID,
		Response:      result.Response,
		SQL:           result.SQL,
		Results:       result.Rows,
		Intent:        string(result.Intent),
		Confidence:    result.Confidence,
		PathTaken:     result.PathTaken,
		ExecutionTime: result.Duration.Seconds(),
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, s.orchestrator.Schema())
}

func (s *Server) handleClearHistory(c echo.Context) error {
	sessionID := c.Param("session_id")
	s.orchestrator.Sessions().Clear(sessionID)
	return c.JSON(http.StatusOK, map[string]string{
		"status":     "cleared",
		"session_id": sessionID,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
