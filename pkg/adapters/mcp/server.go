// Package mcp exposes remodel sessions as Model Context Protocol tools, so an agent
// can drive a simulated scan-to-paint workflow.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/remodel"
	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/internal/workflow"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SnapshotResponse is returned by every tool that touches a session.
type SnapshotResponse struct {
	Snapshot *domain.Snapshot  `json:"snapshot" jsonschema_description:"The session as a user interface would render it"`
	Result   *remodel.Result   `json:"result,omitempty" jsonschema_description:"The accepted action and the commands it sent"`
	Decision *remodel.Decision `json:"decision,omitempty" jsonschema_description:"The tab arbiter's answer to a family switch"`
}

// SessionArgs identifies a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// CreateArgs are the arguments of create_session.
type CreateArgs struct {
	Family string `json:"family"`
}

// ActionArgs are the arguments of request_action.
type ActionArgs struct {
	SessionID  string  `json:"session_id"`
	Action     string  `json:"action"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	CloseShape bool    `json:"close_shape,omitempty"`
	TouchMode  string  `json:"touch_mode,omitempty"`
}

// FamilyArgs are the arguments of switch_family.
type FamilyArgs struct {
	SessionID string `json:"session_id"`
	Family    string `json:"family"`
}

// SelectionArgs are the arguments of update_selection.
type SelectionArgs struct {
	SessionID string `json:"session_id"`
	Color     *int   `json:"color,omitempty"`
	Texture   *int   `json:"texture,omitempty"`
	TouchMode *int   `json:"touch_mode,omitempty"`
}

// EventArgs are the arguments of emit_engine_event.
type EventArgs struct {
	SessionID  string `json:"session_id"`
	Kind       string `json:"kind"`
	Flag       bool   `json:"flag,omitempty"`
	Count      int    `json:"count,omitempty"`
	ID         string `json:"id,omitempty"`
	Text       string `json:"text,omitempty"`
	Reason     string `json:"reason,omitempty"`
	PatchState string `json:"patch_state,omitempty"`
}

// Server exposes a service.Service as an MCP server.
type Server struct {
	svc       *service.Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("remodel-mcp", strings.TrimSpace(remodel.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx ends.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func familyList() string {
	names := make([]string, len(domain.Families))
	for i, f := range domain.Families {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Start a new simulated session in a workflow family."),
		mcp.WithString("family", mcp.Required(), mcp.Description("One of: "+familyList())),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Read a session snapshot: phase, legal actions, selection and notices."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List the ids of every known session."),
	), s.handleList)

	s.mcpServer.AddTool(mcp.NewTool("request_action",
		mcp.WithDescription("Submit a user action. Rejected actions return the reason the user would see."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action kind, e.g. start_scan, tap_surface, finish_corners")),
		mcp.WithNumber("x", mcp.Description("Screen x for tap and drag actions")),
		mcp.WithNumber("y", mcp.Description("Screen y for tap and drag actions")),
		mcp.WithBoolean("close_shape", mcp.Description("Close the outline on finish_corners")),
		mcp.WithString("touch_mode", mcp.Description("Touch mode for set_touch_mode")),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleAction))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Return the session to its family's initial phase with the default selection."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("switch_family",
		mcp.WithDescription("Ask to switch the active workflow family. Switches are refused during the tab cooldown."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("family", mcp.Required(), mcp.Description("One of: "+familyList())),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleSwitch))

	s.mcpServer.AddTool(mcp.NewTool("update_selection",
		mcp.WithDescription("Pick a catalog paint, toggle a texture or change the touch mode by index."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithNumber("color", mcp.Description("Paint index")),
		mcp.WithNumber("texture", mcp.Description("Texture index; picking the selected one clears it")),
		mcp.WithNumber("touch_mode", mcp.Description("Touch mode index")),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	s.mcpServer.AddTool(mcp.NewTool("emit_engine_event",
		mcp.WithDescription("Inject an event from the simulated AR engine."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Event kind, e.g. trackingReady, floorplanCornerCountUpdated, roomPlanFailed")),
		mcp.WithBoolean("flag", mcp.Description("Boolean payload")),
		mcp.WithNumber("count", mcp.Description("Count payload")),
		mcp.WithString("id", mcp.Description("Wall or patch id")),
		mcp.WithString("text", mcp.Description("Instruction text")),
		mcp.WithString("reason", mcp.Description("Failure reason")),
		mcp.WithString("patch_state", mcp.Description("adding or editing")),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleEmit))

	s.mcpServer.AddTool(mcp.NewTool("get_engine_commands",
		mcp.WithDescription("List the commands the session's simulated engine received."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	), s.handleCommands)
}

func (s *Server) handleCreate(ctx context.Context, _ mcp.CallToolRequest, args CreateArgs) (SnapshotResponse, error) {
	snap, err := s.svc.Create(ctx, domain.Family(args.Family))
	if err != nil {
		return SnapshotResponse{}, err
	}
	return SnapshotResponse{Snapshot: snap}, nil
}

func (s *Server) handleGet(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (SnapshotResponse, error) {
	snap, err := s.svc.Get(ctx, args.SessionID)
	if err != nil {
		return SnapshotResponse{}, err
	}
	return SnapshotResponse{Snapshot: snap}, nil
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleAction(ctx context.Context, _ mcp.CallToolRequest, args ActionArgs) (SnapshotResponse, error) {
	action := domain.Action{
		Kind:       domain.ActionKind(args.Action),
		Point:      domain.Point{X: args.X, Y: args.Y},
		CloseShape: args.CloseShape,
		TouchMode:  domain.TouchMode(args.TouchMode),
	}
	res, snap, err := s.svc.Act(ctx, args.SessionID, action)
	if err != nil {
		return SnapshotResponse{}, errors.New(service.Describe(err))
	}
	return SnapshotResponse{Snapshot: snap, Result: res}, nil
}

func (s *Server) handleReset(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (SnapshotResponse, error) {
	snap, err := s.svc.Reset(ctx, args.SessionID)
	if err != nil {
		return SnapshotResponse{}, err
	}
	return SnapshotResponse{Snapshot: snap}, nil
}

func (s *Server) handleSwitch(ctx context.Context, _ mcp.CallToolRequest, args FamilyArgs) (SnapshotResponse, error) {
	d, snap, err := s.svc.Switch(ctx, args.SessionID, domain.Family(args.Family))
	if err != nil {
		return SnapshotResponse{}, err
	}
	return SnapshotResponse{Snapshot: snap, Decision: &d}, nil
}

func (s *Server) handleSelect(ctx context.Context, _ mcp.CallToolRequest, args SelectionArgs) (SnapshotResponse, error) {
	snap, err := s.svc.Select(ctx, args.SessionID, service.SelectionRequest{
		Color:     args.Color,
		Texture:   args.Texture,
		TouchMode: args.TouchMode,
	})
	if err != nil {
		return SnapshotResponse{}, err
	}
	return SnapshotResponse{Snapshot: snap}, nil
}

func (s *Server) handleEmit(ctx context.Context, _ mcp.CallToolRequest, args EventArgs) (SnapshotResponse, error) {
	if args.Kind == "" {
		return SnapshotResponse{}, errors.New("event kind is required")
	}
	ev := domain.Event{
		Kind:       domain.EventKind(args.Kind),
		Flag:       args.Flag,
		Count:      args.Count,
		ID:         args.ID,
		Text:       args.Text,
		Reason:     domain.FailureReason(args.Reason),
		PatchState: domain.PatchState(args.PatchState),
	}
	snap, err := s.svc.Emit(ctx, args.SessionID, ev)
	if err != nil {
		return SnapshotResponse{}, err
	}
	return SnapshotResponse{Snapshot: snap}, nil
}

func (s *Server) handleCommands(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cmds, err := s.svc.Commands(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("commands unavailable: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(cmds)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// FamilyInfo describes one family's phases and the actions legal in each.
type FamilyInfo struct {
	Family  domain.Family                        `json:"family"`
	Title   string                               `json:"title"`
	Initial domain.Phase                         `json:"initial"`
	Actions map[domain.Phase][]domain.ActionKind `json:"actions"`
}

// Families describes every workflow family.
func Families() ([]FamilyInfo, error) {
	infos := make([]FamilyInfo, 0, len(domain.Families))
	for _, f := range domain.Families {
		table, err := workflow.TableFor(f, workflow.DefaultConfig())
		if err != nil {
			return nil, err
		}
		info := FamilyInfo{
			Family:  f,
			Title:   f.Title(),
			Initial: table.Initial,
			Actions: make(map[domain.Phase][]domain.ActionKind, len(table.Phases)),
		}
		for _, p := range table.Phases {
			info.Actions[p] = table.Available(p)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("remodel://families", "Workflow families",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		infos, err := Families()
		if err != nil {
			return nil, fmt.Errorf("failed to describe families: %w", err)
		}
		jsonBytes, _ := json.Marshal(infos)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "remodel://families",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
