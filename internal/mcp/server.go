package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"deckeditor/internal/domain"
	"deckeditor/internal/editor"
)

// EventEmitter notifies whoever hosts the server that the deck changed.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Saver forces a save of the live document.
type Saver interface {
	Flush(ctx context.Context) error
}

// Server is the MCP server of the deck editor.
// It exposes tools, resources, and prompts so AI agents can edit the open deck.
type Server struct {
	mcp     *server.MCPServer
	editor  *editor.Editor
	saver   Saver
	emitter EventEmitter
	layout  *LayoutEngine
	logger  *zap.Logger
}

// Deps holds everything the server needs from the app layer.
type Deps struct {
	Editor  *editor.Editor
	Saver   Saver
	Emitter EventEmitter
	Logger  *zap.Logger
}

// New creates and configures the MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		editor:  deps.Editor,
		saver:   deps.Saver,
		emitter: deps.Emitter,
		layout:  NewLayoutEngine(),
		logger:  deps.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.mcp = server.NewMCPServer(
		"deckeditor-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerSlideTools()
	s.registerElementTools()
	s.registerHistoryTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// Listen serves the stdio protocol on in/out until ctx is done or in is closed.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting mcp stdio server")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// ── Helpers ────────────────────────────────────────────────

// emitDeckChanged notifies the host that a tool changed the deck.
func (s *Server) emitDeckChanged(ctx context.Context, tool string) {
	if s.emitter == nil {
		return
	}
	st := s.editor.State()
	data := map[string]any{"tool": tool, "version": st.Version}
	if st.Deck != nil {
		data["deckId"] = st.Deck.Meta.ID
	}
	s.emitter.Emit(ctx, "mcp:deck-changed", data)
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// openDeck returns the live snapshot, failing when no deck is open.
func (s *Server) openDeck() (*editor.State, error) {
	st := s.editor.State()
	if st.Deck == nil {
		return nil, fmt.Errorf("no deck is open")
	}
	return st, nil
}

// currentSlide returns the slide tools act on.
func (s *Server) currentSlide() (*editor.State, *domain.Slide, error) {
	st, err := s.openDeck()
	if err != nil {
		return nil, nil, err
	}
	slide := st.CurrentSlide()
	if slide == nil {
		return nil, nil, fmt.Errorf("no current slide")
	}
	return st, slide, nil
}
