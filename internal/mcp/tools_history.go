package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerHistoryTools() {
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change to the deck"),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change"),
	), s.handleRedo)

	s.mcp.AddTool(mcp.NewTool("save_deck",
		mcp.WithDescription("Save the deck now instead of waiting for autosave"),
	), s.handleSaveDeck)
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.openDeck(); err != nil {
		return nil, err
	}
	if !s.editor.Undo() {
		return textResult("Nothing to undo"), nil
	}
	s.emitDeckChanged(ctx, "undo")
	return textResult("Undone"), nil
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.openDeck(); err != nil {
		return nil, err
	}
	if !s.editor.Redo() {
		return textResult("Nothing to redo"), nil
	}
	s.emitDeckChanged(ctx, "redo")
	return textResult("Redone"), nil
}

func (s *Server) handleSaveDeck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.openDeck()
	if err != nil {
		return nil, err
	}
	if s.saver == nil {
		return nil, fmt.Errorf("saving is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.saver.Flush(ctx); err != nil {
		return nil, fmt.Errorf("save deck: %w", err)
	}
	return textResult(fmt.Sprintf("Deck %s saved", st.Deck.Meta.ID)), nil
}
