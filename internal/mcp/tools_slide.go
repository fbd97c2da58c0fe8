package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"deckeditor/internal/domain"
	"deckeditor/internal/editor"
)

func (s *Server) registerSlideTools() {
	// ── get_deck ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_deck",
		mcp.WithDescription("Get the open deck with editor status (current slide, selection, undo/redo, save state)"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleGetDeck)

	// ── list_slides ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_slides",
		mcp.WithDescription("List the slides of the open deck in order"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListSlides)

	// ── add_slide ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_slide",
		mcp.WithDescription("Insert a blank slide and make it current"),
		mcp.WithNumber("index", mcp.Description("Insert position (optional, defaults to after the current slide)")),
	), s.handleAddSlide)

	// ── delete_slide (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_slide",
		mcp.WithDescription("Delete the slide at index. The last remaining slide cannot be deleted."),
		mcp.WithNumber("index", mcp.Description("Slide index"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteSlide)

	// ── move_slide ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_slide",
		mcp.WithDescription("Move a slide to a new position"),
		mcp.WithNumber("from", mcp.Description("Current index"), mcp.Required()),
		mcp.WithNumber("to", mcp.Description("New index"), mcp.Required()),
	), s.handleMoveSlide)

	// ── set_current_slide ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_current_slide",
		mcp.WithDescription("Set the slide that element tools act on"),
		mcp.WithNumber("index", mcp.Description("Slide index"), mcp.Required()),
	), s.handleSetCurrentSlide)

	// ── update_slide ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_slide",
		mcp.WithDescription("Change the background or speaker notes of the current slide"),
		mcp.WithString("background", mcp.Description("CSS color or image reference (optional)")),
		mcp.WithString("notes", mcp.Description("Speaker notes (optional)")),
	), s.handleUpdateSlide)
}

// deckStatus is what get_deck returns.
type deckStatus struct {
	Deck              *domain.Deck `json:"deck"`
	Version           uint64       `json:"version"`
	CurrentSlideIndex int          `json:"currentSlideIndex"`
	SelectedIDs       []string     `json:"selectedElementIds"`
	OpenedGroupID     string       `json:"openedGroupId,omitempty"`
	CanUndo           bool         `json:"canUndo"`
	CanRedo           bool         `json:"canRedo"`
	IsSaving          bool         `json:"isSaving"`
	Error             string       `json:"error,omitempty"`
	LastSavedAt       *time.Time   `json:"lastSavedAt,omitempty"`
}

func (s *Server) handleGetDeck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.openDeck()
	if err != nil {
		return nil, err
	}
	status := deckStatus{
		Deck:              st.Deck,
		Version:           st.Version,
		CurrentSlideIndex: st.CurrentSlideIndex,
		SelectedIDs:       st.SelectedElementIDs,
		OpenedGroupID:     st.OpenedGroupID,
		CanUndo:           st.History.CanUndo(),
		CanRedo:           st.History.CanRedo(),
		IsSaving:          st.IsSaving,
		Error:             st.Error,
	}
	if !st.LastSavedAt.IsZero() {
		status.LastSavedAt = &st.LastSavedAt
	}
	return jsonResult(status)
}

func (s *Server) handleListSlides(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.openDeck()
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeSlides(st.Deck, st.CurrentSlideIndex))
}

func (s *Server) handleAddSlide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.openDeck()
	if err != nil {
		return nil, err
	}
	index := req.GetInt("index", st.CurrentSlideIndex+1)
	id := s.editor.AddSlide(index)
	if id == "" {
		return nil, fmt.Errorf("add slide: refused")
	}
	s.emitDeckChanged(ctx, "add_slide")
	return jsonResult(map[string]any{"slideId": id, "index": s.editor.State().CurrentSlideIndex})
}

func (s *Server) handleDeleteSlide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.openDeck(); err != nil {
		return nil, err
	}
	index, err := req.RequireInt("index")
	if err != nil {
		return nil, err
	}
	if !s.editor.DeleteSlide(index) {
		return nil, fmt.Errorf("delete slide %d: no such slide or it is the last one", index)
	}
	s.emitDeckChanged(ctx, "delete_slide")
	return textResult(fmt.Sprintf("Slide %d deleted", index)), nil
}

func (s *Server) handleMoveSlide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.openDeck(); err != nil {
		return nil, err
	}
	from, err := req.RequireInt("from")
	if err != nil {
		return nil, err
	}
	to, err := req.RequireInt("to")
	if err != nil {
		return nil, err
	}
	if !s.editor.MoveSlide(from, to) {
		return nil, fmt.Errorf("move slide %d to %d: invalid indexes", from, to)
	}
	s.emitDeckChanged(ctx, "move_slide")
	return textResult(fmt.Sprintf("Slide moved from %d to %d", from, to)), nil
}

func (s *Server) handleSetCurrentSlide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.openDeck()
	if err != nil {
		return nil, err
	}
	index, err := req.RequireInt("index")
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(st.Deck.Slides) {
		return nil, fmt.Errorf("slide index %d out of range (0..%d)", index, len(st.Deck.Slides)-1)
	}
	s.editor.SetCurrentSlide(index)
	return textResult(fmt.Sprintf("Current slide set to %d", index)), nil
}

func (s *Server) handleUpdateSlide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, slide, err := s.currentSlide()
	if err != nil {
		return nil, err
	}
	args := req.GetArguments()
	patch := editor.SlidePatch{
		Background: optString(args, "background"),
		Notes:      optString(args, "notes"),
	}
	if !s.editor.UpdateSlide(slide.ID, patch) {
		return textResult("Nothing changed"), nil
	}
	s.emitDeckChanged(ctx, "update_slide")
	return textResult(fmt.Sprintf("Slide %s updated", slide.ID)), nil
}
