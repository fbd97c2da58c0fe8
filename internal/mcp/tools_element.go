package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"deckeditor/internal/domain"
	"deckeditor/internal/editor"
)

// Default sizes per element type, used when width/height are omitted.
var defaultSizes = map[domain.ElementType][2]float64{
	domain.ElementText:      {400, 80},
	domain.ElementRichText:  {480, 240},
	domain.ElementImage:     {320, 240},
	domain.ElementShape:     {200, 200},
	domain.ElementChart:     {540, 360},
	domain.ElementCodeBlock: {520, 300},
	domain.ElementTable:     {600, 300},
}

func (s *Server) registerElementTools() {
	// ── list_elements ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List the elements of the current slide in paint order (bottom first), optionally filtered by type"),
		mcp.WithString("type", mcp.Description("Filter by element type (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListElements)

	// ── add_element ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_element",
		mcp.WithDescription("Add an element to the current slide. Position is auto-calculated if not provided."),
		mcp.WithString("type",
			mcp.Description("Element type: text, richtext, image, shape, chart, codeblock, table"),
			mcp.Required(),
		),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-layout if omitted)")),
		mcp.WithNumber("width", mcp.Description("Width (optional, uses the type default)")),
		mcp.WithNumber("height", mcp.Description("Height (optional, uses the type default)")),
		mcp.WithString("content", mcp.Description("Text or code content (optional)")),
		mcp.WithString("name", mcp.Description("Display name (optional)")),
		mcp.WithString("style", mcp.Description("JSON object of style properties (optional)")),
		mcp.WithString("data", mcp.Description("JSON object with the type-specific payload, e.g. image src or chart series (optional)")),
	), s.handleAddElement)

	// ── update_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_element",
		mcp.WithDescription("Update an element. Only the given fields change. Moving or resizing a group moves its children."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X")),
		mcp.WithNumber("y", mcp.Description("New Y")),
		mcp.WithNumber("width", mcp.Description("New width")),
		mcp.WithNumber("height", mcp.Description("New height")),
		mcp.WithNumber("rotation", mcp.Description("Rotation in degrees")),
		mcp.WithString("content", mcp.Description("New content")),
		mcp.WithString("name", mcp.Description("New display name")),
		mcp.WithBoolean("hidden", mcp.Description("Hide or show the element")),
		mcp.WithString("style", mcp.Description("JSON object merged into the style; null values remove keys")),
		mcp.WithString("data", mcp.Description("JSON object merged into the data; null values remove keys")),
	), s.handleUpdateElement)

	// ── batch_update_elements ──────────────────────────
	s.mcp.AddTool(mcp.NewTool("batch_update_elements",
		mcp.WithDescription("Update several elements as one undoable step. Pass a JSON array of {id, patch} objects where patch has the update_element fields."),
		mcp.WithString("updates",
			mcp.Description(`JSON array [{"id": "...", "patch": {"x": 10, "width": 200}}, ...]`),
			mcp.Required(),
		),
	), s.handleBatchUpdateElements)

	// ── delete_elements (destructive) ──────────────────
	s.mcp.AddTool(mcp.NewTool("delete_elements",
		mcp.WithDescription("Delete elements from the current slide as one undoable step"),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteElements)

	// ── reorder_element ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reorder_element",
		mcp.WithDescription("Change the paint order of a top-level element. Use index, or one of front/back/forward/backward."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithNumber("index", mcp.Description("New paint index, 0 is the bottom")),
		mcp.WithString("direction", mcp.Description("front, back, forward or backward (used when index is omitted)")),
	), s.handleReorderElement)

	// ── group_elements ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("group_elements",
		mcp.WithDescription("Group two or more elements. The group's bounds enclose its children."),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs"), mcp.Required()),
	), s.handleGroupElements)

	// ── ungroup_element ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("ungroup_element",
		mcp.WithDescription("Dissolve a group, putting its children back on the slide"),
		mcp.WithString("groupId", mcp.Description("Group ID"), mcp.Required()),
	), s.handleUngroupElement)

	// ── duplicate_element ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_element",
		mcp.WithDescription("Duplicate an element with a small offset"),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
	), s.handleDuplicateElement)

	// ── toggle_lock ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("toggle_lock",
		mcp.WithDescription("Lock or unlock an element. Locked elements cannot be dragged or resized."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
	), s.handleToggleLock)

	// ── arrange_elements ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_elements",
		mcp.WithDescription("Lay out the top-level elements of the current slide in rows"),
		mcp.WithNumber("startX", mcp.Description("Starting X position (default 40)")),
		mcp.WithNumber("startY", mcp.Description("Starting Y position (default 40)")),
	), s.handleArrangeElements)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, slide, err := s.currentSlide()
	if err != nil {
		return nil, err
	}
	filter := req.GetString("type", "")
	summaries := []elementSummary{}
	for _, el := range slide.Linearize() {
		if filter != "" && string(el.Type) != filter {
			continue
		}
		summaries = append(summaries, summarizeElement(el))
	}
	return jsonResult(summaries)
}

func (s *Server) handleAddElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, slide, err := s.currentSlide()
	if err != nil {
		return nil, err
	}
	args := req.GetArguments()
	elType := domain.ElementType(req.GetString("type", ""))
	if elType == "" {
		return nil, fmt.Errorf("type is required")
	}
	if elType == domain.ElementGroup {
		return nil, fmt.Errorf("use group_elements to create groups")
	}

	defaults, ok := defaultSizes[elType]
	if !ok {
		defaults = [2]float64{300, 200}
	}
	el := domain.Element{
		Type: elType,
		Bounds: domain.Bounds{
			Width:  getFloat(args, "width", defaults[0]),
			Height: getFloat(args, "height", defaults[1]),
		},
		Content:  req.GetString("content", ""),
		Metadata: domain.Metadata{Name: req.GetString("name", "")},
	}
	if raw := req.GetString("style", ""); raw != "" {
		if err := parseJSON(raw, &el.Style); err != nil {
			return nil, fmt.Errorf("invalid style JSON: %w", err)
		}
	}
	if raw := req.GetString("data", ""); raw != "" {
		if err := parseJSON(raw, &el.Data); err != nil {
			return nil, fmt.Errorf("invalid data JSON: %w", err)
		}
	}

	x, hasX := args["x"].(float64)
	y, hasY := args["y"].(float64)
	if !hasX || !hasY {
		w, h := st.Deck.Settings.CanvasSize()
		x, y = s.layout.NextPosition(slide.Linearize(), el.Bounds.Width, el.Bounds.Height, w, h)
	}
	el.Bounds.X, el.Bounds.Y = x, y

	id := s.editor.AddElement(el)
	if id == "" {
		return nil, fmt.Errorf("add element: invalid %s element", elType)
	}
	el.ID = id
	s.emitDeckChanged(ctx, "add_element")
	return jsonResult(summarizeElement(el))
}

// patchFromArgs builds an element patch from update_element style arguments.
func patchFromArgs(args map[string]any) (editor.ElementPatch, error) {
	p := editor.ElementPatch{
		X:        optFloat(args, "x"),
		Y:        optFloat(args, "y"),
		Width:    optFloat(args, "width"),
		Height:   optFloat(args, "height"),
		Rotation: optFloat(args, "rotation"),
		Content:  optString(args, "content"),
		Name:     optString(args, "name"),
		Hidden:   optBool(args, "hidden"),
	}
	if raw, ok := args["style"].(string); ok && raw != "" {
		if err := parseJSON(raw, &p.Style); err != nil {
			return p, fmt.Errorf("invalid style JSON: %w", err)
		}
	}
	if raw, ok := args["data"].(string); ok && raw != "" {
		if err := parseJSON(raw, &p.Data); err != nil {
			return p, fmt.Errorf("invalid data JSON: %w", err)
		}
	}
	return p, nil
}

func (s *Server) handleUpdateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, slide, err := s.currentSlide()
	if err != nil {
		return nil, err
	}
	id, err := req.RequireString("elementId")
	if err != nil {
		return nil, err
	}
	if _, ok := slide.Element(id); !ok {
		return nil, fmt.Errorf("element %s not found on the current slide", id)
	}
	patch, err := patchFromArgs(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if !s.editor.UpdateElement(id, patch) {
		return textResult("Nothing changed"), nil
	}
	s.emitDeckChanged(ctx, "update_element")

	_, slide, _ = s.currentSlide()
	updated, _ := slide.Element(id)
	return jsonResult(summarizeElement(updated))
}

func (s *Server) handleBatchUpdateElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, _, err := s.currentSlide(); err != nil {
		return nil, err
	}
	raw, err := req.RequireString("updates")
	if err != nil {
		return nil, err
	}
	var updates []editor.ElementUpdate
	if err := parseJSON(raw, &updates); err != nil {
		return nil, fmt.Errorf("invalid updates JSON: %w", err)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("updates is empty")
	}
	n := s.editor.BatchUpdateElements(updates)
	if n > 0 {
		s.emitDeckChanged(ctx, "batch_update_elements")
	}
	return textResult(fmt.Sprintf("Updated %d of %d elements", n, len(updates))), nil
}

func (s *Server) handleDeleteElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, _, err := s.currentSlide(); err != nil {
		return nil, err
	}
	ids := splitIDs(req.GetString("elementIds", ""))
	if len(ids) == 0 {
		return nil, fmt.Errorf("elementIds is required")
	}
	if !s.editor.DeleteElements(ids) {
		return nil, fmt.Errorf("none of %v found on the current slide", ids)
	}
	s.emitDeckChanged(ctx, "delete_elements")
	return textResult(fmt.Sprintf("Deleted %d elements", len(ids))), nil
}

func (s *Server) handleReorderElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, _, err := s.currentSlide(); err != nil {
		return nil, err
	}
	id, err := req.RequireString("elementId")
	if err != nil {
		return nil, err
	}

	var changed bool
	if index, ok := req.GetArguments()["index"].(float64); ok {
		changed = s.editor.ReorderElement(id, int(index))
	} else {
		switch dir := req.GetString("direction", ""); dir {
		case "front":
			changed = s.editor.BringToFront(id)
		case "back":
			changed = s.editor.SendToBack(id)
		case "forward":
			changed = s.editor.BringForward(id)
		case "backward":
			changed = s.editor.SendBackward(id)
		default:
			return nil, fmt.Errorf("index or direction (front, back, forward, backward) is required")
		}
	}
	if !changed {
		return textResult("Nothing changed (unknown id, group child, or already in place)"), nil
	}
	s.emitDeckChanged(ctx, "reorder_element")
	return textResult(fmt.Sprintf("Element %s reordered", id)), nil
}

func (s *Server) handleGroupElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, _, err := s.currentSlide(); err != nil {
		return nil, err
	}
	ids := splitIDs(req.GetString("elementIds", ""))
	groupID := s.editor.GroupElements(ids)
	if groupID == "" {
		return nil, fmt.Errorf("group elements: need at least two existing elements")
	}
	s.emitDeckChanged(ctx, "group_elements")
	_, slide, _ := s.currentSlide()
	group, _ := slide.Element(groupID)
	return jsonResult(summarizeElement(group))
}

func (s *Server) handleUngroupElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, _, err := s.currentSlide(); err != nil {
		return nil, err
	}
	groupID, err := req.RequireString("groupId")
	if err != nil {
		return nil, err
	}
	children := s.editor.UngroupElements(groupID)
	if children == nil {
		return nil, fmt.Errorf("ungroup: %s is not a group on the current slide", groupID)
	}
	s.emitDeckChanged(ctx, "ungroup_element")
	return jsonResult(map[string]any{"childIds": children})
}

func (s *Server) handleDuplicateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, _, err := s.currentSlide(); err != nil {
		return nil, err
	}
	id, err := req.RequireString("elementId")
	if err != nil {
		return nil, err
	}
	newID := s.editor.DuplicateElement(id)
	if newID == "" {
		return nil, fmt.Errorf("element %s not found on the current slide", id)
	}
	s.emitDeckChanged(ctx, "duplicate_element")
	return jsonResult(map[string]string{"elementId": newID})
}

func (s *Server) handleToggleLock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, _, err := s.currentSlide(); err != nil {
		return nil, err
	}
	id, err := req.RequireString("elementId")
	if err != nil {
		return nil, err
	}
	if !s.editor.ToggleElementLock(id) {
		return nil, fmt.Errorf("element %s not found on the current slide", id)
	}
	s.emitDeckChanged(ctx, "toggle_lock")
	_, slide, _ := s.currentSlide()
	el, _ := slide.Element(id)
	return jsonResult(map[string]any{"elementId": id, "locked": el.Metadata.Locked})
}

func (s *Server) handleArrangeElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, slide, err := s.currentSlide()
	if err != nil {
		return nil, err
	}
	args := req.GetArguments()
	w, _ := st.Deck.Settings.CanvasSize()
	var movable []domain.Element
	for _, el := range slide.Linearize() {
		if !el.Metadata.Locked {
			movable = append(movable, el)
		}
	}
	placed := s.layout.Arrange(movable, getFloat(args, "startX", Margin), getFloat(args, "startY", Margin), w)

	updates := make([]editor.ElementUpdate, 0, len(placed))
	for _, el := range movable {
		b := placed[el.ID]
		updates = append(updates, editor.ElementUpdate{ID: el.ID, Patch: editor.ElementPatch{X: &b.X, Y: &b.Y}})
	}
	n := s.editor.BatchUpdateElements(updates)
	if n > 0 {
		s.emitDeckChanged(ctx, "arrange_elements")
	}
	return textResult(fmt.Sprintf("Arranged %d elements", n)), nil
}
