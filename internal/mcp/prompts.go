package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("outline_deck",
		mcp.WithPromptDescription("Build a slide-per-section deck from a topic"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the presentation is about"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("slides",
			mcp.ArgumentDescription("Number of slides (default 5)"),
		),
	), s.handleOutlinePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_slide",
		mcp.WithPromptDescription("Clean up the layout of the current slide"),
	), s.handleTidyPrompt)
}

func (s *Server) handleOutlinePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	slides := req.Params.Arguments["slides"]
	if slides == "" {
		slides = "5"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Outline a deck about: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a %s-slide presentation about "%s" in the open deck. Follow these steps:

1. Use list_slides to see what is already there
2. For each section, use add_slide, then add_element with type "text" for the title
3. Add the body as a "richtext" element, or a "chart"/"table" element when the section is about numbers
4. Put speaker notes on each slide with update_slide
5. Call save_deck when done

Leave x/y out so elements are placed automatically. Keep one idea per slide.`, slides, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Tidy the current slide",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Tidy the current slide. Follow these steps:

1. Use list_elements to see every element and its bounds
2. Group elements that belong together with group_elements
3. Align edges with batch_update_elements so related elements share x or y values
4. Bring titles to the front with reorder_element (direction "front")
5. If the slide is crowded, use arrange_elements, then adjust by hand

Do not move locked elements.`,
				},
			},
		},
	}, nil
}
