package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	currentDeckURI = "deck://current"
	slidePrefix    = "deck://slide/"
)

func (s *Server) registerResources() {
	// ── deck://current ─────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		currentDeckURI,
		"Open Deck",
		mcp.WithMIMEType("application/json"),
	), s.handleCurrentDeckResource)

	// ── deck://slide/{slideId}/elements ────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			slidePrefix+"{slideId}/elements",
			"Elements on a Slide",
		),
		s.handleSlideElementsResource,
	)
}

func (s *Server) handleCurrentDeckResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := s.openDeck()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(st.Deck, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal deck: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      currentDeckURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleSlideElementsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	slideID := slideIDFromURI(uri)
	if slideID == "" {
		return nil, fmt.Errorf("could not extract slideId from URI: %s", uri)
	}
	st, err := s.openDeck()
	if err != nil {
		return nil, err
	}
	slide := st.Slide(slideID)
	if slide == nil {
		return nil, fmt.Errorf("slide %s not found", slideID)
	}

	summaries := []elementSummary{}
	for _, el := range slide.Linearize() {
		summaries = append(summaries, summarizeElement(el))
	}
	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// slideIDFromURI extracts the id from "deck://slide/{id}/elements".
func slideIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, slidePrefix)
	if !ok {
		return ""
	}
	id, _, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}
	return id
}
