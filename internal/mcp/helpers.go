package mcpserver

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"deckeditor/internal/domain"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

func boolPtr(v bool) *bool { return &v }

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

// optFloat returns a pointer to args[key] when it was given.
func optFloat(args map[string]any, key string) *float64 {
	if v, ok := args[key].(float64); ok {
		return &v
	}
	return nil
}

func optString(args map[string]any, key string) *string {
	if v, ok := args[key].(string); ok {
		return &v
	}
	return nil
}

func optBool(args map[string]any, key string) *bool {
	if v, ok := args[key].(bool); ok {
		return &v
	}
	return nil
}

// splitIDs parses a comma-separated id list.
func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ── Summaries ──────────────────────────────────────────────

type elementSummary struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Name     string           `json:"name,omitempty"`
	X        float64          `json:"x"`
	Y        float64          `json:"y"`
	Width    float64          `json:"width"`
	Height   float64          `json:"height"`
	Rotation float64          `json:"rotation,omitempty"`
	Locked   bool             `json:"locked,omitempty"`
	Hidden   bool             `json:"hidden,omitempty"`
	Preview  string           `json:"preview,omitempty"` // first previewRunes characters of content
	Children []elementSummary `json:"children,omitempty"`
}

const previewRunes = 200

func summarizeElement(el domain.Element) elementSummary {
	preview := el.Content
	if utf8.RuneCountInString(preview) > previewRunes {
		preview = string([]rune(preview)[:previewRunes]) + "..."
	}
	sum := elementSummary{
		ID:       el.ID,
		Type:     string(el.Type),
		Name:     el.Metadata.Name,
		X:        el.Bounds.X,
		Y:        el.Bounds.Y,
		Width:    el.Bounds.Width,
		Height:   el.Bounds.Height,
		Rotation: el.Rotation,
		Locked:   el.Metadata.Locked,
		Hidden:   el.Metadata.Hidden,
		Preview:  preview,
	}
	for _, c := range el.Children {
		sum.Children = append(sum.Children, summarizeElement(c))
	}
	return sum
}

type slideSummary struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Elements int    `json:"elements"`
	Current  bool   `json:"current,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func summarizeSlides(d *domain.Deck, current int) []slideSummary {
	out := make([]slideSummary, len(d.Slides))
	for i, sl := range d.Slides {
		out[i] = slideSummary{
			Index:    i,
			ID:       sl.ID,
			Elements: len(sl.Linearize()),
			Current:  i == current,
			Notes:    sl.Notes,
		}
	}
	return out
}
