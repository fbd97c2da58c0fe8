package domain

import "math"

type ElementType string

const (
	ElementText      ElementType = "text"
	ElementRichText  ElementType = "richtext"
	ElementImage     ElementType = "image"
	ElementShape     ElementType = "shape"
	ElementChart     ElementType = "chart"
	ElementCodeBlock ElementType = "codeblock"
	ElementTable     ElementType = "table"
	ElementGroup     ElementType = "group"
)

// Bounds are always absolute slide coordinates, including for group children.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

func (b Bounds) Right() float64   { return b.X + b.Width }
func (b Bounds) Bottom() float64  { return b.Y + b.Height }
func (b Bounds) CenterX() float64 { return b.X + b.Width/2 }
func (b Bounds) CenterY() float64 { return b.Y + b.Height/2 }

// Translate returns b moved by (dx, dy).
func (b Bounds) Translate(dx, dy float64) Bounds {
	b.X += dx
	b.Y += dy
	return b
}

// Intersects reports whether the two boxes overlap.
func (b Bounds) Intersects(o Bounds) bool {
	return b.X < o.Right() && b.Right() > o.X &&
		b.Y < o.Bottom() && b.Bottom() > o.Y
}

// Union returns the axis-aligned bounding box of all boxes. ok is false for an empty input.
func Union(boxes ...Bounds) (Bounds, bool) {
	if len(boxes) == 0 {
		return Bounds{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range boxes {
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.Right())
		maxY = math.Max(maxY, b.Bottom())
	}
	return Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

type Metadata struct {
	Locked bool   `json:"locked"`
	Hidden bool   `json:"hidden,omitempty"`
	Name   string `json:"name,omitempty"`
	// AspectRatio (width/height) is declared by elements that keep proportions on resize; 0 means free.
	AspectRatio float64 `json:"aspectRatio,omitempty" validate:"gte=0"`
}

// Element is any object placed on a slide. Children is only used by groups.
type Element struct {
	ID       string         `json:"id" validate:"required"`
	Type     ElementType    `json:"type" validate:"required,oneof=text richtext image shape chart codeblock table group"`
	Bounds   Bounds         `json:"bounds"`
	Rotation float64        `json:"rotation,omitempty"`
	Style    map[string]any `json:"style,omitempty"`
	Metadata Metadata       `json:"metadata"`
	Content  string         `json:"content,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Children []Element      `json:"children,omitempty" validate:"dive"`
}

func (e Element) IsGroup() bool { return e.Type == ElementGroup }

// Clone deep-copies the element, its maps and its children.
func (e Element) Clone() Element {
	c := e
	c.Style = cloneMap(e.Style)
	c.Data = cloneMap(e.Data)
	c.Children = CloneElements(e.Children)
	return c
}

func CloneElements(els []Element) []Element {
	if els == nil {
		return nil
	}
	out := make([]Element, len(els))
	for i := range els {
		out[i] = els[i].Clone()
	}
	return out
}

// RecalculateGroupBounds sets the group's bounds to the bounding box of its children,
// recursing into nested groups first. Non-groups and empty groups are left unchanged.
func (e *Element) RecalculateGroupBounds() {
	if !e.IsGroup() || len(e.Children) == 0 {
		return
	}
	boxes := make([]Bounds, len(e.Children))
	for i := range e.Children {
		e.Children[i].RecalculateGroupBounds()
		boxes[i] = e.Children[i].Bounds
	}
	e.Bounds, _ = Union(boxes...)
}

// Walk visits every element depth-first, children after their parent.
// Returning false from fn stops the walk.
func Walk(els []Element, fn func(e *Element) bool) bool {
	for i := range els {
		if !fn(&els[i]) {
			return false
		}
		if len(els[i].Children) > 0 && !Walk(els[i].Children, fn) {
			return false
		}
	}
	return true
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = cloneMap(vv)
		case []any:
			out[k] = append([]any(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}
