package interaction

import (
	"math"

	"deckeditor/internal/domain"
	"deckeditor/internal/editor"
)

// DefaultSnapThreshold is the distance in canvas units within which an edge snaps.
const DefaultSnapThreshold = 5.0

// Snap adjusts the position of b so that one of its edges or its centre lines up
// with the nearest target line on each axis, if that line is within threshold.
// It returns the adjusted box and the guides that were hit.
func Snap(b domain.Bounds, targets []domain.Bounds, canvasW, canvasH, threshold float64) (domain.Bounds, []editor.Guide) {
	xs := []float64{0, canvasW / 2, canvasW}
	ys := []float64{0, canvasH / 2, canvasH}
	for _, t := range targets {
		xs = append(xs, t.X, t.CenterX(), t.Right())
		ys = append(ys, t.Y, t.CenterY(), t.Bottom())
	}

	var guides []editor.Guide
	if d, line, ok := nearest([]float64{b.X, b.CenterX(), b.Right()}, xs, threshold); ok {
		b.X += d
		guides = append(guides, editor.Guide{Axis: editor.AxisX, Position: line})
	}
	if d, line, ok := nearest([]float64{b.Y, b.CenterY(), b.Bottom()}, ys, threshold); ok {
		b.Y += d
		guides = append(guides, editor.Guide{Axis: editor.AxisY, Position: line})
	}
	return b, guides
}

// nearest finds the smallest offset that moves one of edges onto one of lines.
func nearest(edges, lines []float64, threshold float64) (delta, line float64, ok bool) {
	best := math.Inf(1)
	for _, e := range edges {
		for _, l := range lines {
			d := l - e
			if math.Abs(d) <= threshold && math.Abs(d) < math.Abs(best) {
				best, line, ok = d, l, true
			}
		}
	}
	if !ok {
		return 0, 0, false
	}
	return best, line, true
}

// snapTargets returns the boxes a dragged set can align to: visible top-level
// elements, plus the children of the opened group, minus the dragged elements and
// the groups containing them.
func snapTargets(s *editor.State, dragged map[string]bool) []domain.Bounds {
	slide := s.CurrentSlide()
	if slide == nil {
		return nil
	}
	skip := make(map[string]bool, len(dragged))
	for id := range dragged {
		skip[id] = true
		for _, a := range slide.Ancestors(id) {
			skip[a] = true
		}
	}
	var out []domain.Bounds
	add := func(els []domain.Element) {
		for _, el := range els {
			if skip[el.ID] || el.Metadata.Hidden {
				continue
			}
			out = append(out, el.Bounds)
		}
	}
	add(slide.Linearize())
	if s.OpenedGroupID != "" {
		if g, ok := slide.Element(s.OpenedGroupID); ok {
			add(g.Children)
		}
	}
	return out
}
