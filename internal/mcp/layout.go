package mcpserver

import (
	"math"

	"deckeditor/internal/domain"
)

const (
	GridSize = 20.0
	Padding  = 20.0 // one grid cell between elements
	Margin   = 40.0 // kept free along the slide edges
)

// LayoutEngine places elements on a slide so that agent-created elements
// don't overlap existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	margin   float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		margin:   Margin,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// NextPosition finds the first free grid position, scanning rows top to bottom,
// for an element of size (w, h) on a canvas of size (canvasW, canvasH).
// When the slide is full the element goes below everything else.
func (le *LayoutEngine) NextPosition(existing []domain.Element, w, h, canvasW, canvasH float64) (float64, float64) {
	occupied := make([]domain.Bounds, 0, len(existing))
	for _, el := range existing {
		if el.Metadata.Hidden {
			continue
		}
		b := el.Bounds
		occupied = append(occupied, domain.Bounds{
			X:      b.X - le.padding,
			Y:      b.Y - le.padding,
			Width:  b.Width + le.padding*2,
			Height: b.Height + le.padding*2,
		})
	}

	maxX := math.Max(le.margin, canvasW-le.margin-w)
	maxY := math.Max(le.margin, canvasH-le.margin-h)
	for y := le.margin; y <= maxY; y += le.gridSize {
		for x := le.margin; x <= maxX; x += le.gridSize {
			candidate := domain.Bounds{X: le.snap(x), Y: le.snap(y), Width: w, Height: h}
			free := true
			for _, occ := range occupied {
				if candidate.Intersects(occ) {
					free = false
					break
				}
			}
			if free {
				return candidate.X, candidate.Y
			}
		}
	}

	bottom := 0.0
	for _, el := range existing {
		bottom = math.Max(bottom, el.Bounds.Bottom())
	}
	return le.snap(le.margin), le.snap(bottom + le.padding)
}

// Arrange lays elements out in rows from (startX, startY), wrapping before
// canvasW. It returns the new bounds by element id.
func (le *LayoutEngine) Arrange(elements []domain.Element, startX, startY, canvasW float64) map[string]domain.Bounds {
	out := make(map[string]domain.Bounds, len(elements))
	x := le.snap(startX)
	y := le.snap(startY)
	rowHeight := 0.0

	for _, el := range elements {
		b := el.Bounds
		if x > le.snap(startX) && x+b.Width > canvasW-le.margin {
			x = le.snap(startX)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}
		b.X, b.Y = x, y
		out[el.ID] = b
		rowHeight = math.Max(rowHeight, b.Height)
		x += le.snap(b.Width + le.padding)
	}
	return out
}
