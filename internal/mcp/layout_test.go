package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckeditor/internal/domain"
)

func el(id string, x, y, w, h float64) domain.Element {
	return domain.Element{ID: id, Type: domain.ElementShape, Bounds: domain.Bounds{X: x, Y: y, Width: w, Height: h}}
}

func TestNextPosition_EmptySlide(t *testing.T) {
	le := NewLayoutEngine()
	x, y := le.NextPosition(nil, 400, 300, 1280, 720)
	assert.Equal(t, Margin, x)
	assert.Equal(t, Margin, y)
}

func TestNextPosition_AvoidsExistingElements(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Element{el("a", 40, 40, 400, 300)}
	x, y := le.NextPosition(existing, 400, 300, 1280, 720)
	assert.Equal(t, 460.0, x)
	assert.Equal(t, 40.0, y)

	existing = append(existing, el("b", 460, 40, 400, 300))
	x, y = le.NextPosition(existing, 400, 300, 1280, 720)
	got := domain.Bounds{X: x, Y: y, Width: 400, Height: 300}
	for _, e := range existing {
		padded := domain.Bounds{X: e.Bounds.X - Padding, Y: e.Bounds.Y - Padding, Width: e.Bounds.Width + 2*Padding, Height: e.Bounds.Height + 2*Padding}
		assert.False(t, got.Intersects(padded), "overlaps %s", e.ID)
	}
}

func TestNextPosition_IgnoresHidden(t *testing.T) {
	le := NewLayoutEngine()
	hidden := el("h", 0, 0, 1280, 720)
	hidden.Metadata.Hidden = true
	x, y := le.NextPosition([]domain.Element{hidden}, 100, 100, 1280, 720)
	assert.Equal(t, Margin, x)
	assert.Equal(t, Margin, y)
}

func TestNextPosition_FullSlideGoesBelow(t *testing.T) {
	le := NewLayoutEngine()
	x, y := le.NextPosition([]domain.Element{el("bg", 0, 0, 1280, 720)}, 400, 300, 1280, 720)
	assert.Equal(t, Margin, x)
	assert.Equal(t, 740.0, y)
}

func TestArrange(t *testing.T) {
	le := NewLayoutEngine()
	els := []domain.Element{
		el("1", 500, 500, 300, 200),
		el("2", 0, 0, 300, 200),
		el("3", 10, 10, 300, 200),
		el("4", 10, 10, 300, 200),
	}
	got := le.Arrange(els, 40, 40, 1280)
	require.Len(t, got, 4)
	assert.Equal(t, domain.Bounds{X: 40, Y: 40, Width: 300, Height: 200}, got["1"])
	assert.Equal(t, 360.0, got["2"].X)
	assert.Equal(t, 680.0, got["3"].X)
	assert.Equal(t, domain.Bounds{X: 40, Y: 260, Width: 300, Height: 200}, got["4"])

	for i := range els {
		for j := i + 1; j < len(els); j++ {
			assert.False(t, got[els[i].ID].Intersects(got[els[j].ID]), "%s and %s overlap", els[i].ID, els[j].ID)
		}
	}
}

func TestSnap(t *testing.T) {
	le := NewLayoutEngine()
	tests := []struct {
		input, want float64
	}{
		{0, 0},
		{9, 0},
		{10, 20},
		{29, 20},
		{31, 40},
		{100, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, le.snap(tt.input), "snap(%.0f)", tt.input)
	}
}
