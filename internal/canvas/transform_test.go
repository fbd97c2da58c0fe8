package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var logical = Size{Width: 1280, Height: 720}

func TestTransform_RoundTrip(t *testing.T) {
	tr := Transform{Logical: logical, Container: Rect{Left: 100, Top: 50, Width: 640, Height: 360}}
	assert.InDelta(t, 0.5, tr.EffectiveScale(), 1e-9)

	p := tr.ScreenToCanvas(420, 230)
	assert.InDelta(t, 640, p.X, 1e-9)
	assert.InDelta(t, 360, p.Y, 1e-9)

	back := tr.CanvasToScreen(p.X, p.Y)
	assert.InDelta(t, 420, back.X, 1e-9)
	assert.InDelta(t, 230, back.Y, 1e-9)
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		viewport Size
		want     float64
	}{
		{Size{1280, 720}, 1},
		{Size{640, 720}, 0.5},
		{Size{2560, 720}, 1},
		{Size{0, 0}, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, FitScale(tt.viewport, logical), 1e-9, "viewport %v", tt.viewport)
	}
}

func TestViewport_FoldsZoomAndPan(t *testing.T) {
	v := Viewport{Logical: logical, Bounds: Rect{Width: 1280, Height: 720}}

	tr := v.Transform(2, Point{X: -100, Y: 0})
	assert.InDelta(t, 2, tr.EffectiveScale(), 1e-9)
	// Canvas is 2560 wide, centred: left = (1280-2560)/2 - 100.
	assert.InDelta(t, -740, tr.Container.Left, 1e-9)

	p := tr.ScreenToCanvas(-740+200, tr.Container.Top+100)
	assert.InDelta(t, 100, p.X, 1e-9)
	assert.InDelta(t, 50, p.Y, 1e-9)
}

func TestMeasuredSurface_IgnoresZoom(t *testing.T) {
	m := MeasuredSurface{Logical: logical, Measure: func() Rect { return Rect{Width: 1920, Height: 1080} }}
	tr := m.Transform(3, Point{X: 40})
	assert.InDelta(t, 1.5, tr.EffectiveScale(), 1e-9)
	assert.InDelta(t, 20, tr.ScreenDelta(30, 0).X, 1e-9)
}
