// Package canvas converts between device pixels and the deck's fixed logical canvas.
package canvas

import "math"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an on-screen rectangle in device pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Transform maps screen pixels to canvas units using the measured on-screen rectangle
// of the rendered canvas. The measured width already folds in fit scale and zoom, so a
// single effective scale is enough.
type Transform struct {
	Logical   Size
	Container Rect
}

// EffectiveScale is screen pixels per canvas unit.
func (t Transform) EffectiveScale() float64 {
	if t.Logical.Width <= 0 || t.Container.Width <= 0 {
		return 1
	}
	return t.Container.Width / t.Logical.Width
}

func (t Transform) ScreenToCanvas(x, y float64) Point {
	s := t.EffectiveScale()
	return Point{X: (x - t.Container.Left) / s, Y: (y - t.Container.Top) / s}
}

func (t Transform) CanvasToScreen(x, y float64) Point {
	s := t.EffectiveScale()
	return Point{X: x*s + t.Container.Left, Y: y*s + t.Container.Top}
}

// ScreenDelta converts a pointer movement in pixels into canvas units.
func (t Transform) ScreenDelta(dx, dy float64) Point {
	s := t.EffectiveScale()
	return Point{X: dx / s, Y: dy / s}
}

// FitScale is the uniform scale that fits the logical canvas inside the viewport.
func FitScale(viewport Size, logical Size) float64 {
	if logical.Width <= 0 || logical.Height <= 0 || viewport.Width <= 0 || viewport.Height <= 0 {
		return 1
	}
	return math.Min(viewport.Width/logical.Width, viewport.Height/logical.Height)
}

// Surface yields the transform in effect for a given zoom and pan.
type Surface interface {
	Transform(zoom float64, pan Point) Transform
}

// MeasuredSurface reads the container rectangle from the renderer. Zoom and pan are
// already reflected in the measurement and are ignored.
type MeasuredSurface struct {
	Logical Size
	Measure func() Rect
}

func (m MeasuredSurface) Transform(float64, Point) Transform {
	return Transform{Logical: m.Logical, Container: m.Measure()}
}

// Viewport computes the container rectangle itself: the canvas is fitted and centred in
// the viewport, scaled by zoom, then offset by pan (in screen pixels).
type Viewport struct {
	Logical Size
	Bounds  Rect
}

func (v Viewport) Transform(zoom float64, pan Point) Transform {
	if zoom <= 0 {
		zoom = 1
	}
	scale := FitScale(Size{Width: v.Bounds.Width, Height: v.Bounds.Height}, v.Logical) * zoom
	w, h := v.Logical.Width*scale, v.Logical.Height*scale
	return Transform{
		Logical: v.Logical,
		Container: Rect{
			Left:   v.Bounds.Left + (v.Bounds.Width-w)/2 + pan.X,
			Top:    v.Bounds.Top + (v.Bounds.Height-h)/2 + pan.Y,
			Width:  w,
			Height: h,
		},
	}
}
