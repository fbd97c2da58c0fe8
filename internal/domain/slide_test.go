package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(id string, x, y, w, h float64) Element {
	return Element{ID: id, Type: ElementShape, Bounds: Bounds{X: x, Y: y, Width: w, Height: h}}
}

func TestUnion(t *testing.T) {
	u, ok := Union(Bounds{X: 10, Y: 10, Width: 20, Height: 20}, Bounds{X: 50, Y: 50, Width: 10, Height: 10})
	require.True(t, ok)
	assert.Equal(t, Bounds{X: 10, Y: 10, Width: 50, Height: 50}, u)

	_, ok = Union()
	assert.False(t, ok)
}

func TestSlide_FindNestedAndAncestors(t *testing.T) {
	inner := Element{ID: "inner", Type: ElementGroup, Children: []Element{box("c", 0, 0, 5, 5), box("d", 10, 10, 5, 5)}}
	outer := Element{ID: "outer", Type: ElementGroup, Children: []Element{inner, box("e", 40, 40, 5, 5)}}
	s := Slide{ID: "s1", Elements: []Element{box("a", 0, 0, 1, 1)}, Layers: []Layer{{ID: "l1", Elements: []Element{outer}}}}

	loc, ok := s.Find("d")
	require.True(t, ok)
	assert.Equal(t, 0, loc.LayerIndex)
	assert.Equal(t, []int{0, 0, 1}, loc.Path)
	assert.Equal(t, []string{"outer", "inner"}, s.Ancestors("d"))
	assert.Nil(t, s.Ancestors("a"))

	_, ok = s.Find("missing")
	assert.False(t, ok)
}

func TestSlide_ReplaceRecomputesAncestorBounds(t *testing.T) {
	g := Element{ID: "g", Type: ElementGroup, Children: []Element{box("a", 10, 10, 20, 20), box("b", 50, 50, 10, 10)}}
	g.RecalculateGroupBounds()
	s := Slide{ID: "s", Elements: []Element{g}}

	moved := box("b", 100, 5, 10, 10)
	require.True(t, s.Replace(moved))

	got, _ := s.Element("g")
	assert.Equal(t, Bounds{X: 10, Y: 5, Width: 100, Height: 25}, got.Bounds)
}

func TestSlide_RemoveDropsEmptyGroups(t *testing.T) {
	inner := Element{ID: "inner", Type: ElementGroup, Children: []Element{box("only", 0, 0, 5, 5)}}
	outer := Element{ID: "outer", Type: ElementGroup, Children: []Element{inner, box("keep", 20, 20, 5, 5)}}
	s := Slide{ID: "s", Elements: []Element{outer}}
	s.RecalculateGroups()

	removed, ok := s.Remove("only")
	require.True(t, ok)
	assert.Equal(t, "only", removed.ID)

	_, ok = s.Find("inner")
	assert.False(t, ok, "empty group should be removed")
	got, _ := s.Element("outer")
	assert.Equal(t, Bounds{X: 20, Y: 20, Width: 5, Height: 5}, got.Bounds)
}

func TestSlide_LinearizeOrdersLayers(t *testing.T) {
	s := Slide{
		ID:       "s",
		Elements: []Element{box("base", 0, 0, 1, 1)},
		Layers: []Layer{
			{ID: "top", Order: 2, Elements: []Element{box("t", 0, 0, 1, 1)}},
			{ID: "mid", Order: 1, Elements: []Element{box("m", 0, 0, 1, 1)}},
		},
	}
	var ids []string
	for _, e := range s.Linearize() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"base", "m", "t"}, ids)
}

func TestSlide_PruneTimeline(t *testing.T) {
	s := Slide{
		ID:       "s",
		Elements: []Element{box("a", 0, 0, 1, 1)},
		Timeline: &Timeline{Steps: []TimelineStep{
			{ID: "1", ElementIDs: []string{"a", "gone"}},
			{ID: "2", ElementIDs: []string{"gone"}},
		}},
	}
	s.PruneTimeline()
	require.Len(t, s.Timeline.Steps, 1)
	assert.Equal(t, []string{"a"}, s.Timeline.Steps[0].ElementIDs)
}

func TestDeck_CloneIsDeep(t *testing.T) {
	d := &Deck{
		Meta: DeckMeta{ID: "d"},
		Slides: []Slide{{ID: "s", Elements: []Element{{
			ID: "g", Type: ElementGroup, Style: map[string]any{"fill": "#fff"},
			Children: []Element{box("a", 1, 1, 1, 1)},
		}}}},
	}
	c := d.Clone()
	c.Slides[0].Elements[0].Children[0].Bounds.X = 99
	c.Slides[0].Elements[0].Style["fill"] = "#000"

	assert.Equal(t, 1.0, d.Slides[0].Elements[0].Children[0].Bounds.X)
	assert.Equal(t, "#fff", d.Slides[0].Elements[0].Style["fill"])
}

func TestValidate(t *testing.T) {
	valid := &Deck{Meta: DeckMeta{ID: "d"}, Slides: []Slide{{ID: "s", Elements: []Element{box("a", 0, 0, 1, 1)}}}}
	require.NoError(t, Validate(valid))

	missingID := &Deck{Slides: []Slide{{ID: "s"}}}
	assert.True(t, errors.Is(Validate(missingID), ErrInvalidDeck))

	badType := valid.Clone()
	badType.Slides[0].Elements[0].Type = "hologram"
	assert.ErrorIs(t, Validate(badType), ErrInvalidDeck)

	dup := valid.Clone()
	dup.Slides[0].Layers = []Layer{{ID: "l", Elements: []Element{box("a", 5, 5, 1, 1)}}}
	assert.ErrorIs(t, Validate(dup), ErrInvalidDeck)

	negative := valid.Clone()
	negative.Slides[0].Elements[0].Bounds.Width = -1
	assert.ErrorIs(t, Validate(negative), ErrInvalidDeck)

	nan := valid.Clone()
	nan.Slides[0].Elements[0].Bounds.X = math.NaN()
	assert.ErrorIs(t, Validate(nan), ErrInvalidDeck)

	inf := valid.Clone()
	inf.Slides[0].Elements = []Element{{ID: "g", Type: ElementGroup, Children: []Element{box("c", 0, 0, 1, 1)}}}
	inf.Slides[0].Elements[0].Children[0].Rotation = math.Inf(1)
	assert.ErrorIs(t, Validate(inf), ErrInvalidDeck)

	settings := valid.Clone()
	settings.Settings.Width = math.Inf(1)
	assert.ErrorIs(t, Validate(settings), ErrInvalidDeck)
}
