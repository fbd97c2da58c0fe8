package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckeditor/internal/domain"
)

func TestGroupElements_UnionBoundsAbsoluteChildren(t *testing.T) {
	e := newEditor(t, shape("A", box(10, 10, 20, 20)), shape("B", box(50, 50, 10, 10)))

	gid := e.GroupElements([]string{"A", "B"})
	require.NotEmpty(t, gid)

	g := element(t, e, gid)
	assert.Equal(t, domain.ElementGroup, g.Type)
	assert.Equal(t, box(10, 10, 50, 50), g.Bounds)
	require.Len(t, g.Children, 2)
	assert.Equal(t, box(10, 10, 20, 20), g.Children[0].Bounds)
	assert.Equal(t, box(50, 50, 10, 10), g.Children[1].Bounds)

	slide := e.State().CurrentSlide()
	require.Len(t, slide.Elements, 1)
	assert.Equal(t, []string{gid}, e.State().SelectedElementIDs)
}

func TestGroupElements_NeedsTwoExisting(t *testing.T) {
	e := newEditor(t, shape("A", box(0, 0, 1, 1)))
	assert.Empty(t, e.GroupElements([]string{"A"}))
	assert.Empty(t, e.GroupElements([]string{"A", "ghost"}))
	assert.Empty(t, e.GroupElements([]string{"A", "A"}))
	assert.Equal(t, 0, e.State().History.UndoLen())
}

func TestGroupElements_MergesIntoExistingGroupFlat(t *testing.T) {
	e := newEditor(t,
		shape("a", box(0, 0, 10, 10)),
		shape("b", box(20, 0, 10, 10)),
		shape("c", box(40, 0, 10, 10)),
		shape("d", box(60, 0, 10, 10)),
	)
	g1 := e.GroupElements([]string{"a", "b"})
	g2 := e.GroupElements([]string{"c", "d"})

	merged := e.GroupElements([]string{g1, g2})
	assert.Equal(t, g1, merged)

	g := element(t, e, merged)
	var ids []string
	for _, c := range g.Children {
		assert.False(t, c.IsGroup())
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	assert.Equal(t, box(0, 0, 70, 10), g.Bounds)
	_, ok := e.State().CurrentSlide().Find(g2)
	assert.False(t, ok)
}

func TestUngroupElements_RestoresChildren(t *testing.T) {
	e := newEditor(t, shape("A", box(10, 10, 20, 20)), shape("B", box(50, 50, 10, 10)))
	gid := e.GroupElements([]string{"A", "B"})
	require.True(t, e.OpenGroup(gid))

	ids := e.UngroupElements(gid)
	assert.Equal(t, []string{"A", "B"}, ids)

	s := e.State()
	slide := s.CurrentSlide()
	require.Len(t, slide.Elements, 2)
	assert.Equal(t, box(10, 10, 20, 20), slide.Elements[0].Bounds)
	assert.Equal(t, box(50, 50, 10, 10), slide.Elements[1].Bounds)
	assert.Empty(t, s.OpenedGroupID)
	assert.ElementsMatch(t, []string{"A", "B"}, s.SelectedElementIDs)

	assert.Nil(t, e.UngroupElements("A"), "not a group")
}

func TestSelectElement_RedirectsToGroup(t *testing.T) {
	e := newEditor(t, shape("a", box(0, 0, 10, 10)), shape("b", box(20, 0, 10, 10)), shape("c", box(40, 0, 10, 10)))
	inner := e.GroupElements([]string{"a", "b"})
	outerID := e.GroupElements([]string{inner, "c"})
	require.Equal(t, inner, outerID, "merge keeps the existing group")

	require.True(t, e.SelectElement("a", false))
	assert.Equal(t, []string{inner}, e.State().SelectedElementIDs)

	require.True(t, e.OpenGroup(inner))
	require.True(t, e.SelectElement("a", false))
	assert.Equal(t, []string{"a"}, e.State().SelectedElementIDs)
	assert.Equal(t, inner, e.State().OpenedGroupID)

	require.True(t, e.SelectElement("b", true))
	assert.Equal(t, []string{"a", "b"}, e.State().SelectedElementIDs)
	require.True(t, e.SelectElement("a", true))
	assert.Equal(t, []string{"b"}, e.State().SelectedElementIDs)
}

func TestSelectElement_NestedGroupInsideOpened(t *testing.T) {
	inner := domain.Element{ID: "inner", Type: domain.ElementGroup, Children: []domain.Element{
		shape("a", box(0, 0, 10, 10)),
		shape("b", box(20, 0, 10, 10)),
	}}
	outer := domain.Element{ID: "outer", Type: domain.ElementGroup, Children: []domain.Element{
		inner,
		shape("c", box(40, 0, 10, 10)),
	}}
	e := newEditor(t, outer, shape("z", box(200, 200, 5, 5)))

	e.SelectElement("a", false)
	assert.Equal(t, []string{"outer"}, e.State().SelectedElementIDs)

	e.OpenGroup("outer")
	e.SelectElement("a", false)
	assert.Equal(t, []string{"inner"}, e.State().SelectedElementIDs)

	e.SelectElement("z", false)
	assert.Equal(t, []string{"z"}, e.State().SelectedElementIDs)
	assert.Empty(t, e.State().OpenedGroupID, "selecting outside closes the group")
}

func TestCloseGroup_SelectsGroup(t *testing.T) {
	e := newEditor(t, shape("a", box(0, 0, 10, 10)), shape("b", box(20, 0, 10, 10)))
	gid := e.GroupElements([]string{"a", "b"})
	e.OpenGroup(gid)
	require.True(t, e.CloseGroup())
	assert.Equal(t, []string{gid}, e.State().SelectedElementIDs)
	assert.False(t, e.CloseGroup())
}

func TestUpdateElement_OpenedGroupChild(t *testing.T) {
	e := newEditor(t, shape("a", box(0, 0, 10, 10)), shape("b", box(20, 0, 10, 10)))
	gid := e.GroupElements([]string{"a", "b"})
	e.OpenGroup(gid)

	require.True(t, e.UpdateElement("a", ElementPatch{Y: ptr(30.0)}))
	assert.Equal(t, box(0, 0, 30, 40), element(t, e, gid).Bounds)
}
