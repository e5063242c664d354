package service

import (
	"cms-go/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// applyPlacements 模拟持久化：把变更写回到扁平记录上。
func applyPlacements(menus []model.Menu, placements []MenuPlacement) []model.Menu {
	out := make([]model.Menu, len(menus))
	copy(out, menus)
	byID := make(map[uint]int, len(out))
	for i := range out {
		byID[out[i].ID] = i
	}
	for _, p := range placements {
		i := byID[p.ID]
		out[i].ParentID = p.ParentID
		out[i].SortOrder = p.SortOrder
	}
	return out
}

func childIDs(t *testing.T, menus []model.Menu, parent *uint) []uint {
	t.Helper()
	tree, err := BuildMenuTree(menus)
	require.NoError(t, err)
	level := tree
	if parent != nil {
		level = findNode(tree, *parent).Children
	}
	ids := make([]uint, 0, len(level))
	for _, n := range level {
		ids = append(ids, n.ID)
	}
	return ids
}

func findNode(level []*model.Menu, id uint) *model.Menu {
	for _, n := range level {
		if n.ID == id {
			return n
		}
		if found := findNode(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// assertDenseOrders 检查每个兄弟组的 sort_order 恰好是 1..n。
func assertDenseOrders(t *testing.T, menus []model.Menu) {
	t.Helper()
	groups := make(map[uint][]int)
	for _, m := range menus {
		key := uint(0)
		if m.ParentID != nil {
			key = *m.ParentID
		}
		groups[key] = append(groups[key], m.SortOrder)
	}
	for key, orders := range groups {
		seen := make(map[int]bool)
		for _, o := range orders {
			assert.False(t, seen[o], "duplicate sort order %d under %d", o, key)
			seen[o] = true
		}
		for i := 1; i <= len(orders); i++ {
			assert.True(t, seen[i], "missing sort order %d under %d", i, key)
		}
	}
}

func TestApplyMenuMovesSiblingAfter(t *testing.T) {
	r := uint(10)
	menus := []model.Menu{
		menu(r, nil, 1),
		menu(1, &r, 1), // A
		menu(2, &r, 2), // B
		menu(3, &r, 3), // C
	}

	placements, err := ApplyMenuMoves(menus, []MenuMove{{ID: 1, TargetID: 3, Position: MoveAfter}})
	require.NoError(t, err)

	after := applyPlacements(menus, placements)
	assert.Equal(t, []uint{2, 3, 1}, childIDs(t, after, &r))
	assertDenseOrders(t, after)
	for _, m := range after {
		if m.ID == 1 {
			require.NotNil(t, m.ParentID)
			assert.Equal(t, r, *m.ParentID)
			assert.Equal(t, 3, m.SortOrder)
		}
	}
}

func TestApplyMenuMovesSiblingBefore(t *testing.T) {
	menus := []model.Menu{menu(1, nil, 1), menu(2, nil, 2), menu(3, nil, 3)}

	placements, err := ApplyMenuMoves(menus, []MenuMove{{ID: 3, TargetID: 1, Position: MoveBefore}})
	require.NoError(t, err)

	after := applyPlacements(menus, placements)
	assert.Equal(t, []uint{3, 1, 2}, childIDs(t, after, nil))
	assertDenseOrders(t, after)
}

func TestApplyMenuMovesInsideAppendsAsLastChild(t *testing.T) {
	menus := []model.Menu{
		menu(1, nil, 1), // A
		menu(2, nil, 2), // B
		menu(3, uintPtr(2), 1),
	}

	placements, err := ApplyMenuMoves(menus, []MenuMove{{ID: 1, TargetID: 2, Position: MoveInside}})
	require.NoError(t, err)

	after := applyPlacements(menus, placements)
	assert.Equal(t, []uint{2}, childIDs(t, after, nil))
	assert.Equal(t, []uint{3, 1}, childIDs(t, after, uintPtr(2)))
	assertDenseOrders(t, after)
}

func TestApplyMenuMovesFollowsTargetMovedEarlierInBatch(t *testing.T) {
	menus := []model.Menu{
		menu(1, nil, 1),
		menu(2, nil, 2),
		menu(3, nil, 3),
	}

	// 先把 2 放进 1，再把 3 放到 2 之后：3 应该跟随 2 进入 1
	placements, err := ApplyMenuMoves(menus, []MenuMove{
		{ID: 2, TargetID: 1, Position: MoveInside},
		{ID: 3, TargetID: 2, Position: MoveAfter},
	})
	require.NoError(t, err)

	after := applyPlacements(menus, placements)
	assert.Equal(t, []uint{1}, childIDs(t, after, nil))
	assert.Equal(t, []uint{2, 3}, childIDs(t, after, uintPtr(1)))
	assertDenseOrders(t, after)
}

func TestApplyMenuMovesCarriesSubtree(t *testing.T) {
	menus := []model.Menu{
		menu(1, nil, 1),
		menu(2, nil, 2),
		menu(3, uintPtr(1), 1),
		menu(4, uintPtr(3), 1),
	}

	placements, err := ApplyMenuMoves(menus, []MenuMove{{ID: 3, TargetID: 2, Position: MoveInside}})
	require.NoError(t, err)

	after := applyPlacements(menus, placements)
	assert.Equal(t, []uint{3}, childIDs(t, after, uintPtr(2)))
	assert.Equal(t, []uint{4}, childIDs(t, after, uintPtr(3)))
	assert.Empty(t, childIDs(t, after, uintPtr(1)))
}

func TestApplyMenuMovesRenumbersGaps(t *testing.T) {
	menus := []model.Menu{
		menu(1, nil, 5),
		menu(2, nil, 9),
		menu(3, uintPtr(1), 7),
		menu(4, uintPtr(1), 7),
	}

	placements, err := ApplyMenuMoves(menus, []MenuMove{{ID: 2, TargetID: 1, Position: MoveBefore}})
	require.NoError(t, err)

	after := applyPlacements(menus, placements)
	assertDenseOrders(t, after)
	assert.Equal(t, []uint{2, 1}, childIDs(t, after, nil))
	assert.Equal(t, []uint{3, 4}, childIDs(t, after, uintPtr(1)))
}

func TestApplyMenuMovesRejectsCycles(t *testing.T) {
	menus := []model.Menu{
		menu(1, nil, 1),
		menu(2, uintPtr(1), 1),
		menu(3, uintPtr(2), 1),
	}

	_, err := ApplyMenuMoves(menus, []MenuMove{{ID: 1, TargetID: 3, Position: MoveInside}})
	assert.ErrorIs(t, err, ErrMenuCycle)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// before/after 一个后代同样会让节点成为自己后代的子节点
	_, err = ApplyMenuMoves(menus, []MenuMove{{ID: 1, TargetID: 3, Position: MoveBefore}})
	assert.ErrorIs(t, err, ErrMenuCycle)

	// 在同一批次中先造成间接的环
	_, err = ApplyMenuMoves(menus, []MenuMove{
		{ID: 3, TargetID: 1, Position: MoveAfter},
		{ID: 1, TargetID: 3, Position: MoveInside},
		{ID: 3, TargetID: 1, Position: MoveInside},
	})
	assert.ErrorIs(t, err, ErrMenuCycle)
}

func TestApplyMenuMovesFailsWholeBatchOnMissingNode(t *testing.T) {
	menus := []model.Menu{menu(1, nil, 1), menu(2, nil, 2)}

	placements, err := ApplyMenuMoves(menus, []MenuMove{
		{ID: 2, TargetID: 1, Position: MoveBefore},
		{ID: 1, TargetID: 42, Position: MoveAfter},
	})
	assert.ErrorIs(t, err, ErrMenuNotFound)
	assert.Nil(t, placements)
}

func TestApplyMenuMovesValidation(t *testing.T) {
	menus := []model.Menu{menu(1, nil, 1), menu(2, nil, 2)}

	_, err := ApplyMenuMoves(menus, nil)
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, err = ApplyMenuMoves(menus, []MenuMove{{ID: 1, TargetID: 1, Position: MoveAfter}})
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, err = ApplyMenuMoves(menus, []MenuMove{{ID: 1, TargetID: 2, Position: "below"}})
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestApplyMenuMovesNoopReturnsNothing(t *testing.T) {
	menus := []model.Menu{menu(1, nil, 1), menu(2, nil, 2)}

	placements, err := ApplyMenuMoves(menus, []MenuMove{{ID: 2, TargetID: 1, Position: MoveAfter}})
	require.NoError(t, err)
	assert.Empty(t, placements)
}
