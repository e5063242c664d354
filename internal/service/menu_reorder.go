package service

import (
	"cms-go/internal/model"
	"fmt"
	"sort"
)

// MovePosition 表示移动后节点相对目标节点的位置。
type MovePosition string

const (
	MoveBefore MovePosition = "before"
	MoveAfter  MovePosition = "after"
	MoveInside MovePosition = "inside"
)

// MenuMove 是重排批次中的一次移动操作。
type MenuMove struct {
	ID       uint         `json:"id" binding:"required"`
	TargetID uint         `json:"targetId" binding:"required"`
	Position MovePosition `json:"position" binding:"required"`
}

// MenuPlacement 是某个节点在重排后的新位置。
type MenuPlacement struct {
	ID        uint
	ParentID  *uint
	SortOrder int
}

// rootKey 代表根层级；数据库自增 ID 从 1 开始，不会与之冲突。
const rootKey uint = 0

// menuArena 以 ID 索引全部节点，父子关系只保存在两个 map 里。
type menuArena struct {
	parent   map[uint]uint
	children map[uint][]uint
	original map[uint]MenuPlacement
}

func newMenuArena(menus []model.Menu) (*menuArena, error) {
	a := &menuArena{
		parent:   make(map[uint]uint, len(menus)),
		children: make(map[uint][]uint),
		original: make(map[uint]MenuPlacement, len(menus)),
	}

	sorted := make([]model.Menu, len(menus))
	copy(sorted, menus)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SortOrder != sorted[j].SortOrder {
			return sorted[i].SortOrder < sorted[j].SortOrder
		}
		return sorted[i].ID < sorted[j].ID
	})

	for _, m := range sorted {
		if _, dup := a.parent[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate menu id %d", ErrCorruptTree, m.ID)
		}
		key := rootKey
		if m.ParentID != nil {
			key = *m.ParentID
		}
		a.parent[m.ID] = key
		a.children[key] = append(a.children[key], m.ID)
		a.original[m.ID] = MenuPlacement{ID: m.ID, ParentID: m.ParentID, SortOrder: m.SortOrder}
	}
	return a, nil
}

// path 返回从根到 id 的祖先链（包含 id 本身）。
func (a *menuArena) path(id uint) ([]uint, error) {
	var chain []uint
	cur := id
	for steps := 0; cur != rootKey; steps++ {
		if steps > len(a.parent) {
			return nil, fmt.Errorf("%w: cycle through menu id %d", ErrCorruptTree, id)
		}
		chain = append(chain, cur)
		next, ok := a.parent[cur]
		if !ok {
			// 父节点不在当前集合中，视作子树的顶端
			break
		}
		cur = next
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// within 判断 node 是否就是 ancestor 或位于 ancestor 的子树中。
func (a *menuArena) within(node, ancestor uint) (bool, error) {
	chain, err := a.path(node)
	if err != nil {
		return false, err
	}
	for _, id := range chain {
		if id == ancestor {
			return true, nil
		}
	}
	return false, nil
}

func (a *menuArena) detach(id uint) {
	key := a.parent[id]
	siblings := a.children[key]
	for i, sid := range siblings {
		if sid == id {
			a.children[key] = append(siblings[:i:i], siblings[i+1:]...)
			return
		}
	}
}

func (a *menuArena) apply(move MenuMove) error {
	if _, ok := a.parent[move.ID]; !ok {
		return fmt.Errorf("%w: id=%d", ErrMenuNotFound, move.ID)
	}
	if _, ok := a.parent[move.TargetID]; !ok {
		return fmt.Errorf("%w: id=%d", ErrMenuNotFound, move.TargetID)
	}
	if move.ID == move.TargetID {
		return fmt.Errorf("%w: menu %d cannot be moved relative to itself", ErrInvalidMove, move.ID)
	}

	var newParent uint
	switch move.Position {
	case MoveInside:
		newParent = move.TargetID
	case MoveBefore, MoveAfter:
		// 目标节点在本批次中可能已被移动过，这里取它当前的父节点
		newParent = a.parent[move.TargetID]
	default:
		return fmt.Errorf("%w: unknown position %q", ErrInvalidMove, move.Position)
	}

	if newParent != rootKey {
		cyclic, err := a.within(newParent, move.ID)
		if err != nil {
			return err
		}
		if cyclic {
			return fmt.Errorf("%w: menu %d under %d", ErrMenuCycle, move.ID, newParent)
		}
	}

	a.detach(move.ID)
	a.parent[move.ID] = newParent

	if move.Position == MoveInside {
		a.children[newParent] = append(a.children[newParent], move.ID)
		return nil
	}

	siblings := a.children[newParent]
	idx := len(siblings)
	for i, sid := range siblings {
		if sid == move.TargetID {
			idx = i
			break
		}
	}
	if move.Position == MoveAfter && idx < len(siblings) {
		idx++
	}
	updated := make([]uint, 0, len(siblings)+1)
	updated = append(updated, siblings[:idx]...)
	updated = append(updated, move.ID)
	updated = append(updated, siblings[idx:]...)
	a.children[newParent] = updated
	return nil
}

// placements 将每个兄弟组重新编号为 1..n，并返回位置发生变化的节点。
func (a *menuArena) placements() []MenuPlacement {
	var changed []MenuPlacement
	for key, group := range a.children {
		var parentID *uint
		if key != rootKey {
			pid := key
			parentID = &pid
		}
		for i, id := range group {
			next := MenuPlacement{ID: id, ParentID: parentID, SortOrder: i + 1}
			if !samePlacement(a.original[id], next) {
				changed = append(changed, next)
			}
		}
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].ID < changed[j].ID })
	return changed
}

func samePlacement(a, b MenuPlacement) bool {
	if a.SortOrder != b.SortOrder {
		return false
	}
	if a.ParentID == nil || b.ParentID == nil {
		return a.ParentID == nil && b.ParentID == nil
	}
	return *a.ParentID == *b.ParentID
}

// ApplyMenuMoves 在内存中按顺序执行一批移动操作，每一步都能看到前面步骤的结果。
// 任意一步失败时整个批次失败，不返回任何位置变更；成功时返回需要持久化的
// (parent_id, sort_order) 变更，每个兄弟组的 sort_order 都被压缩为 1..n。
func ApplyMenuMoves(menus []model.Menu, moves []MenuMove) ([]MenuPlacement, error) {
	if len(moves) == 0 {
		return nil, fmt.Errorf("%w: empty reorder batch", ErrInvalidMove)
	}
	arena, err := newMenuArena(menus)
	if err != nil {
		return nil, err
	}
	for i, move := range moves {
		if err := arena.apply(move); err != nil {
			return nil, fmt.Errorf("move #%d: %w", i+1, err)
		}
	}
	return arena.placements(), nil
}
