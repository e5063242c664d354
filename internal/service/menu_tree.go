package service

import (
	"cms-go/internal/model"
	"cms-go/pkg/log"
	"fmt"
	"sort"
)

// BuildMenuTree 把无序的扁平菜单记录组装成按 sort_order 排序的森林。
//
// 父节点不存在的孤儿节点会被丢弃（公开菜单过滤掉不可见的父节点时属于正常情况）；
// 重复 ID 或父子环则直接返回 ErrCorruptTree，不做部分渲染。
// 输入不会被修改，返回的节点都是副本。
func BuildMenuTree(menus []model.Menu) ([]*model.Menu, error) {
	nodes := make(map[uint]*model.Menu, len(menus))
	for i := range menus {
		if _, dup := nodes[menus[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicate menu id %d", ErrCorruptTree, menus[i].ID)
		}
		node := menus[i]
		node.Children = nil
		nodes[node.ID] = &node
	}
	if err := checkAcyclic(nodes); err != nil {
		return nil, err
	}

	var roots []*model.Menu
	for i := range menus {
		node := nodes[menus[i].ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*node.ParentID]
		if !ok {
			log.Warnw("dropping orphan menu from tree", "menuId", node.ID, "parentId", *node.ParentID)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortMenuLevel(roots)
	return roots, nil
}

// sortMenuLevel 递归地对每一层按 sort_order 排序，sort_order 相同时按 ID 排序。
func sortMenuLevel(level []*model.Menu) {
	sort.SliceStable(level, func(i, j int) bool {
		if level[i].SortOrder != level[j].SortOrder {
			return level[i].SortOrder < level[j].SortOrder
		}
		return level[i].ID < level[j].ID
	})
	for _, node := range level {
		if len(node.Children) == 0 {
			node.Children = nil
			continue
		}
		sortMenuLevel(node.Children)
	}
}

// checkAcyclic 沿 parent 链向上遍历，发现环时返回 ErrCorruptTree。
func checkAcyclic(nodes map[uint]*model.Menu) error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[uint]int, len(nodes))
	for id := range nodes {
		var trail []uint
		cur := id
		for {
			if state[cur] == done {
				break
			}
			if state[cur] == visiting {
				return fmt.Errorf("%w: cycle through menu id %d", ErrCorruptTree, cur)
			}
			state[cur] = visiting
			trail = append(trail, cur)
			parentID := nodes[cur].ParentID
			if parentID == nil {
				break
			}
			if _, ok := nodes[*parentID]; !ok {
				break
			}
			cur = *parentID
		}
		for _, t := range trail {
			state[t] = done
		}
	}
	return nil
}
