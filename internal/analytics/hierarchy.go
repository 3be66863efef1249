// Package analytics is the reporting engine: pure functions that turn rows
// read from the store into ordered, aggregated results. Nothing here touches
// the database or caches results between calls.
package analytics

import (
	"sort"

	"tally/internal/core"
)

// CategoryNode is a category annotated with its depth in the forest.
type CategoryNode struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	ParentID *int64            `json:"parent_id,omitempty"`
	Type     core.CategoryType `json:"type"`
	Depth    int               `json:"depth"`
}

// ResolveHierarchy flattens the category forest breadth-first. The result is
// ordered by (depth, parent id, name), so every node follows its parent.
// Categories not reachable from a root (dangling parents, cycles) are left out.
func ResolveHierarchy(categories []core.Category) []CategoryNode {
	children := make(map[int64][]core.Category)
	var level []core.Category
	for _, c := range categories {
		if c.ParentID == nil {
			level = append(level, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	visited := make(map[int64]bool, len(categories))
	nodes := make([]CategoryNode, 0, len(categories))
	for depth := 0; len(level) > 0; depth++ {
		sortLevel(level)
		var next []core.Category
		for _, c := range level {
			if visited[c.ID] {
				continue
			}
			visited[c.ID] = true
			nodes = append(nodes, CategoryNode{
				ID:       c.ID,
				Name:     c.Name,
				ParentID: c.ParentID,
				Type:     c.Type,
				Depth:    depth,
			})
			next = append(next, children[c.ID]...)
		}
		level = next
	}
	return nodes
}

func sortLevel(level []core.Category) {
	sort.SliceStable(level, func(i, j int) bool {
		pi, pj := parentKey(level[i]), parentKey(level[j])
		if pi != pj {
			return pi < pj
		}
		return level[i].Name < level[j].Name
	})
}

func parentKey(c core.Category) int64 {
	if c.ParentID == nil {
		return 0
	}
	return *c.ParentID
}

// CreatesCycle reports whether moving category id under newParent would make
// id its own ancestor.
func CreatesCycle(categories []core.Category, id, newParent int64) bool {
	parents := make(map[int64]*int64, len(categories))
	for _, c := range categories {
		parents[c.ID] = c.ParentID
	}
	cur := newParent
	for steps := 0; steps <= len(categories); steps++ {
		if cur == id {
			return true
		}
		p, ok := parents[cur]
		if !ok || p == nil {
			return false
		}
		cur = *p
	}
	// Existing data already loops; refuse to extend it.
	return true
}
