// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tree holds the pure algorithms over the category forest: building
// the nested view, breadcrumb paths, descendant sets and cycle checks. All
// walks are iterative and carry a visited set, so corrupted parent links
// (a cycle that slipped past the write path) can never loop forever.
package tree

import (
	"github.com/google/uuid"

	"quizbank/internal/models"
)

// Index is a read-only adjacency view over a flat category list. The order
// of the input list is kept as sibling order.
type Index struct {
	order    []uuid.UUID
	byID     map[uuid.UUID]models.Category
	children map[uuid.UUID][]uuid.UUID
}

// NewIndex indexes flat in one pass.
func NewIndex(flat []models.Category) *Index {
	idx := &Index{
		order:    make([]uuid.UUID, 0, len(flat)),
		byID:     make(map[uuid.UUID]models.Category, len(flat)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, c := range flat {
		if _, dup := idx.byID[c.ID]; dup {
			continue
		}
		c.Children = nil
		c.Depth = 0
		idx.order = append(idx.order, c.ID)
		idx.byID[c.ID] = c
	}
	for _, id := range idx.order {
		c := idx.byID[id]
		if c.ParentID != nil && *c.ParentID != id {
			idx.children[*c.ParentID] = append(idx.children[*c.ParentID], id)
		}
	}
	return idx
}

// Len returns the number of indexed categories.
func (idx *Index) Len() int { return len(idx.order) }

// Get returns the category with id.
func (idx *Index) Get(id uuid.UUID) (models.Category, bool) {
	c, ok := idx.byID[id]
	return c, ok
}

// isRoot reports whether c has no resolvable parent.
func (idx *Index) isRoot(c models.Category) bool {
	if c.ParentID == nil || *c.ParentID == c.ID {
		return true
	}
	_, ok := idx.byID[*c.ParentID]
	return !ok
}

// Build returns the nested forest. Every category appears exactly once.
// Nodes whose parent chain never reaches a root (a stored cycle) are
// promoted to roots, cutting the link to their parent.
func (idx *Index) Build() []*models.Category {
	nodes := make(map[uuid.UUID]*models.Category, len(idx.order))
	for _, id := range idx.order {
		c := idx.byID[id]
		nodes[id] = &c
	}

	placed := make(map[uuid.UUID]bool, len(idx.order))
	rootSet := make(map[uuid.UUID]bool)

	// attach walks breadth-first from root, linking children that have not
	// been placed yet.
	attach := func(root uuid.UUID) {
		placed[root] = true
		nodes[root].Depth = 0
		queue := []uuid.UUID{root}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			parent := nodes[id]
			for _, childID := range idx.children[id] {
				if placed[childID] {
					continue
				}
				placed[childID] = true
				child := nodes[childID]
				child.Depth = parent.Depth + 1
				parent.Children = append(parent.Children, child)
				queue = append(queue, childID)
			}
		}
	}

	for _, id := range idx.order {
		if idx.isRoot(idx.byID[id]) {
			rootSet[id] = true
			attach(id)
		}
	}
	for _, id := range idx.order {
		if !placed[id] {
			rootSet[id] = true
			attach(id)
		}
	}

	roots := make([]*models.Category, 0, len(rootSet))
	for _, id := range idx.order {
		if rootSet[id] {
			roots = append(roots, nodes[id])
		}
	}
	return roots
}

// Path returns the chain from the root down to id, inclusive. The second
// result is false when id is unknown.
func (idx *Index) Path(id uuid.UUID) ([]models.Category, bool) {
	c, ok := idx.byID[id]
	if !ok {
		return nil, false
	}

	visited := map[uuid.UUID]bool{id: true}
	chain := []models.Category{c}
	for c.ParentID != nil {
		parent, ok := idx.byID[*c.ParentID]
		if !ok || visited[parent.ID] {
			break
		}
		visited[parent.ID] = true
		chain = append(chain, parent)
		c = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, true
}

// Descendants returns id followed by every category reachable through
// child links, in breadth-first order. Unknown ids yield nil.
func (idx *Index) Descendants(id uuid.UUID) []uuid.UUID {
	if _, ok := idx.byID[id]; !ok {
		return nil
	}
	visited := map[uuid.UUID]bool{id: true}
	out := []uuid.UUID{id}
	for i := 0; i < len(out); i++ {
		for _, childID := range idx.children[out[i]] {
			if visited[childID] {
				continue
			}
			visited[childID] = true
			out = append(out, childID)
		}
	}
	return out
}

// WouldCycle reports whether setting id's parent to newParent would make id
// its own ancestor. It walks upward from newParent, so the cost is bounded
// by the depth of newParent rather than the size of id's subtree.
func (idx *Index) WouldCycle(id, newParent uuid.UUID) bool {
	if id == newParent {
		return true
	}
	visited := make(map[uuid.UUID]bool)
	cur := newParent
	for {
		if cur == id {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		c, ok := idx.byID[cur]
		if !ok || c.ParentID == nil {
			return false
		}
		cur = *c.ParentID
	}
}

// Flatten returns the forest as a depth-first list, keeping Depth, for
// indented pickers.
func Flatten(roots []*models.Category) []models.Category {
	var out []models.Category
	stack := make([]*models.Category, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := *n
		c.Children = nil
		out = append(out, c)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}
