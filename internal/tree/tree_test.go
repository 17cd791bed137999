// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import (
	"testing"

	"github.com/google/uuid"

	"quizbank/internal/models"
)

// cat builds a category with a deterministic id derived from n.
func cat(n byte, parent *models.Category) models.Category {
	id := uuid.UUID{15: n}
	c := models.Category{ID: id, Name: string('A' + n)}
	if parent != nil {
		pid := parent.ID
		c.ParentID = &pid
	}
	return c
}

func count(roots []*models.Category) map[uuid.UUID]int {
	seen := make(map[uuid.UUID]int)
	stack := append([]*models.Category(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		seen[n.ID]++
		stack = append(stack, n.Children...)
	}
	return seen
}

func TestBuildNestsAndKeepsOrder(t *testing.T) {
	a := cat(0, nil)
	b := cat(1, &a)
	c := cat(2, &b)
	d := cat(3, &a)
	e := cat(4, nil)

	roots := NewIndex([]models.Category{a, b, c, d, e}).Build()

	if len(roots) != 2 || roots[0].ID != a.ID || roots[1].ID != e.ID {
		t.Fatalf("roots = %v, want [A E]", names(roots))
	}
	if got := names(roots[0].Children); len(got) != 2 || got[0] != "B" || got[1] != "D" {
		t.Errorf("A children = %v, want [B D]", got)
	}
	leaf := roots[0].Children[0].Children[0]
	if leaf.ID != c.ID || leaf.Depth != 2 {
		t.Errorf("leaf = %s depth %d, want C depth 2", leaf.Name, leaf.Depth)
	}
}

func TestBuildChildBeforeParentInInput(t *testing.T) {
	a := cat(0, nil)
	b := cat(1, &a)

	roots := NewIndex([]models.Category{b, a}).Build()
	if len(roots) != 1 || len(roots[0].Children) != 1 {
		t.Fatalf("expected a single root with one child, got %v", names(roots))
	}
}

func TestBuildSurvivesStoredCycle(t *testing.T) {
	a := cat(0, nil)
	b := cat(1, &a)
	a.ParentID = &b.ID // corrupted: A <-> B
	c := cat(2, nil)
	self := cat(3, nil)
	self.ParentID = &self.ID

	roots := NewIndex([]models.Category{a, b, c, self}).Build()

	seen := count(roots)
	for _, x := range []models.Category{a, b, c, self} {
		if seen[x.ID] != 1 {
			t.Errorf("%s appears %d times, want 1", x.Name, seen[x.ID])
		}
	}
	if len(seen) != 4 {
		t.Errorf("tree holds %d nodes, want 4", len(seen))
	}
}

func TestBuildOrphanParentBecomesRoot(t *testing.T) {
	ghost := cat(9, nil)
	a := cat(0, &ghost)

	roots := NewIndex([]models.Category{a}).Build()
	if len(roots) != 1 || roots[0].ID != a.ID {
		t.Fatalf("roots = %v, want [A]", names(roots))
	}
}

func TestPath(t *testing.T) {
	a := cat(0, nil)
	b := cat(1, &a)
	c := cat(2, &b)
	idx := NewIndex([]models.Category{a, b, c})

	tests := []struct {
		name string
		id   uuid.UUID
		want []string
		ok   bool
	}{
		{name: "root", id: a.ID, want: []string{"A"}, ok: true},
		{name: "leaf", id: c.ID, want: []string{"A", "B", "C"}, ok: true},
		{name: "unknown", id: uuid.New(), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Path(tt.id)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("path = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i].Name != tt.want[i] {
					t.Errorf("path[%d] = %s, want %s", i, got[i].Name, tt.want[i])
				}
			}
		})
	}
}

func TestPathTerminatesOnCycle(t *testing.T) {
	a := cat(0, nil)
	b := cat(1, &a)
	a.ParentID = &b.ID

	got, ok := NewIndex([]models.Category{a, b}).Path(a.ID)
	if !ok || len(got) != 2 {
		t.Fatalf("path = %v ok=%v, want two entries", got, ok)
	}
}

func TestDescendants(t *testing.T) {
	a := cat(0, nil)
	b := cat(1, &a)
	c := cat(2, &b)
	d := cat(3, nil)
	idx := NewIndex([]models.Category{a, b, c, d})

	got := idx.Descendants(a.ID)
	if len(got) != 3 || got[0] != a.ID {
		t.Fatalf("Descendants(A) = %v, want A,B,C", got)
	}
	if got := idx.Descendants(d.ID); len(got) != 1 {
		t.Errorf("Descendants(D) = %v, want [D]", got)
	}
	if got := idx.Descendants(uuid.New()); got != nil {
		t.Errorf("Descendants(unknown) = %v, want nil", got)
	}
}

func TestDescendantsTerminatesOnCycle(t *testing.T) {
	a := cat(0, nil)
	b := cat(1, &a)
	a.ParentID = &b.ID

	if got := NewIndex([]models.Category{a, b}).Descendants(a.ID); len(got) != 2 {
		t.Errorf("Descendants = %v, want 2 ids", got)
	}
}

func TestWouldCycle(t *testing.T) {
	a := cat(0, nil)
	b := cat(1, &a)
	c := cat(2, &b)
	d := cat(3, nil)
	idx := NewIndex([]models.Category{a, b, c, d})

	tests := []struct {
		name      string
		id, newPa uuid.UUID
		want      bool
	}{
		{name: "self", id: a.ID, newPa: a.ID, want: true},
		{name: "under child", id: a.ID, newPa: b.ID, want: true},
		{name: "under grandchild", id: a.ID, newPa: c.ID, want: true},
		{name: "under unrelated root", id: a.ID, newPa: d.ID, want: false},
		{name: "leaf under root", id: c.ID, newPa: a.ID, want: false},
		{name: "under unknown", id: a.ID, newPa: uuid.New(), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.WouldCycle(tt.id, tt.newPa); got != tt.want {
				t.Errorf("WouldCycle = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlattenDepthFirst(t *testing.T) {
	a := cat(0, nil)
	b := cat(1, &a)
	c := cat(2, &b)
	d := cat(3, &a)
	idx := NewIndex([]models.Category{a, b, c, d})

	flat := Flatten(idx.Build())
	want := []string{"A", "B", "C", "D"}
	if len(flat) != len(want) {
		t.Fatalf("flat = %d entries, want %d", len(flat), len(want))
	}
	for i := range want {
		if flat[i].Name != want[i] {
			t.Errorf("flat[%d] = %s, want %s", i, flat[i].Name, want[i])
		}
	}
	if flat[2].Depth != 2 {
		t.Errorf("C depth = %d, want 2", flat[2].Depth)
	}
}

func names(nodes []*models.Category) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}
