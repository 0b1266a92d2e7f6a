// Package grid implements the warehouse graph: vertex arena, neighbour
// computation, and the line-oriented map file format described in the
// controller's external interfaces. It is an external collaborator of the
// cache-aware assignment core (grid/graph construction is out of scope for
// that core per the specification), kept intentionally small.
package grid

import "fmt"

// Vertex is a single grid cell with a stable id, a planar index, a group
// tag and a cargo/cache marker. Vertices are owned by a single Graph arena
// and never copied; all other packages hold non-owning *Vertex pointers.
type Vertex struct {
	ID      int
	Index   int // width*y + x
	Width   int
	Group   int
	IsCargo bool // warehouse cargo cell or cache cell

	neighbors []*Vertex
}

// Neighbors returns the vertices reachable from v in one step. Cargo/cache
// cells are only reachable from non-cargo (aisle) neighbours; aisle cells
// connect to every non-wall neighbour. This set is computed once at graph
// load time and never mutated afterwards.
func (v *Vertex) Neighbors() []*Vertex { return v.neighbors }

// XY returns the planar coordinates of v within the whole map: y counts
// rows across every group's block stacked together, not within v's own
// group block.
func (v *Vertex) XY() (x, y int) {
	return v.Index % v.Width, v.Index / v.Width
}

func (v *Vertex) String() string {
	x, y := v.XY()
	return fmt.Sprintf("(%d, %d, g%d)", x, y, v.Group)
}

// Config is one vertex per agent: the goal or start configuration of a tick.
type Config []*Vertex

// SameAs reports whether two configurations agree on every agent's vertex.
func (c Config) SameAs(o Config) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i].ID != o[i].ID {
			return false
		}
	}
	return true
}

// ReachedAny reports whether at least one agent in c occupies the matching
// vertex in o (used to detect partial progress of a planner solution).
func (c Config) ReachedAny(o Config) bool {
	for i := range c {
		if c[i].ID == o[i].ID {
			return true
		}
	}
	return false
}
