package vortex

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultMaxMembers is the leaf capacity of the particle octree.
const DefaultMaxMembers = 10

// Octree partitions particles into axis-aligned cubic cells. The tree is
// rebuilt from scratch every step after convection; queries are read-only
// after the build.
type Octree struct {
	MaxMembers int
	Root       *Cell
}

// Cell is one cubic octant. Leaves carry their member particles; internal
// cells carry eight children (some possibly nil) and, once the multipole
// pass has run, a surrogate particle standing in for every descendant.
type Cell struct {
	Center   r3.Vec
	HalfSize float64

	Members  []*Particle
	Children [8]*Cell

	multipole Particle
	hasMulti  bool
}

func NewOctree() *Octree { return &Octree{MaxMembers: DefaultMaxMembers} }

func (t *Octree) SetMaxMembers(n int) { t.MaxMembers = n }

// RemoveData clears the tree.
func (t *Octree) RemoveData() { t.Root = nil }

// AddData builds the tree over the particle set: a cube snug around all
// positions, subdivided until no leaf exceeds MaxMembers.
func (t *Octree) AddData(parts []*Particle) {
	if t.MaxMembers <= 0 {
		t.MaxMembers = DefaultMaxMembers
	}
	t.Root = nil
	if len(parts) == 0 {
		return
	}
	var (
		lo = parts[0].Pos
		hi = parts[0].Pos
	)
	for _, p := range parts[1:] {
		lo.X = math.Min(lo.X, p.Pos.X)
		lo.Y = math.Min(lo.Y, p.Pos.Y)
		lo.Z = math.Min(lo.Z, p.Pos.Z)
		hi.X = math.Max(hi.X, p.Pos.X)
		hi.Y = math.Max(hi.Y, p.Pos.Y)
		hi.Z = math.Max(hi.Z, p.Pos.Z)
	}
	half := 0.5 * math.Max(hi.X-lo.X, math.Max(hi.Y-lo.Y, hi.Z-lo.Z))
	if half == 0 {
		half = 1.e-6
	}
	// A hair of margin keeps boundary particles strictly inside
	half *= 1.000001
	t.Root = &Cell{
		Center:   lo.Add(hi).Scale(0.5),
		HalfSize: half,
	}
	for _, p := range parts {
		t.Root.insert(p, t.MaxMembers)
	}
}

func (c *Cell) isLeaf() bool {
	for _, ch := range c.Children {
		if ch != nil {
			return false
		}
	}
	return true
}

func (c *Cell) insert(p *Particle, maxMembers int) {
	if c.isLeaf() {
		c.Members = append(c.Members, p)
		if len(c.Members) <= maxMembers || c.HalfSize < 1.e-12 {
			return
		}
		// Split: push every member down one level
		members := c.Members
		c.Members = nil
		for _, m := range members {
			c.passDown(m, maxMembers)
		}
		return
	}
	c.passDown(p, maxMembers)
}

func (c *Cell) passDown(p *Particle, maxMembers int) {
	oct := c.octantOf(p.Pos)
	if c.Children[oct] == nil {
		var (
			h      = 0.5 * c.HalfSize
			offset = r3.Vec{
				X: h * sign(oct&1 != 0),
				Y: h * sign(oct&2 != 0),
				Z: h * sign(oct&4 != 0),
			}
		)
		c.Children[oct] = &Cell{Center: c.Center.Add(offset), HalfSize: h}
	}
	c.Children[oct].insert(p, maxMembers)
}

func (c *Cell) octantOf(pos r3.Vec) int {
	oct := 0
	if pos.X >= c.Center.X {
		oct |= 1
	}
	if pos.Y >= c.Center.Y {
		oct |= 2
	}
	if pos.Z >= c.Center.Z {
		oct |= 4
	}
	return oct
}

func sign(b bool) float64 {
	if b {
		return 1
	}
	return -1
}

// Extent is the edge length of the cell cube.
func (c *Cell) Extent() float64 { return 2 * c.HalfSize }

// walk applies f to every particle under the cell.
func (c *Cell) walk(f func(*Particle)) {
	for _, m := range c.Members {
		f(m)
	}
	for _, ch := range c.Children {
		if ch != nil {
			ch.walk(f)
		}
	}
}
