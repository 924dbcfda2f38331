package vortex

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultTheta is the Barnes-Hut opening angle: a cell whose extent over
// distance falls below it is evaluated through its multipole surrogate.
const DefaultTheta = 0.5

// FMM evaluates particle-induced velocities through the octree's multipole
// surrogates. Build must run after every tree rebuild; BarnesHut is then
// safe to call concurrently.
type FMM struct {
	Theta float64
	tree  *Octree
}

func NewFMM() *FMM { return &FMM{Theta: DefaultTheta} }

// Build computes every internal cell's surrogate bottom-up: the
// strength-weighted centroid, the vector strength sum, and the RMS radius of
// all descendants.
func (f *FMM) Build(tree *Octree) {
	if f.Theta <= 0 {
		f.Theta = DefaultTheta
	}
	f.tree = tree
	if tree.Root != nil {
		computeMultExp(tree.Root)
	}
}

func computeMultExp(c *Cell) {
	var (
		strength r3.Vec
		posW     r3.Vec
		posPlain r3.Vec
		wSum     float64
		r2Sum    float64
		count    int
	)
	for _, ch := range c.Children {
		if ch != nil {
			computeMultExp(ch)
		}
	}
	c.walk(func(p *Particle) {
		w := r3.Norm(p.Strength)
		strength = strength.Add(p.Strength)
		posW = posW.Add(p.Pos.Scale(w))
		posPlain = posPlain.Add(p.Pos)
		wSum += w
		r2Sum += p.Radius * p.Radius
		count++
	})
	if count == 0 {
		c.hasMulti = false
		return
	}
	pos := posPlain.Scale(1 / float64(count))
	if wSum > 0 {
		pos = posW.Scale(1 / wSum)
	}
	c.multipole = Particle{
		Pos:      pos,
		Strength: strength,
		Radius:   math.Sqrt(r2Sum / float64(count)),
	}
	c.hasMulti = true
}

// BarnesHut returns the velocity induced at POI by the whole particle set,
// opening cells only where the approximation would be too coarse.
func (f *FMM) BarnesHut(POI r3.Vec) r3.Vec {
	if f.tree == nil || f.tree.Root == nil {
		return r3.Vec{}
	}
	return f.eval(f.tree.Root, POI)
}

func (f *FMM) eval(c *Cell, POI r3.Vec) (vel r3.Vec) {
	if c.isLeaf() {
		for _, p := range c.Members {
			vel = vel.Add(p.VelInfl(POI))
		}
		return
	}
	if c.hasMulti {
		dist := r3.Norm(POI.Sub(c.multipole.Pos))
		if dist > 0 && c.Extent()/dist < f.Theta {
			return c.multipole.VelInfl(POI)
		}
	}
	for _, ch := range c.Children {
		if ch != nil {
			vel = vel.Add(f.eval(ch, POI))
		}
	}
	return
}
