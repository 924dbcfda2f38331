package vortex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// scatterParticles fills a unit box with a deterministic quasi-random cloud.
func scatterParticles(n int) []*Particle {
	parts := make([]*Particle, n)
	for i := 0; i < n; i++ {
		var (
			fi = float64(i)
			x  = math.Mod(fi*0.754877666, 1)
			y  = math.Mod(fi*0.569840296, 1)
			z  = math.Mod(fi*0.362436069, 1)
		)
		strength := r3.Vec{
			X: math.Sin(fi),
			Y: math.Cos(2 * fi),
			Z: math.Sin(3*fi + 1),
		}
		parts[i] = NewParticle(r3.Vec{X: x, Y: y, Z: z}, strength.Scale(0.01), 0.02, 0)
	}
	return parts
}

func directVelocity(parts []*Particle, POI r3.Vec) r3.Vec {
	var v r3.Vec
	for _, p := range parts {
		v = v.Add(p.VelInfl(POI))
	}
	return v
}

func TestOctreeBuild(t *testing.T) {
	parts := scatterParticles(200)
	tree := NewOctree()
	tree.AddData(parts)
	require.NotNil(t, tree.Root)

	// Every particle lands in exactly one leaf
	count := 0
	tree.Root.walk(func(*Particle) { count++ })
	assert.Equal(t, 200, count)

	// No leaf exceeds the member cap
	var checkLeaves func(c *Cell)
	checkLeaves = func(c *Cell) {
		if c.isLeaf() {
			assert.LessOrEqual(t, len(c.Members), tree.MaxMembers)
			return
		}
		assert.Empty(t, c.Members)
		for _, ch := range c.Children {
			if ch != nil {
				checkLeaves(ch)
			}
		}
	}
	checkLeaves(tree.Root)
}

func TestBarnesHutMatchesDirect(t *testing.T) {
	// With a small opening angle the tree evaluation reproduces the direct
	// O(N^2) sum
	parts := scatterParticles(300)
	tree := NewOctree()
	tree.AddData(parts)
	fmm := NewFMM()
	fmm.Theta = 0.1
	fmm.Build(tree)

	pois := []r3.Vec{
		{X: 2, Y: 2, Z: 2},
		{X: 0.5, Y: 0.5, Z: 0.5},
		{X: -1, Y: 0.3, Z: 0.7},
	}
	for _, poi := range pois {
		var (
			direct = directVelocity(parts, poi)
			approx = fmm.BarnesHut(poi)
			scale  = r3.Norm(direct)
		)
		require.Greater(t, scale, 0.0)
		// Monopole surrogates at theta = 0.1 leave a quadrupole-order
		// error well under a percent
		assert.InDelta(t, direct.X, approx.X, 5.e-3*scale)
		assert.InDelta(t, direct.Y, approx.Y, 5.e-3*scale)
		assert.InDelta(t, direct.Z, approx.Z, 5.e-3*scale)
	}
}

func TestBarnesHutThetaZeroIsExact(t *testing.T) {
	parts := scatterParticles(100)
	tree := NewOctree()
	tree.AddData(parts)
	fmm := NewFMM()
	fmm.Theta = 1.e-12
	fmm.Build(tree)

	poi := r3.Vec{X: 3, Y: -1, Z: 0.5}
	direct := directVelocity(parts, poi)
	approx := fmm.BarnesHut(poi)
	// Only summation order differs between the two evaluations
	assert.InDelta(t, direct.X, approx.X, 1.e-12)
	assert.InDelta(t, direct.Y, approx.Y, 1.e-12)
	assert.InDelta(t, direct.Z, approx.Z, 1.e-12)
}

func TestOctreeRebuildIdempotent(t *testing.T) {
	// Building and tearing down on the same particle set returns identical
	// evaluations
	parts := scatterParticles(150)
	poi := r3.Vec{X: 1.5, Y: 0.2, Z: 0.8}

	tree := NewOctree()
	tree.AddData(parts)
	fmm := NewFMM()
	fmm.Build(tree)
	v1 := fmm.BarnesHut(poi)

	tree.RemoveData()
	tree.AddData(parts)
	fmm.Build(tree)
	v2 := fmm.BarnesHut(poi)

	assert.Equal(t, v1, v2)
}

func TestOctreeEmptyAndSingle(t *testing.T) {
	tree := NewOctree()
	tree.AddData(nil)
	fmm := NewFMM()
	fmm.Build(tree)
	assert.Equal(t, r3.Vec{}, fmm.BarnesHut(r3.Vec{X: 1}))

	p := NewParticle(r3.Vec{}, r3.Vec{Z: 1}, 0.1, 0)
	tree.AddData([]*Particle{p})
	fmm.Build(tree)
	poi := r3.Vec{X: 2}
	assert.Equal(t, p.VelInfl(poi), fmm.BarnesHut(poi))
}
