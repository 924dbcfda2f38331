package vortex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestParticleVelInfl(t *testing.T) {
	p := NewParticle(r3.Vec{}, r3.Vec{Z: 1}, 0.1, 0)

	// No self influence, no influence at the particle's own position
	assert.Equal(t, r3.Vec{}, p.VelInflPart(p))
	assert.Equal(t, r3.Vec{}, p.VelInfl(p.Pos))

	// Far from the core the regularized kernel approaches the singular
	// Biot-Savart value |v| = |alpha x r| / (4 pi r^3)
	POI := r3.Vec{X: 5}
	v := p.VelInfl(POI)
	exact := 1.0 / (4 * math.Pi * 25)
	assert.InDelta(t, exact, r3.Norm(v), 1.e-6*exact)
	// alpha = z, r = x: the induced velocity points along -(x cross z) = +y
	assert.Greater(t, v.Y, 0.0)
	assert.InDelta(t, 0, v.X, 1.e-14)
	assert.InDelta(t, 0, v.Z, 1.e-14)

	// Inside the core the velocity stays finite and goes to zero with
	// distance
	near := p.VelInfl(r3.Vec{X: 1.e-8})
	assert.Less(t, r3.Norm(near), 1.e-3)
}

func TestParticleVelInflSymmetrized(t *testing.T) {
	// Particle-on-particle smoothing symmetrizes the two radii, so the
	// interaction of unequal cores differs from the bare-point evaluation
	a := NewParticle(r3.Vec{}, r3.Vec{Z: 1}, 0.1, 0)
	b := NewParticle(r3.Vec{X: 0.3}, r3.Vec{Z: 1}, 0.3, 0)
	onPart := a.VelInflPart(b)
	onPnt := a.VelInfl(b.Pos)
	assert.NotEqual(t, onPart, onPnt)
	// Same direction either way
	assert.Greater(t, onPart.Y*onPnt.Y, 0.0)
}

func TestVortexStretchingCutoff(t *testing.T) {
	a := NewParticle(r3.Vec{}, r3.Vec{Z: 1}, 0.1, 0)
	far := NewParticle(r3.Vec{X: 1}, r3.Vec{Z: 1}, 0.1, 0) // 10 radii away
	assert.Equal(t, r3.Vec{}, a.VortexStretching(far))

	nearby := NewParticle(r3.Vec{X: 0.3, Y: 0.1}, r3.Vec{X: 0.5, Z: 1}, 0.1, 0)
	ds := a.VortexStretching(nearby)
	assert.False(t, math.IsNaN(ds.X) || math.IsNaN(ds.Y) || math.IsNaN(ds.Z))
}

func TestViscousDiffusionExchange(t *testing.T) {
	// Equal-radius particle-strength exchange conserves total strength:
	// the contribution on a equals minus the contribution on b
	var (
		nu = 1.983e-5
		a  = NewParticle(r3.Vec{}, r3.Vec{Z: 2}, 0.1, 0)
		b  = NewParticle(r3.Vec{X: 0.15}, r3.Vec{Z: -1}, 0.1, 0)
		da = a.ViscousDiffusion(b, nu)
		db = b.ViscousDiffusion(a, nu)
	)
	assert.InDelta(t, -db.X, da.X, 1.e-18)
	assert.InDelta(t, -db.Y, da.Y, 1.e-18)
	assert.InDelta(t, -db.Z, da.Z, 1.e-18)
}

func TestFilamentVelInfl(t *testing.T) {
	// A long segment approximates the infinite line: |v| = Gamma/(2 pi d)
	f := NewFilament(r3.Vec{Y: -500}, r3.Vec{Y: 500}, 1, -1)
	v := f.VelInfl(r3.Vec{X: 0.5})
	exact := 1.0 / (2 * math.Pi * 0.5)
	assert.InDelta(t, exact, r3.Norm(v), 1.e-4*exact)

	// On the segment line there is no contribution
	assert.Equal(t, r3.Vec{}, f.VelInfl(r3.Vec{Y: 0.2}))
	assert.Equal(t, r3.Vec{}, f.VelInfl(f.P1))
}

func TestWinckelmansUpdateFinite(t *testing.T) {
	a := NewParticle(r3.Vec{}, r3.Vec{Z: 1}, 0.1, 0)
	b := NewParticle(r3.Vec{X: 0.2}, r3.Vec{Y: 1}, 0.1, 0)
	assert.Equal(t, r3.Vec{}, a.StrengthUpdateWinckelmans(a, 1.e-5))
	d := a.StrengthUpdateWinckelmans(b, 1.e-5)
	assert.False(t, math.IsNaN(d.X) || math.IsNaN(d.Y) || math.IsNaN(d.Z))
	assert.Greater(t, r3.Norm(d), 0.0)
}
