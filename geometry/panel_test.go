package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// unitTriPanel builds a lone triangular panel in the z = 0 plane.
func unitTriPanel(t *testing.T) *Panel {
	t.Helper()
	var (
		n0 = NewNode(r3.Vec{})
		n1 = NewNode(r3.Vec{X: 1})
		n2 = NewNode(r3.Vec{Y: 1})
		p  = &Panel{Nodes: []*Node{n0, n1, n2}}
	)
	require.NoError(t, p.setGeom())
	return p
}

func TestPanelGeom(t *testing.T) {
	p := unitTriPanel(t)
	assert.InDelta(t, 0.5, p.Area, 1.e-14)
	assert.InDelta(t, 1.0, p.Normal.Z, 1.e-14)
	assert.InDelta(t, math.Sqrt2, p.LongSide, 1.e-14)
	assert.InDelta(t, 1.0/3, p.Center.X, 1.e-14)
	assert.InDelta(t, 1.0/3, p.Center.Y, 1.e-14)

	// Degenerate geometry is rejected
	var (
		n0  = NewNode(r3.Vec{})
		n1  = NewNode(r3.Vec{X: 1})
		bad = &Panel{Nodes: []*Node{n0, n1, NewNode(r3.Vec{X: 2})}}
	)
	assert.Error(t, bad.setGeom())
}

func TestDoubletSelfInfluence(t *testing.T) {
	p := unitTriPanel(t)
	_, phiDub := p.PhiInf(p.Center)
	assert.InDelta(t, 2*math.Pi, phiDub, 1.e-12)
}

func TestDoubletPotentialJump(t *testing.T) {
	// Approaching the panel from either side, the doublet potential tends
	// to -/+ 2 pi
	p := unitTriPanel(t)
	var (
		above = p.Center.Add(r3.Vec{Z: 1.e-6})
		below = p.Center.Add(r3.Vec{Z: -1.e-6})
	)
	_, phiAbove := p.PhiInf(above)
	_, phiBelow := p.PhiInf(below)
	assert.InDelta(t, -2*math.Pi, phiAbove, 1.e-4)
	assert.InDelta(t, 2*math.Pi, phiBelow, 1.e-4)
}

func TestFarFieldMatchesNearField(t *testing.T) {
	// Just inside and outside the near/far switch radius the two
	// evaluations agree
	p := unitTriPanel(t)
	var (
		r    = farFieldFactor * p.LongSide
		dir  = r3.Unit(r3.Vec{X: 0.3, Y: 0.5, Z: 0.8})
		pin  = p.Center.Add(dir.Scale(r * 0.999))
		pout = p.Center.Add(dir.Scale(r * 1.001))
	)
	phiSrcIn, phiDubIn := p.PhiInf(pin)
	phiSrcOut, phiDubOut := p.PhiInf(pout)
	assert.InDelta(t, phiSrcIn, phiSrcOut, 3.e-2*math.Abs(phiSrcIn))
	assert.InDelta(t, phiDubIn, phiDubOut, 3.e-2*math.Abs(phiDubIn))

	vSrcIn, vDubIn := p.VInf(pin)
	vSrcOut, vDubOut := p.VInf(pout)
	assert.InDelta(t, 0, r3.Norm(vSrcIn.Sub(vSrcOut)), 3.e-2*r3.Norm(vSrcIn))
	assert.InDelta(t, 0, r3.Norm(vDubIn.Sub(vDubOut)), 3.e-2*r3.Norm(vDubIn))
}

func TestSourceVelocityDirection(t *testing.T) {
	// A positive source pushes flow away from the panel on both sides
	p := unitTriPanel(t)
	vAbove, _ := p.VInf(p.Center.Add(r3.Vec{Z: 0.1}))
	vBelow, _ := p.VInf(p.Center.Add(r3.Vec{Z: -0.1}))
	assert.Greater(t, vAbove.Z, 0.0)
	assert.Less(t, vBelow.Z, 0.0)

	// Near the surface the normal component approaches the half-jump
	// 2 pi (sigma/2 after the 1/(4 pi) normalization)
	vNear, _ := p.VInf(p.Center.Add(r3.Vec{Z: 1.e-5}))
	assert.InDelta(t, 2*math.Pi, vNear.Z, 1.e-2)
}

func TestDoubletVelocityIsRingVelocity(t *testing.T) {
	// The doublet panel velocity equals the Biot-Savart velocity of its
	// edge vortex ring; spot-check against a manual ring sum
	p := unitTriPanel(t)
	poi := r3.Vec{X: 0.7, Y: 0.4, Z: 0.5}
	_, vDub := p.VInf(poi)

	var ring r3.Vec
	for k := 0; k < 3; k++ {
		var (
			a   = p.Nodes[k].Pnt
			b   = p.Nodes[(k+1)%3].Pnt
			r1  = poi.Sub(a)
			r2  = poi.Sub(b)
			r1n = r3.Norm(r1)
			r2n = r3.Norm(r2)
			den = r1n * r2n * (r1n*r2n + r1.Dot(r2))
		)
		ring = ring.Add(r1.Cross(r2).Scale((r1n + r2n) / den))
	}
	assert.InDelta(t, 0, r3.Norm(vDub.Sub(ring)), 1.e-12)
}

func TestPotentialVelocityConsistency(t *testing.T) {
	// The velocity influence is the gradient of the potential influence:
	// central differences of PhiInf match VInf for both singularities
	p := unitTriPanel(t)
	var (
		poi = r3.Vec{X: 0.2, Y: 0.3, Z: 0.4}
		h   = 1.e-6
	)
	vSrc, vDub := p.VInf(poi)
	grad := func(which int, dir r3.Vec) float64 {
		sP, dP := p.PhiInf(poi.Add(dir.Scale(h)))
		sM, dM := p.PhiInf(poi.Sub(dir.Scale(h)))
		if which == 0 {
			return (sP - sM) / (2 * h)
		}
		return (dP - dM) / (2 * h)
	}
	assert.InDelta(t, grad(0, r3.Vec{X: 1}), vSrc.X, 1.e-4)
	assert.InDelta(t, grad(0, r3.Vec{Y: 1}), vSrc.Y, 1.e-4)
	assert.InDelta(t, grad(0, r3.Vec{Z: 1}), vSrc.Z, 1.e-4)
	assert.InDelta(t, grad(1, r3.Vec{X: 1}), vDub.X, 1.e-4)
	assert.InDelta(t, grad(1, r3.Vec{Y: 1}), vDub.Y, 1.e-4)
	assert.InDelta(t, grad(1, r3.Vec{Z: 1}), vDub.Z, 1.e-4)
}
