// Package vortex holds the free-wake primitives: Gaussian-regularized
// vortex particles, straight vortex filaments, and the particle octree with
// its Barnes-Hut multipole evaluation.
package vortex

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// CoreOverlap multiplies the particle core radius to give the smoothing
// length; regularized vortex methods need it above one.
const CoreOverlap = 1.3

// stretchCutoff zeroes the stretching interaction beyond this many core
// radii of separation.
const stretchCutoff = 5.0

// Particle is a vector-valued vortex particle. Strength is circulation
// times segment vector. The previous induced velocity and strength update
// feed the two-step Adams-Bashforth integrators. VelOn is cleared before
// each tree rebuild; the Barnes-Hut queries return their velocities
// directly and do not write into it.
type Particle struct {
	Pos      r3.Vec
	Strength r3.Vec
	Radius   float64

	PrevVelInfl        r3.Vec
	PrevStrengthUpdate r3.Vec
	VelOn              r3.Vec

	ShedTime int

	// ParentPanel indexes the wake panel that seeded this particle; -1
	// when detached. Diagnostic only.
	ParentPanel int
}

func NewParticle(pos, strength r3.Vec, radius float64, shedTime int) *Particle {
	return &Particle{Pos: pos, Strength: strength, Radius: radius, ShedTime: shedTime, ParentPanel: -1}
}

// kernelK is the Gaussian-regularized Biot-Savart kernel.
func kernelK(rho float64) float64 {
	return (1/(4*math.Pi*rho)*math.Erf(rho/math.Sqrt2) -
		1/math.Pow(2*math.Pi, 1.5)*math.Exp(-0.5*rho*rho)) / (rho * rho)
}

// zeta is the Gaussian regularization function.
func zeta(rho float64) float64 {
	return 1 / math.Pow(2*math.Pi, 1.5) * math.Exp(-0.5*rho*rho)
}

// sigmaSym is the symmetrized smoothing length between two particles.
func sigmaSym(ri, rj float64) float64 {
	return math.Sqrt(CoreOverlap*CoreOverlap*(ri*ri+rj*rj)) / math.Sqrt2
}

// VelInflPart is the velocity this particle induces on another particle,
// with the smoothing length symmetrized between the two cores.
func (p *Particle) VelInflPart(other *Particle) r3.Vec {
	if p == other {
		return r3.Vec{}
	}
	var (
		sigma = sigmaSym(p.Radius, other.Radius)
		dist  = other.Pos.Sub(p.Pos)
		rho   = r3.Norm(dist) / sigma
	)
	if rho == 0 {
		return r3.Vec{}
	}
	K := kernelK(rho)
	return dist.Cross(p.Strength).Scale(-K / (sigma * sigma * sigma))
}

// VelInfl is the velocity induced at a bare point, where the smoothing
// length is the particle's own.
func (p *Particle) VelInfl(POI r3.Vec) r3.Vec {
	dist := POI.Sub(p.Pos)
	dNorm := r3.Norm(dist)
	if dNorm == 0 {
		return r3.Vec{}
	}
	var (
		sigma = CoreOverlap * p.Radius
		rho   = dNorm / sigma
	)
	K := kernelK(rho)
	return dist.Cross(p.Strength).Scale(-K / (sigma * sigma * sigma))
}

// VortexStretching is the He-Zhao stretching contribution of other on p,
// d(alpha_p)/dt. Interactions beyond the hard cutoff are dropped.
func (p *Particle) VortexStretching(other *Particle) r3.Vec {
	var (
		Xi   = p.Pos
		Xj   = other.Pos
		dist = Xi.Sub(Xj)
	)
	if r3.Norm(dist) > stretchCutoff*p.Radius {
		return r3.Vec{}
	}
	var (
		sigij = sigmaSym(p.Radius, other.Radius)
		rho   = r3.Norm(dist) / sigij
	)
	if rho == 0 {
		return r3.Vec{}
	}
	var (
		xi = zeta(rho)
		G  = 1 / (4 * math.Pi * rho) * math.Erf(rho/math.Sqrt2)
		K  = (G - xi) / (rho * rho)
		F  = (3*K - xi) / (rho * rho)
	)
	// Influence matrix from He and Zhao, assembled row by row
	var infl [3][3]float64
	d := [3]float64{dist.X, dist.Y, dist.Z}
	for k := 0; k < 3; k++ {
		for l := 0; l < 3; l++ {
			infl[k][l] = -1 / (sigij * sigij) * F * d[k] * d[l]
			if k == l {
				infl[k][l] += K
			}
		}
	}
	var (
		a        = other.Strength
		alphaRow = [3][3]float64{{0, -a.Z, a.Y}, {a.Z, 0, -a.X}, {-a.Y, a.X, 0}}
		grad     [3][3]float64
	)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				grad[i][j] += alphaRow[i][k] * infl[k][j]
			}
			grad[i][j] /= sigij * sigij * sigij
		}
	}
	s := [3]float64{p.Strength.X, p.Strength.Y, p.Strength.Z}
	var out [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i] += grad[i][j] * s[j]
		}
	}
	return r3.Vec{X: out[0], Y: out[1], Z: out[2]}
}

// ViscousDiffusion is the Ploumhans particle-strength-exchange diffusion
// contribution of other on p for kinematic viscosity nu.
func (p *Particle) ViscousDiffusion(other *Particle, nu float64) r3.Vec {
	var (
		dist  = p.Pos.Sub(other.Pos)
		sigij = sigmaSym(p.Radius, other.Radius)
		rho   = r3.Norm(dist) / sigij
	)
	if rho == 0 {
		return r3.Vec{}
	}
	var (
		Vi = 4 * math.Pi / 3 * math.Pow(p.Radius, 3)
		Vj = 4 * math.Pi / 3 * math.Pow(other.Radius, 3)
		xi = zeta(rho) / (rho * rho * rho)
	)
	return other.Strength.Scale(Vi).Sub(p.Strength.Scale(Vj)).Scale(2 * nu / (sigij * sigij) * xi)
}

// StrengthUpdateWinckelmans fuses stretching and diffusion in the
// Winckelmans transpose scheme for a high-order algebraic core.
func (p *Particle) StrengthUpdateWinckelmans(other *Particle, nu float64) r3.Vec {
	if p == other {
		return r3.Vec{}
	}
	var (
		sigma  = CoreOverlap * p.Radius
		volP   = 4 * math.Pi / 3 * math.Pow(p.Radius, 3)
		volQ   = 4 * math.Pi / 3 * math.Pow(other.Radius, 3)
		dist   = other.Pos.Sub(p.Pos)
		dn2    = r3.Norm2(dist)
		sig2   = sigma * sigma
		alphaP = p.Strength
		alphaQ = other.Strength
	)
	first := alphaP.Cross(alphaQ).Scale((dn2 + 2.5*sig2) / math.Pow(dn2+sig2, 2.5))
	second := dist.Scale(3 * (dn2 + 3.5*sig2) / math.Pow(dn2+sig2, 3.5) * alphaP.Dot(dist.Cross(alphaQ)))
	third := alphaQ.Scale(volP).Sub(alphaP.Scale(volQ)).Scale(105 * nu * math.Pow(sigma, 4) / math.Pow(dn2+sig2, 4.5))
	return first.Add(second).Add(third).Scale(-1 / (4 * math.Pi))
}
