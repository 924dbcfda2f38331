// Package solver drives one aerodynamic case: source assembly, the dense
// doublet solve, force integration, wake shedding and particle convection,
// looped over time.
package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/jakeddavis/CPanel/InputParameters"
	"github.com/jakeddavis/CPanel/geometry"
	"github.com/jakeddavis/CPanel/utils"
	"github.com/jakeddavis/CPanel/vortex"
)

// solveTol is the residual above which the doublet solve is reported
// non-converged.
const solveTol = 1.e-10

// Case runs one freestream condition against a geometry. The geometry owns
// the panel graph; the case owns the particles and filaments it sheds.
type Case struct {
	Geom   *geometry.Geometry
	Params *InputParameters.CaseParameters

	Vmag, Alpha, Beta, Mach float64
	PG                      float64
	Vinf                    r3.Vec

	// Wind-to-body rotation, stored by rows
	transform [3]r3.Vec

	TimeStep     int
	NumSteps     int
	Dt           float64
	StartingWake bool
	Accelerate   bool
	RungeKutta   bool

	Particles []*vortex.Particle
	Filaments []*vortex.Filament

	sigmas *mat.VecDense
	solver utils.LinearSolver

	partOctree *vortex.Octree
	fmm        *vortex.FMM

	CLTrefftz, CDTrefftz float64
	Fbody, Fwind         r3.Vec
	CM                   r3.Vec
	CLseries             []float64

	DFdAlpha, DFdBeta r3.Vec
	DMdAlpha, DMdBeta r3.Vec

	streamlines []*BodyStreamline
	converged   bool
}

func NewCase(geom *geometry.Geometry, V, alpha, beta, mach float64, params *InputParameters.CaseParameters) *Case {
	c := &Case{
		Geom:         geom,
		Params:       params,
		Vmag:         V,
		Alpha:        alpha,
		Beta:         beta,
		Mach:         mach,
		PG:           math.Sqrt(1 - mach*mach),
		NumSteps:     params.NumSteps,
		Dt:           geom.Dt,
		StartingWake: params.GetStartingWake(),
		Accelerate:   params.GetAccelerate(),
		RungeKutta:   params.Integrator == "RK4",
		solver:       utils.NewBiCGStab(),
		partOctree:   vortex.NewOctree(),
		fmm:          vortex.NewFMM(),
		converged:    true,
	}
	c.Vinf = c.windToBody(V, alpha, beta)
	if c.Dt == 0 {
		c.Dt = params.TimeStep
	}
	return c
}

// Run executes the case: the steady bootstrap, then, in vortex-particle
// mode, NumSteps of wake shedding and convection.
func (c *Case) Run(printFlag, surfStreamFlag, stabDerivFlag, vortPartFlag bool) {
	c.setSourceStrengths()
	c.solveMatrixEq()

	if vortPartFlag {
		fmt.Printf("Writing timestep %d files...\n", c.TimeStep)
		c.compVelocity()
		if printFlag {
			c.writeFiles()
		}
		c.TimeStep++

		for i := 0; i < c.NumSteps; i++ {
			fmt.Printf("Time step %d/%d. Flow time = %g\n", c.TimeStep, c.NumSteps, float64(c.TimeStep)*c.Dt)
			c.collapseWakeForEachEdge()

			if c.Accelerate {
				c.partOctree.RemoveData()
				c.partOctree.SetMaxMembers(vortex.DefaultMaxMembers)
				c.partOctree.AddData(c.Particles)
				for _, p := range c.Particles {
					p.VelOn = r3.Vec{}
				}
				c.fmm.Build(c.partOctree)
			}

			c.setSourceStrengths()
			c.solveVPmatrixEq()
			c.particleStrengthUpdate()
			c.compVelocity()
			if printFlag {
				c.writeFiles()
			}
			c.TimeStep++

			fmt.Printf("Convecting %d particles\n", len(c.Particles))
			c.convectParticles()
		}

		fmt.Printf("CL=[")
		for _, cl := range c.CLseries {
			fmt.Printf("%g, ", cl)
		}
		fmt.Printf("];\n")
	}

	c.compVelocity()
	c.trefftzPlaneAnalysis()

	if surfStreamFlag {
		c.createStreamlines()
	}
	if stabDerivFlag {
		c.stabilityDerivatives()
	}

	if !c.converged && printFlag {
		fmt.Println("*** Warning : Solution did not converge ***")
	}

	if printFlag && !vortPartFlag {
		c.writeFiles()
	}
}

// windToBody builds the wind-to-body rotation for the given angles (in
// degrees) and returns the freestream vector in the body frame.
func (c *Case) windToBody(V, alpha, beta float64) r3.Vec {
	alpha *= math.Pi / 180
	beta *= math.Pi / 180
	var (
		ca, sa = math.Cos(alpha), math.Sin(alpha)
		cb, sb = math.Cos(beta), math.Sin(beta)
	)
	c.transform = [3]r3.Vec{
		{X: ca * cb, Y: ca * sb, Z: -sa},
		{X: -sb, Y: cb, Z: 0},
		{X: sa * cb, Y: sa * sb, Z: ca},
	}
	vt := r3.Vec{X: V}
	return r3.Vec{
		X: c.transform[0].Dot(vt),
		Y: c.transform[1].Dot(vt),
		Z: c.transform[2].Dot(vt),
	}
}

// bodyToWind applies the transpose rotation.
func (c *Case) bodyToWind(v r3.Vec) r3.Vec {
	t := c.transform
	return r3.Vec{
		X: t[0].X*v.X + t[1].X*v.Y + t[2].X*v.Z,
		Y: t[0].Y*v.X + t[1].Y*v.Y + t[2].Y*v.Z,
		Z: t[0].Z*v.X + t[1].Z*v.Y + t[2].Z*v.Z,
	}
}

// setSourceStrengths applies the Neumann condition on every body panel,
// folding in the velocity induced by filaments and free particles.
func (c *Case) setSourceStrengths() {
	bPanels := c.Geom.BPanels
	if c.sigmas == nil || c.sigmas.Len() != len(bPanels) {
		c.sigmas = mat.NewVecDense(len(bPanels), nil)
	}
	for i, b := range bPanels {
		sumVelInfl := r3.Vec{}
		if c.TimeStep > 0 {
			if c.Accelerate {
				sumVelInfl = sumVelInfl.Add(c.fmm.BarnesHut(b.Center))
			} else {
				for _, p := range c.Particles {
					sumVelInfl = sumVelInfl.Add(p.VelInfl(b.Center))
				}
			}
		}
		for _, f := range c.Filaments {
			sumVelInfl = sumVelInfl.Add(f.VelInfl(b.Center))
		}
		b.SetSigma(c.Vinf.Add(sumVelInfl), 0)
		c.sigmas.SetVec(i, b.GetSigma())
	}
}

// solveMatrixEq solves the dense doublet system and propagates strengths to
// the panels; wake panels then take their Kutta value.
func (c *Case) solveMatrixEq() {
	mu := c.solveSystem()
	for i, b := range c.Geom.BPanels {
		b.SetMu(mu.AtVec(i))
		b.SetPotential(c.Vinf)
	}
	for _, w := range c.Geom.WPanels {
		w.SetMu()
		w.SetPotential(c.Vinf)
	}
}

// solveVPmatrixEq is the unsteady variant: each wake panel banks its
// previous strength before taking the new Kutta value.
func (c *Case) solveVPmatrixEq() {
	mu := c.solveSystem()
	for i, b := range c.Geom.BPanels {
		b.SetMu(mu.AtVec(i))
		b.SetPotential(c.Vinf)
	}
	for _, w := range c.Geom.WPanels {
		w.SetPrevStrength(w.GetMu())
		w.SetMu()
		w.SetPotential(c.Vinf)
	}
}

func (c *Case) solveSystem() *mat.VecDense {
	var (
		n   = len(c.Geom.BPanels)
		rhs = mat.NewVecDense(n, nil)
	)
	rhs.MulVec(c.Geom.B, c.sigmas)
	rhs.ScaleVec(-1, rhs)
	x, residual, err := c.solver.Solve(c.Geom.A, rhs)
	if err != nil {
		panic(fmt.Errorf("doublet solve failed: %w", err))
	}
	if residual > solveTol {
		c.converged = false
	}
	return x
}

// compVelocity surveys the surface with the solved strengths: panel
// velocities, Cp, and the force and moment sums.
func (c *Case) compVelocity() {
	var (
		params = c.Params
		cg     = r3.Vec{X: params.CG[0], Y: params.CG[1], Z: params.CG[2]}
	)
	c.CM = r3.Vec{}
	c.Fbody = r3.Vec{}
	for _, p := range c.Geom.BPanels {
		sumPartInfl := r3.Vec{}
		if c.Accelerate && c.TimeStep > 0 {
			sumPartInfl = c.fmm.BarnesHut(p.Center)
		} else {
			for _, part := range c.Particles {
				sumPartInfl = sumPartInfl.Add(part.VelInfl(p.Center))
			}
		}
		p.ComputeVelocity(c.PG, c.Vinf, sumPartInfl)
		p.ComputeCp(c.Vmag)
		c.Fbody = c.Fbody.Add(p.BezNormal.Scale(-p.GetCp() * p.Area / params.Sref))
		moment := p.ComputeMoments(cg)
		c.CM.X += moment.X / (params.Sref * params.Bref)
		c.CM.Y += moment.Y / (params.Sref * params.Cref)
		c.CM.Z += moment.Z / (params.Sref * params.Bref)
	}
	c.Fwind = c.bodyToWind(c.Fbody)
	c.CLseries = append(c.CLseries, c.Fbody.Z)
}

// trefftzPlaneAnalysis sums each wake's far-field lift and induced drag,
// compressibility-corrected.
func (c *Case) trefftzPlaneAnalysis() {
	c.CLTrefftz = 0
	c.CDTrefftz = 0
	for _, w := range c.Geom.GetWakes() {
		w.TrefftzPlane(c.Vmag, c.Params.Sref)
		c.CLTrefftz += w.GetCL() / c.PG
		c.CDTrefftz += w.GetCD() / (c.PG * c.PG)
	}
}

// stabilityDerivatives runs shadow cases perturbed in alpha and beta and
// finite-differences the force and moment coefficients.
func (c *Case) stabilityDerivatives() {
	const delta = 0.5
	dRad := delta * math.Pi / 180

	dA := NewCase(c.Geom, c.Vmag, c.Alpha+delta, c.Beta, c.Mach, c.Params)
	dB := NewCase(c.Geom, c.Vmag, c.Alpha, c.Beta+delta, c.Mach, c.Params)
	dA.Run(false, false, false, false)
	dB.Run(false, false, false, false)

	FA := dA.Fwind
	FA.Z = dA.GetCL()
	FA.X = dA.GetCD()
	FB := dB.Fwind
	FB.Z = dB.GetCL()
	FB.X = dB.GetCD()
	F := c.Fwind
	F.Z = c.CLTrefftz
	F.X = c.CDTrefftz

	c.DFdAlpha = FA.Sub(F).Scale(1 / dRad)
	c.DFdBeta = FB.Sub(F).Scale(1 / dRad)
	c.DMdAlpha = dA.CM.Sub(c.CM).Scale(1 / dRad)
	c.DMdBeta = dB.CM.Sub(c.CM).Scale(1 / dRad)
}

func (c *Case) GetCL() float64     { return c.CLTrefftz }
func (c *Case) GetCD() float64     { return c.CDTrefftz }
func (c *Case) GetMoment() r3.Vec  { return c.CM }
func (c *Case) BodyForces() r3.Vec { return c.Fbody }
func (c *Case) WindForces() r3.Vec { return c.Fwind }
func (c *Case) Converged() bool    { return c.converged }
