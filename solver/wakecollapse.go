package solver

import (
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/jakeddavis/CPanel/geometry"
	"github.com/jakeddavis/CPanel/utils"
	"github.com/jakeddavis/CPanel/vortex"
)

// collapseWakeForEachEdge walks the buffer-wake panels and collapses edges
// 1-3 of each into free vortex particles, sharing a used-edge set so an
// edge between two panels is collapsed once. Edge 0 (the trailing edge
// itself) carries no free circulation. Filaments are created from the far
// edge on the first shedding step and restrengthened afterwards.
func (c *Case) collapseWakeForEachEdge() {
	var (
		wPanels   = c.Geom.WPanels
		usedEdges = map[*geometry.Edge]bool{}
	)
	for wi, w := range wPanels {
		pEdges := w.EdgesInOrder()
		for j := 1; j < 4; j++ {
			if usedEdges[pEdges[j]] {
				continue
			}
			usedEdges[pEdges[j]] = true
			var (
				pos      = c.seedPos(w, j)
				strength = c.edgeStrength(w, pEdges[j], j)
				radius   = w.GetPartRadius(c.Vmag, c.Dt)
				p        = vortex.NewParticle(pos, strength, radius, c.TimeStep)
			)
			p.ParentPanel = wi
			c.Particles = append(c.Particles, p)
		}
	}

	if c.TimeStep == 1 {
		for wi, w := range wPanels {
			var (
				pts = w.PointsInOrder()
				p1  = pts[2].Pnt
				p2  = pts[3].Pnt
				g   float64
			)
			if c.StartingWake {
				// The filament is the upstream edge of the shed row, which
				// is oriented opposite the downstream edge.
				g = -w.GetMu()
			}
			fil := vortex.NewFilament(p1, p2, g, wi)
			w.FilamentIdx = len(c.Filaments)
			c.Filaments = append(c.Filaments, fil)
		}
	} else {
		for i, w := range wPanels {
			c.Filaments[i].SetStrength(-w.GetMu())
		}
	}
}

// seedPos is the particle seed for the numbered edge: the midpoint of the
// two projected-node positions bracketing it.
func (c *Case) seedPos(pan *geometry.WakePanel, edgeNum int) r3.Vec {
	var (
		nodes = pan.PointsInOrder()
		dt    = c.Dt
		V     = c.Vmag
	)
	switch edgeNum {
	case 0:
		return nodes[0].FirstProjNode(dt, V).Add(nodes[1].FirstProjNode(dt, V)).Scale(0.5)
	case 1:
		return nodes[1].FirstProjNode(dt, V).Add(nodes[1].SecProjNode(dt, V)).Scale(0.5)
	case 2:
		return nodes[0].SecProjNode(dt, V).Add(nodes[1].SecProjNode(dt, V)).Scale(0.5)
	case 3:
		return nodes[0].FirstProjNode(dt, V).Add(nodes[0].SecProjNode(dt, V)).Scale(0.5)
	}
	panic(fmt.Sprintf("wrong edge number %d for particle seed position", edgeNum))
}

// edgeStrength is the collapsed circulation vector of the numbered edge.
// Side edges difference the neighboring panel's doublet when one exists;
// the far edge only sheds during the starting-wake transient.
func (c *Case) edgeStrength(pan *geometry.WakePanel, curEdge *geometry.Edge, edgeNum int) r3.Vec {
	pts := pan.PointsInOrder()
	switch edgeNum {
	case 2: // far edge, no neighbor to worry about
		var (
			Rj = pts[2].Pnt
			Ri = pts[3].Pnt
		)
		if c.StartingWake {
			return Ri.Sub(Rj).Scale(pan.GetMu() - pan.PrevMu)
		}
		return r3.Vec{}
	case 1:
		var (
			Rj = pts[1].Pnt
			Ri = pts[2].Pnt
		)
		if other := curEdge.OtherWakePan(pan); other != nil {
			return Ri.Sub(Rj).Scale(pan.GetMu() - other.GetMu())
		}
		return Ri.Sub(Rj).Scale(pan.GetMu())
	default:
		var (
			Rj = pts[3].Pnt
			Ri = pts[0].Pnt
		)
		if other := curEdge.OtherWakePan(pan); other != nil {
			return Ri.Sub(Rj).Scale(pan.GetMu() - other.GetMu())
		}
		return Ri.Sub(Rj).Scale(pan.GetMu())
	}
}

// velocityInflFromEverything is the full velocity at a point: freestream,
// body and wake panels, particles (through the tree when accelerated) and
// filaments.
func (c *Case) velocityInflFromEverything(POI r3.Vec) r3.Vec {
	velOnPart := c.Vinf
	for _, b := range c.Geom.BPanels {
		velOnPart = velOnPart.Add(b.PanelV(POI))
	}
	for _, w := range c.Geom.WPanels {
		velOnPart = velOnPart.Add(w.PanelV(POI))
	}
	if c.Accelerate {
		velOnPart = velOnPart.Add(c.fmm.BarnesHut(POI))
	} else {
		for _, p := range c.Particles {
			velOnPart = velOnPart.Add(p.VelInfl(POI))
		}
	}
	for _, f := range c.Filaments {
		velOnPart = velOnPart.Add(f.VelInfl(POI))
	}
	return velOnPart
}

// convectParticles advances particle positions with RK4 or two-step
// Adams-Bashforth (forward Euler on a particle's first step). Particles
// read a frozen state and write only their own slot; positions are written
// back in a barriered second pass.
func (c *Case) convectParticles() {
	var (
		n       = len(c.Particles)
		newPos  = make([]r3.Vec, n)
		newPrev = make([]r3.Vec, n)
		pm      = utils.NewPartitionMap(runtime.NumCPU(), n)
		wg      sync.WaitGroup
	)
	if n == 0 {
		return
	}
	for bn := 0; bn < pm.ParallelDegree; bn++ {
		wg.Add(1)
		go func(bn int) {
			defer wg.Done()
			kMin, kMax := pm.GetBucketRange(bn)
			for i := kMin; i < kMax; i++ {
				p := c.Particles[i]
				if c.RungeKutta {
					var (
						POI = p.Pos
						k1  = c.velocityInflFromEverything(POI)
						k2  = c.velocityInflFromEverything(POI.Add(k1.Scale(c.Dt / 2)))
						k3  = c.velocityInflFromEverything(POI.Add(k2.Scale(c.Dt / 2)))
						k4  = c.velocityInflFromEverything(POI.Add(k3.Scale(c.Dt)))
					)
					newPos[i] = POI.Add(k1.Scale(c.Dt / 6)).Add(k2.Scale(c.Dt / 3)).
						Add(k3.Scale(c.Dt / 3)).Add(k4.Scale(c.Dt / 6))
					newPrev[i] = p.PrevVelInfl
				} else {
					velOnPart := c.velocityInflFromEverything(p.Pos)
					if p.PrevVelInfl == (r3.Vec{}) {
						newPos[i] = p.Pos.Add(velOnPart.Scale(c.Dt))
					} else {
						newPos[i] = p.Pos.Add(velOnPart.Scale(1.5 * c.Dt).Sub(p.PrevVelInfl.Scale(0.5 * c.Dt)))
					}
					newPrev[i] = velOnPart
				}
			}
		}(bn)
	}
	wg.Wait()

	for i, p := range c.Particles {
		p.Pos = newPos[i]
		p.PrevVelInfl = newPrev[i]
	}
}

// particleStrengthUpdate applies the configured stretching/diffusion
// operator with two-step Adams-Bashforth, falling back to forward Euler on
// a particle's first update.
func (c *Case) particleStrengthUpdate() {
	var update func(p *vortex.Particle) r3.Vec
	switch c.Params.StrengthUpdate {
	case "gaussian":
		update = c.gaussianUpdate
	case "winckelmans":
		update = c.winckelmansUpdate
	default:
		return
	}

	// Strength changes are staged so every influence sees the pre-update
	// state.
	stretchDiff := make([]r3.Vec, len(c.Particles))
	for i, p := range c.Particles {
		stretchDiff[i] = update(p)
	}
	for i, p := range c.Particles {
		if p.PrevStrengthUpdate == (r3.Vec{}) {
			p.Strength = p.Strength.Add(stretchDiff[i].Scale(c.Dt))
		} else {
			p.Strength = p.Strength.Add(stretchDiff[i].Scale(1.5 * c.Dt).Sub(p.PrevStrengthUpdate.Scale(0.5 * c.Dt)))
		}
		p.PrevStrengthUpdate = stretchDiff[i]
	}
}

// gaussianUpdate combines He-Zhao stretching with Ploumhans
// particle-strength-exchange diffusion.
func (c *Case) gaussianUpdate(p *vortex.Particle) r3.Vec {
	var dAlpha r3.Vec
	for _, other := range c.Particles {
		if other == p {
			continue
		}
		dAlpha = dAlpha.Add(p.VortexStretching(other))
		dAlpha = dAlpha.Add(p.ViscousDiffusion(other, c.Params.Nu))
	}
	return dAlpha
}

// winckelmansUpdate is the fused transpose-scheme alternative.
func (c *Case) winckelmansUpdate(p *vortex.Particle) r3.Vec {
	var dAlpha r3.Vec
	for _, other := range c.Particles {
		dAlpha = dAlpha.Add(p.StrengthUpdateWinckelmans(other, c.Params.Nu))
	}
	return dAlpha
}
