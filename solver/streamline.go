package solver

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/jakeddavis/CPanel/geometry"
)

// BodyStreamline is a surface streamline traced upstream from a sharp
// trailing edge, recording points and the local surface velocity.
type BodyStreamline struct {
	Pnts       []r3.Vec
	Velocities []r3.Vec
}

const (
	streamlineMaxSteps = 100
	streamlineLiftoff  = 1.e-4 // offset off the surface, in panel lengths
)

// createStreamlines seeds one streamline per sharp trailing edge, from the
// first body panel found on that edge, and traces each against the local
// flow.
func (c *Case) createStreamlines() {
	c.streamlines = nil
	seen := map[*geometry.Edge]bool{}
	for _, b := range c.Geom.BPanels {
		if b.TEedge == nil || seen[b.TEedge] {
			continue
		}
		seen[b.TEedge] = true
		b.SetStreamFlag()
		start := b.TEedge.MidPoint().Add(b.Normal.Scale(streamlineLiftoff * b.LongSide))
		c.streamlines = append(c.streamlines, c.traceStreamline(start, b))
	}
}

// traceStreamline marches upstream with fixed steps, re-projecting onto the
// nearest panel plane each step so the trace hugs the surface.
func (c *Case) traceStreamline(start r3.Vec, seed *geometry.BodyPanel) *BodyStreamline {
	var (
		s   = &BodyStreamline{}
		pos = start
		ds  = 0.5 * seed.LongSide
		pan = seed
	)
	for i := 0; i < streamlineMaxSteps; i++ {
		vel := c.Geom.PntVelocity(pos, c.Vinf, c.PG)
		s.Pnts = append(s.Pnts, pos)
		s.Velocities = append(s.Velocities, vel)
		if r3.Norm(vel) == 0 {
			break
		}
		step := r3.Unit(vel).Scale(-ds) // upstream
		next := pos.Add(step)

		// Re-attach to the surface through the nearest panel
		nearest := c.nearestPanel(next, pan)
		if nearest == nil {
			break
		}
		pan = nearest
		pan.SetStreamFlag()
		d := next.Sub(pan.Center).Dot(pan.Normal)
		pos = next.Sub(pan.Normal.Scale(d - streamlineLiftoff*pan.LongSide))
	}
	return s
}

// nearestPanel searches the previous panel's neighborhood before falling
// back to a full sweep.
func (c *Case) nearestPanel(pnt r3.Vec, hint *geometry.BodyPanel) *geometry.BodyPanel {
	var (
		best     *geometry.BodyPanel
		bestDist = 1.e30
	)
	consider := func(b *geometry.BodyPanel) {
		d := r3.Norm(pnt.Sub(b.Center))
		if d < bestDist {
			best, bestDist = b, d
		}
	}
	if hint != nil {
		consider(hint)
		for _, nb := range hint.Neighbors {
			consider(nb)
			for _, nb2 := range nb.Neighbors {
				consider(nb2)
			}
		}
		if best != nil && bestDist < 2*hint.LongSide {
			return best
		}
	}
	for _, b := range c.Geom.BPanels {
		consider(b)
	}
	return best
}
