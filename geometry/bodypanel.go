package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// clusterSize is the minimum neighbor count for the least-squares
	// surface gradient.
	clusterSize = 5

	// clusterConeAngle rejects cluster candidates whose normal deviates
	// from the seed panel's by more than this.
	clusterConeAngle = math.Pi / 4
)

// BodyPanel is a triangular surface panel carrying both a source and a
// doublet strength, one row of the dense system.
type BodyPanel struct {
	Panel

	Neighbors []*BodyPanel
	cluster   []*BodyPanel

	Upper      bool // sheds a wake from its lower edge
	Lower      bool // sheds a wake from its upper edge
	LSFlag     bool // lifting-surface member
	TipFlag    bool
	StreamFlag bool // a surface streamline crosses this panel

	TEedge *Edge // sharp trailing edge, set for streamline seeding

	Velocity r3.Vec
	Cp       float64

	// Index into the body-panel vector; the panel's row and column in the
	// dense system.
	Index int
}

func NewBodyPanel(nodes []*Node, edges []*Edge, surfID int, lsFlag bool) (*BodyPanel, error) {
	b := &BodyPanel{}
	b.Nodes = nodes
	b.Edges = edges
	b.ID = surfID
	b.LSFlag = lsFlag
	if err := b.setGeom(); err != nil {
		return nil, err
	}
	for _, e := range edges {
		e.addBodyPan(b)
	}
	return b, nil
}

func (b *BodyPanel) addNeighbor(other *BodyPanel) {
	for _, n := range b.Neighbors {
		if n == other {
			return
		}
	}
	b.Neighbors = append(b.Neighbors, other)
}

func (b *BodyPanel) setUpper() { b.Upper = true }
func (b *BodyPanel) setLower() { b.Lower = true }

func (b *BodyPanel) SetIndex(i int) { b.Index = i }

func (b *BodyPanel) SetStreamFlag() { b.StreamFlag = true }

// SetSigma applies the Neumann condition: the source strength cancels the
// onset flow through the panel, less any prescribed transpiration velocity.
func (b *BodyPanel) SetSigma(vOnset r3.Vec, vNorm float64) {
	b.Sigma = -b.Normal.Dot(vOnset) - vNorm
}

func (b *BodyPanel) SetMu(mu float64) { b.Mu = mu }

// setCluster grows the neighbor cluster used for the least-squares surface
// gradient: breadth-first from the edge neighbors, keeping panels whose
// normals lie inside the cone, never mixing upper and lower sides at a
// trailing edge, and never crossing onto a tip cap from the main surface.
func (b *BodyPanel) setCluster(nPanels int) {
	b.cluster = b.cluster[:0]
	var (
		visited = map[*BodyPanel]bool{b: true}
		queue   = append([]*BodyPanel{}, b.Neighbors...)
	)
	for len(queue) > 0 && len(b.cluster) < 2*nPanels {
		cand := queue[0]
		queue = queue[1:]
		if visited[cand] {
			continue
		}
		visited[cand] = true
		if !b.clusterTest(cand) {
			continue
		}
		b.cluster = append(b.cluster, cand)
		queue = append(queue, cand.Neighbors...)
	}
	if len(b.cluster) < 2 {
		// Strongly folded corners (tip caps on coarse meshes) can reject
		// everything; fall back to the raw edge neighbors.
		b.cluster = append(b.cluster[:0], b.Neighbors...)
	}
}

func (b *BodyPanel) clusterTest(other *BodyPanel) bool {
	if other == b {
		return false
	}
	cosAngle := b.Normal.Dot(other.Normal)
	if cosAngle < math.Cos(clusterConeAngle) {
		return false
	}
	// Respect the upper/lower split at the trailing edge.
	if (b.Upper && other.Lower) || (b.Lower && other.Upper) {
		return false
	}
	// The main surface does not reach across the tip cap; tip panels
	// extend laterally instead.
	if !b.TipFlag && other.TipFlag {
		return false
	}
	return true
}

// ComputeVelocity evaluates the surface velocity: the tangential onset flow
// plus the perturbation from the surface doublet gradient, the latter scaled
// by the Prandtl-Glauert factor.
func (b *BodyPanel) ComputeVelocity(PG float64, Vinf, vPart r3.Vec) {
	if len(b.cluster) < clusterSize {
		b.setCluster(clusterSize)
	}
	var (
		vOnset = Vinf.Add(vPart)
		vTan   = vOnset.Sub(b.Normal.Scale(vOnset.Dot(b.Normal)))
		grad   = b.muGradient()
	)
	b.Velocity = vTan.Add(grad.Scale(-1 / PG))
}

// muGradient fits mu linearly over the cluster in the panel frame and
// returns the in-plane gradient as a global vector.
func (b *BodyPanel) muGradient() r3.Vec {
	n := len(b.cluster)
	if n < 2 {
		return r3.Vec{}
	}
	var (
		A   = mat.NewDense(n, 2, nil)
		rhs = mat.NewVecDense(n, nil)
	)
	for i, c := range b.cluster {
		d := c.Center.Sub(b.Center)
		A.Set(i, 0, d.Dot(b.l))
		A.Set(i, 1, d.Dot(b.m))
		rhs.SetVec(i, c.Mu-b.Mu)
	}
	var sol mat.VecDense
	if err := sol.SolveVec(A, rhs); err != nil {
		return r3.Vec{}
	}
	return b.l.Scale(sol.AtVec(0)).Add(b.m.Scale(sol.AtVec(1)))
}

func (b *BodyPanel) ComputeCp(Vmag float64) {
	b.Cp = 1 - r3.Norm2(b.Velocity)/(Vmag*Vmag)
}

// ComputeMoments returns the panel's moment contribution about cg, using
// the smoothed normal for the pressure direction. Reference-area and
// length denominators are applied by the caller.
func (b *BodyPanel) ComputeMoments(cg r3.Vec) r3.Vec {
	F := b.BezNormal.Scale(-b.Cp * b.Area)
	return b.Center.Sub(cg).Cross(F)
}

func (b *BodyPanel) GetGlobalV() r3.Vec { return b.Velocity }
func (b *BodyPanel) GetCp() float64     { return b.Cp }
