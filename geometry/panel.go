package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// farFieldFactor switches the influence integrals to the equivalent
	// point singularity when the evaluation point is farther than this many
	// characteristic lengths from the panel centroid.
	farFieldFactor = 5.0

	// coincidenceTol treats an evaluation point within this distance of the
	// panel centroid as the panel's own centroid (self influence).
	coincidenceTol = 1.e-10

	// edgeTol guards the edge integrals against evaluation points sitting
	// on an edge line, where the closed forms are singular. Contributions
	// inside the guard are dropped.
	edgeTol = 1.e-12
)

// Panel holds the state shared by body and wake panels: the ordered vertex
// ring, derived geometric quantities, the panel-local frame, and the
// singularity strengths. Influence evaluations return raw 4pi-scaled values;
// callers divide by 4pi when combining with strengths.
type Panel struct {
	Nodes []*Node
	Edges []*Edge

	Center    r3.Vec
	Normal    r3.Vec
	BezNormal r3.Vec
	Area      float64
	LongSide  float64
	ID        int

	Mu, Sigma float64
	PrevMu    float64
	Potential float64

	l, m r3.Vec // in-plane frame; (l, m, Normal) is right-handed
}

// setGeom derives centroid, normal, area, longest side and the local frame
// from the vertex ring. Degenerate panels are reported, not tolerated.
func (p *Panel) setGeom() error {
	nv := len(p.Nodes)
	if nv != 3 && nv != 4 {
		return fmt.Errorf("panel: %d vertices, need 3 or 4", nv)
	}
	p.Center = r3.Vec{}
	for _, nd := range p.Nodes {
		p.Center = p.Center.Add(nd.Pnt)
	}
	p.Center = p.Center.Scale(1 / float64(nv))

	// Area and normal from the triangle fan about vertex 0
	var areaVec r3.Vec
	for i := 1; i < nv-1; i++ {
		a := p.Nodes[i].Pnt.Sub(p.Nodes[0].Pnt)
		b := p.Nodes[i+1].Pnt.Sub(p.Nodes[0].Pnt)
		areaVec = areaVec.Add(a.Cross(b))
	}
	p.Area = 0.5 * r3.Norm(areaVec)
	if p.Area <= 0 || math.IsNaN(p.Area) {
		return fmt.Errorf("panel at (%.4g,%.4g,%.4g): zero area", p.Center.X, p.Center.Y, p.Center.Z)
	}
	p.Normal = r3.Unit(areaVec)
	p.BezNormal = p.Normal

	p.LongSide = 0
	for i := 0; i < nv; i++ {
		s := r3.Norm(p.Nodes[(i+1)%nv].Pnt.Sub(p.Nodes[i].Pnt))
		if s < edgeTol {
			return fmt.Errorf("panel at (%.4g,%.4g,%.4g): zero-length edge", p.Center.X, p.Center.Y, p.Center.Z)
		}
		if s > p.LongSide {
			p.LongSide = s
		}
	}

	p.l = r3.Unit(p.Nodes[1].Pnt.Sub(p.Nodes[0].Pnt))
	p.m = p.Normal.Cross(p.l)
	return nil
}

// toLocal expresses a global point in the panel frame centered on the
// centroid.
func (p *Panel) toLocal(pnt r3.Vec) r3.Vec {
	d := pnt.Sub(p.Center)
	return r3.Vec{X: d.Dot(p.l), Y: d.Dot(p.m), Z: d.Dot(p.Normal)}
}

// PhiInf returns the raw potential influence (phiSrc, phiDub) of unit
// source and doublet strength at POI. The actual potential contribution is
// strength*phi/(4pi). Doublet self influence at the panel's own centroid is
// +2pi with outward normals.
func (p *Panel) PhiInf(POI r3.Vec) (phiSrc, phiDub float64) {
	d := POI.Sub(p.Center)
	dist := r3.Norm(d)
	if dist < coincidenceTol {
		// On-centroid: the source integral is evaluated in-plane below;
		// the doublet influence takes its interior-limit value, which
		// keeps the Dirichlet system regular on a closed body.
		return p.srcPhiInPlane(), 2 * math.Pi
	}
	if dist > farFieldFactor*p.LongSide {
		return p.pntSrcPhi(dist), p.pntDubPhi(d, dist)
	}

	var (
		loc      = p.toLocal(POI)
		x, y, z  = loc.X, loc.Y, loc.Z
		nv       = len(p.Nodes)
		absZ     = math.Abs(z)
		sumJ     float64
		sumSrcLn float64
	)
	for k := 0; k < nv; k++ {
		v1 := p.toLocal(p.Nodes[k].Pnt)
		v2 := p.toLocal(p.Nodes[(k+1)%nv].Pnt)
		var (
			x1, y1 = v1.X, v1.Y
			x2, y2 = v2.X, v2.Y
			d12    = math.Hypot(x2-x1, y2-y1)
			r1     = math.Sqrt((x-x1)*(x-x1) + (y-y1)*(y-y1) + z*z)
			r2     = math.Sqrt((x-x2)*(x-x2) + (y-y2)*(y-y2) + z*z)
		)
		if den := r1 + r2 - d12; den > edgeTol {
			RL := ((x-x1)*(y2-y1) - (y-y1)*(x2-x1)) / d12
			sumSrcLn += RL * math.Log((r1+r2+d12)/den)
		}
		sumJ += edgeJ(x, y, z, x1, y1, x2, y2, r1, r2)
	}
	phiSrc = sumSrcLn - z*sumJ
	if absZ < edgeTol {
		phiDub = 0
	} else {
		phiDub = sumJ
	}
	return
}

// VInf returns the raw velocity influence (vSrc, vDub) of unit source and
// doublet strength at POI; the actual velocity is strength*v/(4pi).
func (p *Panel) VInf(POI r3.Vec) (vSrc, vDub r3.Vec) {
	d := POI.Sub(p.Center)
	dist := r3.Norm(d)
	if dist < coincidenceTol {
		// The principal-value surface velocity is handled by the cluster
		// gradient, not by the singular integral.
		return r3.Vec{}, r3.Vec{}
	}
	if dist > farFieldFactor*p.LongSide {
		return p.pntSrcV(d, dist), p.pntDubV(d, dist)
	}

	var (
		loc     = p.toLocal(POI)
		x, y, z = loc.X, loc.Y, loc.Z
		nv      = len(p.Nodes)
		u, v, w float64
	)
	for k := 0; k < nv; k++ {
		v1 := p.toLocal(p.Nodes[k].Pnt)
		v2 := p.toLocal(p.Nodes[(k+1)%nv].Pnt)
		var (
			x1, y1 = v1.X, v1.Y
			x2, y2 = v2.X, v2.Y
			d12    = math.Hypot(x2-x1, y2-y1)
			r1     = math.Sqrt((x-x1)*(x-x1) + (y-y1)*(y-y1) + z*z)
			r2     = math.Sqrt((x-x2)*(x-x2) + (y-y2)*(y-y2) + z*z)
		)
		if den := r1 + r2 - d12; den > edgeTol && d12 > edgeTol {
			ln := math.Log(den / (r1 + r2 + d12))
			u += (y2 - y1) / d12 * ln
			v += (x1 - x2) / d12 * ln
		}
		w += edgeJ(x, y, z, x1, y1, x2, y2, r1, r2)

		// Doublet velocity: Biot-Savart of the bounding vortex ring,
		// assembled directly in the global frame.
		ra := POI.Sub(p.Nodes[k].Pnt)
		rb := POI.Sub(p.Nodes[(k+1)%nv].Pnt)
		raN, rbN := r3.Norm(ra), r3.Norm(rb)
		den := raN * rbN * (raN*rbN + ra.Dot(rb))
		if raN > edgeTol && rbN > edgeTol && math.Abs(den) > edgeTol {
			vDub = vDub.Add(ra.Cross(rb).Scale((raN + rbN) / den))
		}
	}
	vSrc = p.l.Scale(-u).Add(p.m.Scale(-v)).Add(p.Normal.Scale(-w))
	return
}

// edgeJ is the per-edge arctangent term shared by the doublet potential and
// the source normal velocity. The slope of a vertical edge overflows to an
// IEEE infinity, which atan maps to the correct half-pi limit.
func edgeJ(x, y, z, x1, y1, x2, y2, r1, r2 float64) float64 {
	if math.Abs(z) < edgeTol {
		return 0
	}
	var (
		m12 = (y2 - y1) / (x2 - x1)
		e1  = (x-x1)*(x-x1) + z*z
		e2  = (x-x2)*(x-x2) + z*z
		h1  = (x - x1) * (y - y1)
		h2  = (x - x2) * (y - y2)
	)
	return math.Atan((m12*e1-h1)/(z*r1)) - math.Atan((m12*e2-h2)/(z*r2))
}

// Point-singularity far field.

func (p *Panel) pntSrcPhi(dist float64) float64 {
	return -p.Area / dist
}

func (p *Panel) pntSrcV(d r3.Vec, dist float64) r3.Vec {
	return d.Scale(p.Area / (dist * dist * dist))
}

func (p *Panel) pntDubPhi(d r3.Vec, dist float64) float64 {
	return -p.Area * p.Normal.Dot(d) / (dist * dist * dist)
}

func (p *Panel) pntDubV(d r3.Vec, dist float64) r3.Vec {
	var (
		d3 = dist * dist * dist
		d5 = d3 * dist * dist
		pn = p.Normal.Dot(d)
	)
	return p.Normal.Scale(-p.Area / d3).Add(d.Scale(3 * p.Area * pn / d5))
}

// srcPhiInPlane evaluates the source potential integral at the centroid
// itself (z = 0), where only the logarithmic edge terms survive.
func (p *Panel) srcPhiInPlane() float64 {
	var (
		nv  = len(p.Nodes)
		sum float64
	)
	for k := 0; k < nv; k++ {
		v1 := p.toLocal(p.Nodes[k].Pnt)
		v2 := p.toLocal(p.Nodes[(k+1)%nv].Pnt)
		var (
			x1, y1 = v1.X, v1.Y
			x2, y2 = v2.X, v2.Y
			d12    = math.Hypot(x2-x1, y2-y1)
			r1     = math.Hypot(x1, y1)
			r2     = math.Hypot(x2, y2)
		)
		if den := r1 + r2 - d12; den > edgeTol {
			RL := (-x1*(y2-y1) + y1*(x2-x1)) / d12
			sum += RL * math.Log((r1+r2+d12)/den)
		}
	}
	return sum
}

// PanelPhi is the full potential contribution of this panel's strengths at
// POI.
func (p *Panel) PanelPhi(POI r3.Vec) float64 {
	phiSrc, phiDub := p.PhiInf(POI)
	return (p.Sigma*phiSrc + p.Mu*phiDub) / (4 * math.Pi)
}

// PanelV is the full velocity contribution of this panel's strengths at POI.
func (p *Panel) PanelV(POI r3.Vec) r3.Vec {
	vSrc, vDub := p.VInf(POI)
	return vSrc.Scale(p.Sigma / (4 * math.Pi)).Add(vDub.Scale(p.Mu / (4 * math.Pi)))
}

func (p *Panel) GetMu() float64    { return p.Mu }
func (p *Panel) GetSigma() float64 { return p.Sigma }

// SetPotential stores the total potential at the panel center: freestream
// plus the surface perturbation, which equals -mu in this formulation.
func (p *Panel) SetPotential(Vinf r3.Vec) {
	p.Potential = Vinf.Dot(p.Center) - p.Mu
}
