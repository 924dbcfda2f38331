package geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/spatial/r3"
)

// wakeMergeEps is the tolerance on streamwise extents below which two wakes
// are treated as the same sheet and merged.
const wakeMergeEps = 1.e-2

// WakeLine carries the circulation of one spanwise wake strip; the strength
// is read from the trailing-edge wake panel so it tracks every solve.
type WakeLine struct {
	P1, P2 r3.Vec
	pan    *WakePanel
}

func (wl *WakeLine) Y() float64        { return 0.5 * (wl.P1.Y + wl.P2.Y) }
func (wl *WakeLine) Strength() float64 { return wl.pan.Mu }

// Wake is one connected wake sheet: its panels, streamwise/spanwise extents
// and the sorted wake lines used for Trefftz-plane integration.
type Wake struct {
	Panels    []*WakePanel
	WakeLines []*WakeLine

	YMin, YMax float64
	X0, Xf     float64
	Z0, Zf     float64
	Normal     r3.Vec

	geom *Geometry

	CL, CD float64

	// Spanwise survey written alongside the integrated coefficients
	YLoc, Cl, Cd []float64
}

func newWake(geom *Geometry) *Wake { return &Wake{geom: geom} }

func (w *Wake) addPanel(wp *WakePanel) {
	if len(w.Panels) == 0 {
		pnt := wp.Nodes[0].Pnt
		w.YMin, w.YMax = pnt.Y, pnt.Y
		w.X0, w.Xf = pnt.X, pnt.X
		w.Z0, w.Zf = pnt.Z, pnt.Z
		w.Normal = wp.Normal
	}
	for _, nd := range wp.Nodes {
		pnt := nd.Pnt
		w.YMin = math.Min(w.YMin, pnt.Y)
		w.YMax = math.Max(w.YMax, pnt.Y)
		w.X0 = math.Min(w.X0, pnt.X)
		w.Xf = math.Max(w.Xf, pnt.X)
		w.Z0 = math.Min(w.Z0, pnt.Z)
		w.Zf = math.Max(w.Zf, pnt.Z)
	}
	w.Panels = append(w.Panels, wp)
	wp.setParentWake(w)
}

// isSameWake reports whether another wake shares this one's streamwise
// extent closely enough to be a duplicate of the same sheet.
func (w *Wake) isSameWake(other *Wake) bool {
	if other == w {
		return false
	}
	return math.Abs(other.X0-w.X0) < wakeMergeEps &&
		math.Abs(other.Z0-w.Z0) < wakeMergeEps &&
		math.Abs(other.Xf-w.Xf) < wakeMergeEps &&
		math.Abs(other.Zf-w.Zf) < wakeMergeEps
}

func (w *Wake) mergeWake(other *Wake) {
	for _, wp := range other.Panels {
		w.Panels = append(w.Panels, wp)
		wp.setParentWake(w)
	}
	for _, wl := range other.WakeLines {
		w.addWakeLine(wl)
	}
	w.YMin = math.Min(w.YMin, other.YMin)
	w.YMax = math.Max(w.YMax, other.YMax)
}

func (w *Wake) addWakeLine(wl *WakeLine) {
	w.WakeLines = append(w.WakeLines, wl)
	sort.Slice(w.WakeLines, func(i, j int) bool { return w.WakeLines[i].Y() < w.WakeLines[j].Y() })
}

// wakeStrength interpolates the wake-line circulation at spanwise station y.
func (w *Wake) wakeStrength(y float64) float64 {
	if len(w.WakeLines) < 2 {
		return 0
	}
	var wl1, wl2 *WakeLine
	switch {
	case y < w.WakeLines[1].Y():
		wl1, wl2 = w.WakeLines[0], w.WakeLines[1]
	case y >= w.WakeLines[len(w.WakeLines)-1].Y():
		wl1 = w.WakeLines[len(w.WakeLines)-2]
		wl2 = w.WakeLines[len(w.WakeLines)-1]
	default:
		for i := 1; i < len(w.WakeLines)-1; i++ {
			if w.WakeLines[i].Y() <= y && w.WakeLines[i+1].Y() > y {
				wl1, wl2 = w.WakeLines[i], w.WakeLines[i+1]
			}
		}
	}
	interp := (y - wl1.Y()) / (wl2.Y() - wl1.Y())
	return wl1.Strength() + interp*(wl2.Strength()-wl1.Strength())
}

// pntInWake projects the trailing edge spanning y downstream to streamwise
// station x, returning the point on the wake sheet.
func (w *Wake) pntInWake(x, y float64) r3.Vec {
	yDir := r3.Vec{Y: 1}
	for _, wp := range w.Panels {
		if !wp.IsTEpanel() || wp.UpperPan == nil {
			continue
		}
		for _, e := range wp.UpperPan.Edges {
			if !e.TE {
				continue
			}
			p1, p2 := e.N1.Pnt, e.N2.Pnt
			if (p1.Y <= y && p2.Y >= y) || (p1.Y >= y && p2.Y <= y) {
				t := (y - p1.Y) / (p2.Y - p1.Y)
				pnt := p1.Add(p2.Sub(p1).Scale(t))
				out := wp.Normal.Cross(yDir).Scale(-1)
				if out.X < 0 {
					out = out.Scale(-1)
				}
				scale := (x - pnt.X) / out.X
				return pnt.Add(out.Scale(scale))
			}
		}
	}
	return r3.Vec{}
}

// vRadial probes the wake potential around a survey point displaced off the
// sheet and differences it for the induced crossflow magnitude.
func (w *Wake) vRadial(pWake r3.Vec) float64 {
	var (
		theta = math.Pi / 4
		dZmax = 0.3
		r     float64
		POI   r3.Vec
	)
	POI.X = pWake.X
	if pWake.Y >= 0 {
		r = w.YMax - pWake.Y
	} else {
		r = pWake.Y - w.YMin
	}
	delZ := r * math.Sin(theta)
	if delZ > dZmax {
		delZ = dZmax
		theta = math.Asin(dZmax / r)
	}
	if pWake.Y >= 0 {
		POI.Y = w.YMax - r*math.Cos(theta)
	} else {
		POI.Y = w.YMin + r*math.Cos(theta)
	}
	POI.Z = pWake.Z + r*math.Sin(theta)

	h := 0.25 * delZ
	if h <= 0 {
		return 0
	}
	var (
		yDir = r3.Vec{Y: 1}
		zDir = r3.Vec{Z: 1}
		v    = (w.geom.WakePotential(POI.Add(yDir.Scale(h))) - w.geom.WakePotential(POI.Sub(yDir.Scale(h)))) / (2 * h)
		ww   = (w.geom.WakePotential(POI.Add(zDir.Scale(h))) - w.geom.WakePotential(POI.Sub(zDir.Scale(h)))) / (2 * h)
	)
	return math.Hypot(v, ww)
}

// TrefftzPlane integrates spanwise circulation and induced crossflow on a
// plane two-thirds of the way down the wake, giving the wake's lift and
// induced drag.
func (w *Wake) TrefftzPlane(Vinf, Sref float64) {
	const nPnts = 164 // even, for Simpson integration
	if len(w.WakeLines) < 2 {
		// A single strip has no spanwise circulation gradient.
		w.CL, w.CD = 0, 0
		w.YLoc, w.Cl, w.Cd = nil, nil, nil
		return
	}
	var (
		step     = (w.YMax - w.YMin) / nPnts
		xTrefftz = w.X0 + 2*(w.Xf-w.X0)/3
	)
	w.YLoc = make([]float64, nPnts+1)
	w.Cl = make([]float64, nPnts+1)
	w.Cd = make([]float64, nPnts+1)
	w.YLoc[0], w.YLoc[nPnts] = w.YMin, w.YMax
	for i := 1; i < nPnts; i++ {
		w.YLoc[i] = w.YMin + float64(i)*step
		pWake := w.pntInWake(xTrefftz, w.YLoc[i])
		vr := w.vRadial(pWake)
		dPhi := -w.wakeStrength(w.YLoc[i])
		w.Cl[i] = 2 * dPhi / (Vinf * Sref)
		w.Cd[i] = dPhi * vr / (Vinf * Vinf * Sref)
	}
	w.CL = integrate.Simpsons(w.YLoc, w.Cl)
	w.CD = integrate.Simpsons(w.YLoc, w.Cd)
}

func (w *Wake) GetCL() float64 { return w.CL }
func (w *Wake) GetCD() float64 { return w.CD }

// Spanwise survey accessors for the CSV writer.
func (w *Wake) SpanwisePnts() []float64 { return w.YLoc }
func (w *Wake) SpanwiseCl() []float64   { return w.Cl }
func (w *Wake) SpanwiseCd() []float64   { return w.Cd }
