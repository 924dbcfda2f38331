package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// WakePanel is a wake sheet element: triangular in the classical wake,
// quadrilateral in vortex-particle mode where it forms the buffer row shed
// each step. Its doublet strength is never a system unknown; the Kutta
// condition ties it to its parent body panels.
type WakePanel struct {
	Panel

	UpperPan, LowerPan *BodyPanel
	ParentWake         *Wake
	TEedge             *Edge

	// FilamentIdx points at the vortex filament attached to this panel's
	// far edge; -1 when none has been emitted yet. The filament itself is
	// owned by the case.
	FilamentIdx int
}

func NewWakePanel(nodes []*Node, edges []*Edge, surfID int) (*WakePanel, error) {
	w := &WakePanel{FilamentIdx: -1}
	w.Nodes = nodes
	w.Edges = edges
	w.ID = surfID
	if err := w.setGeom(); err != nil {
		return nil, err
	}
	for _, e := range edges {
		e.addWakePan(w)
	}
	return w, nil
}

func (w *WakePanel) setParentPanels(upper, lower *BodyPanel) {
	w.UpperPan = upper
	w.LowerPan = lower
	upper.setUpper()
	lower.setLower()
}

func (w *WakePanel) setParentWake(wk *Wake) { w.ParentWake = wk }

// SetMu applies the Kutta condition: the wake doublet is the jump between
// its upper and lower parent panels.
func (w *WakePanel) SetMu() {
	if w.UpperPan == nil || w.LowerPan == nil {
		return
	}
	w.Mu = w.UpperPan.Mu - w.LowerPan.Mu
}

func (w *WakePanel) SetPrevStrength(mu float64) { w.PrevMu = mu }

// IsTEpanel reports whether the panel borders the trailing edge.
func (w *WakePanel) IsTEpanel() bool { return w.TEedge != nil }

// PointsInOrder returns the vertex ring; for buffer panels the first two
// entries are the trailing-edge nodes and entries 2,3 are their projected
// far corners, so edge 2 is the far (downstream) edge.
func (w *WakePanel) PointsInOrder() []*Node { return w.Nodes }

// EdgesInOrder returns edge k joining vertex k to vertex k+1.
func (w *WakePanel) EdgesInOrder() []*Edge { return w.Edges }

// GetPartRadius is the core radius for particles collapsed from this
// panel: half the particle spacing along the convection direction.
func (w *WakePanel) GetPartRadius(Vmag, dt float64) float64 {
	return 0.5 * Vmag * dt
}

// PanelPhiDub is the doublet-only potential of the wake panel. Wake panels
// carry no source strength.
func (w *WakePanel) PanelPhiDub(POI r3.Vec) float64 {
	_, phiDub := w.PhiInf(POI)
	return w.Mu * phiDub / (4 * math.Pi)
}
