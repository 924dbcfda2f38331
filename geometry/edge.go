package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// sharpTEAngle is the dihedral between two body panels above which a shared
// edge is treated as a sharp trailing edge even without a shed wake. Used to
// seed surface streamline tracing.
const sharpTEAngle = 4.7 * math.Pi / 6

// Edge is an unordered pair of nodes with back-pointers to the panels that
// share it. An edge is flagged TE when it borders two body panels and one
// wake panel, or when its body panels meet at a sharp dihedral on the same
// surface.
type Edge struct {
	N1, N2   *Node
	BodyPans []*BodyPanel
	WakePans []*WakePanel
	TE       bool
}

func NewEdge(n1, n2 *Node) *Edge {
	e := &Edge{N1: n1, N2: n2}
	n1.addEdge(e)
	n2.addEdge(e)
	return e
}

func (e *Edge) addBodyPan(b *BodyPanel) {
	e.BodyPans = append(e.BodyPans, b)
	e.checkTE()
}

func (e *Edge) addWakePan(w *WakePanel) {
	e.WakePans = append(e.WakePans, w)
	e.checkTE()
}

func (e *Edge) removeWakePan(w *WakePanel) {
	for i, wp := range e.WakePans {
		if wp == w {
			e.WakePans = append(e.WakePans[:i], e.WakePans[i+1:]...)
			return
		}
	}
}

func (e *Edge) checkTE() {
	if len(e.BodyPans) != 2 {
		return
	}
	if len(e.WakePans) == 1 {
		e.TE = true
		var (
			w      = e.WakePans[0]
			normal = w.Normal
			v1     = e.BodyPans[0].Center.Sub(w.Center)
			v2     = e.BodyPans[1].Center.Sub(w.Center)
			theta1 = math.Acos(v1.Dot(normal) / (r3.Norm(v1) * r3.Norm(normal)))
			theta2 = math.Acos(v2.Dot(normal) / (r3.Norm(v2) * r3.Norm(normal)))
		)
		// Comparing angles against the wake normal rather than z keeps the
		// upper/lower distinction consistent for a wake shed from a
		// vertical surface.
		if theta1 < theta2 {
			w.setParentPanels(e.BodyPans[0], e.BodyPans[1])
		} else {
			w.setParentPanels(e.BodyPans[1], e.BodyPans[0])
		}
		w.TEedge = e
		e.N1.setTE()
		e.N2.setTE()
		return
	}
	if len(e.WakePans) == 0 {
		// Sharp edge without a shed wake (e.g. vertical tail): starts
		// streamline tracing.
		angle := math.Acos(e.BodyPans[0].Normal.Dot(e.BodyPans[1].Normal))
		if angle > sharpTEAngle && e.BodyPans[0].ID == e.BodyPans[1].ID {
			e.TE = true
			e.N1.setTE()
			e.N2.setTE()
			e.BodyPans[0].TEedge = e
			e.BodyPans[1].TEedge = e
		}
	}
}

func (e *Edge) sameEdge(n1, n2 *Node) bool {
	return (n1 == e.N1 && n2 == e.N2) || (n1 == e.N2 && n2 == e.N1)
}

func (e *Edge) OtherBodyPan(current *BodyPanel) *BodyPanel {
	for _, b := range e.BodyPans {
		if b != current {
			return b
		}
	}
	return nil
}

func (e *Edge) OtherWakePan(current *WakePanel) *WakePanel {
	for _, w := range e.WakePans {
		if w != current {
			return w
		}
	}
	return nil
}

func (e *Edge) OtherNode(current *Node) *Node {
	switch current {
	case e.N1:
		return e.N2
	case e.N2:
		return e.N1
	}
	return nil
}

func (e *Edge) Length() float64 { return r3.Norm(e.N2.Pnt.Sub(e.N1.Pnt)) }

func (e *Edge) Vector() r3.Vec { return e.N2.Pnt.Sub(e.N1.Pnt) }

func (e *Edge) MidPoint() r3.Vec { return e.N1.Pnt.Add(e.Vector().Scale(0.5)) }

func (e *Edge) setNeighbors() {
	if len(e.BodyPans) == 2 {
		e.BodyPans[0].addNeighbor(e.BodyPans[1])
		e.BodyPans[1].addNeighbor(e.BodyPans[0])
	}
}

// FlipDir swaps the node order, used when walking a trailing edge in
// spanwise order.
func (e *Edge) FlipDir() {
	e.N1, e.N2 = e.N2, e.N1
}

// NextTE continues along the trailing edge past N2.
func (e *Edge) NextTE() *Edge {
	next := e.N2.TENext(e)
	if next != nil && next.N1 != e.N2 {
		next.FlipDir()
	}
	return next
}

func (e *Edge) containsNode(n *Node) bool { return n == e.N1 || n == e.N2 }
