package geometry

import "gonum.org/v1/gonum/spatial/r3"

// Node is a mesh vertex. Trailing-edge nodes additionally carry the wake
// projection direction used to seed buffer-wake panels and particles.
type Node struct {
	Pnt   r3.Vec
	Edges []*Edge
	TE    bool

	projDir r3.Vec // unit, downstream; valid when TE is set
}

func NewNode(pnt r3.Vec) *Node {
	return &Node{Pnt: pnt, projDir: r3.Vec{X: 1}}
}

func (n *Node) addEdge(e *Edge) { n.Edges = append(n.Edges, e) }

func (n *Node) setTE() { n.TE = true }

// SetProjDir fixes the downstream direction particles and buffer-wake nodes
// are projected along. Zero-length directions are ignored.
func (n *Node) SetProjDir(dir r3.Vec) {
	if r3.Norm(dir) == 0 {
		return
	}
	n.projDir = r3.Unit(dir)
}

// FirstProjNode is the node projected one convection length V*dt downstream.
func (n *Node) FirstProjNode(dt, V float64) r3.Vec {
	return n.Pnt.Add(n.projDir.Scale(V * dt))
}

// SecProjNode is the node projected two convection lengths downstream; it is
// the far corner of the buffer-wake panel rooted at this node.
func (n *Node) SecProjNode(dt, V float64) r3.Vec {
	return n.Pnt.Add(n.projDir.Scale(2 * V * dt))
}

// TENext walks the trailing edge: it returns an edge incident on this node,
// other than from, that is flagged TE. Nil when the trailing edge ends here.
func (n *Node) TENext(from *Edge) *Edge {
	for _, e := range n.Edges {
		if e != from && e.TE {
			return e
		}
	}
	return nil
}
