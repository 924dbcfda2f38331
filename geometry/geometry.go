package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/jakeddavis/CPanel/readfiles"
)

// Options configure graph construction from a surface mesh.
type Options struct {
	VortexParticles bool
	Dt              float64 // 0 derives a step from the TE spacing and InputV
	InputV          float64
	NormFlag        bool // re-orient inward-pointing triangles at load
	InfCoeffFile    string
	WriteCoeffFlag  bool
	Verbose         bool
}

// Geometry owns the panel graph for one mesh: nodes, edges, body and wake
// panels, the discovered wakes, and the dense influence matrices.
type Geometry struct {
	Nodes   []*Node
	Edges   []*Edge
	BPanels []*BodyPanel
	WPanels []*WakePanel
	Wakes   []*Wake

	A *mat.Dense // doublet influence, Kutta closure folded in
	B *mat.Dense // source influence

	Dt           float64
	shortestTE   float64
	opts         Options
	nodeIdx      map[*Node]int
	edgesByNodes map[[2]int]*Edge
}

// NewGeometry builds the full panel graph from a .tri mesh and assembles
// (or loads) the influence matrices.
func NewGeometry(mesh *readfiles.TriMesh, opts Options) (*Geometry, error) {
	g := &Geometry{
		opts:         opts,
		nodeIdx:      make(map[*Node]int),
		edgesByNodes: make(map[[2]int]*Edge),
	}
	if err := g.buildGraph(mesh); err != nil {
		return nil, err
	}
	g.discoverWakes()
	if opts.VortexParticles {
		g.calcTimeStep()
		if err := g.createVPWakeSurfaces(); err != nil {
			return nil, err
		}
		g.discoverWakes()
	}
	g.buildWakeLines()
	for _, b := range g.BPanels {
		b.setCluster(clusterSize)
	}
	if err := g.setInfCoeff(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Geometry) buildGraph(mesh *readfiles.TriMesh) error {
	g.Nodes = make([]*Node, len(mesh.Verts))
	for i, v := range mesh.Verts {
		g.Nodes[i] = NewNode(v)
		g.nodeIdx[g.Nodes[i]] = i
	}

	wakeIDs := map[int]bool{}
	for _, id := range mesh.SurfIDs {
		if readfiles.IsWakeID(id) {
			wakeIDs[id] = true
		}
	}
	liftIDs := map[int]bool{}
	for id := range wakeIDs {
		liftIDs[id-readfiles.WakeIDBase] = true
	}

	tris := mesh.Tris
	if g.opts.NormFlag {
		tris = g.orientOutward(mesh)
	}

	// Body panels first so trailing-edge classification fires as wake
	// panels attach.
	for i, tri := range tris {
		id := mesh.SurfIDs[i]
		if readfiles.IsWakeID(id) {
			continue
		}
		nodes := []*Node{g.Nodes[tri[0]], g.Nodes[tri[1]], g.Nodes[tri[2]]}
		b, err := NewBodyPanel(nodes, g.panEdges(nodes), id, liftIDs[id])
		if err != nil {
			return fmt.Errorf("body tri %d: %w", i+1, err)
		}
		g.BPanels = append(g.BPanels, b)
	}
	for _, e := range g.Edges {
		e.setNeighbors()
	}
	for i, tri := range tris {
		id := mesh.SurfIDs[i]
		if !readfiles.IsWakeID(id) {
			continue
		}
		nodes := []*Node{g.Nodes[tri[0]], g.Nodes[tri[1]], g.Nodes[tri[2]]}
		w, err := NewWakePanel(nodes, g.panEdges(nodes), id)
		if err != nil {
			return fmt.Errorf("wake tri %d: %w", i+1, err)
		}
		g.WPanels = append(g.WPanels, w)
	}

	g.shortestTE = math.Inf(1)
	for _, e := range g.Edges {
		if e.TE {
			g.shortestTE = math.Min(g.shortestTE, e.Length())
		}
	}

	g.smoothNormals()
	g.markTips()
	for i, b := range g.BPanels {
		b.SetIndex(i)
	}
	return nil
}

// panEdges finds or creates the three edges of a vertex ring, in ring order.
func (g *Geometry) panEdges(nodes []*Node) []*Edge {
	edges := make([]*Edge, len(nodes))
	for i := range nodes {
		edges[i] = g.findEdge(nodes[i], nodes[(i+1)%len(nodes)])
	}
	return edges
}

func (g *Geometry) findEdge(n1, n2 *Node) *Edge {
	i1, i2 := g.nodeIdx[n1], g.nodeIdx[n2]
	if i2 < i1 {
		i1, i2 = i2, i1
	}
	key := [2]int{i1, i2}
	if e, ok := g.edgesByNodes[key]; ok {
		return e
	}
	e := NewEdge(n1, n2)
	g.edgesByNodes[key] = e
	g.Edges = append(g.Edges, e)
	return e
}

// orientOutward flips triangles whose normal points toward the body
// centroid. A centroid heuristic is adequate for the closed single-body
// meshes this solver targets.
func (g *Geometry) orientOutward(mesh *readfiles.TriMesh) [][3]int {
	var centroid r3.Vec
	for _, v := range mesh.Verts {
		centroid = centroid.Add(v)
	}
	centroid = centroid.Scale(1 / float64(len(mesh.Verts)))

	out := make([][3]int, len(mesh.Tris))
	for i, tri := range mesh.Tris {
		out[i] = tri
		if readfiles.IsWakeID(mesh.SurfIDs[i]) {
			continue
		}
		var (
			a   = mesh.Verts[tri[0]]
			b   = mesh.Verts[tri[1]]
			c   = mesh.Verts[tri[2]]
			n   = b.Sub(a).Cross(c.Sub(a))
			ctr = a.Add(b).Add(c).Scale(1.0 / 3)
		)
		if n.Dot(ctr.Sub(centroid)) < 0 {
			out[i] = [3]int{tri[0], tri[2], tri[1]}
		}
	}
	return out
}

// smoothNormals averages panel normals onto nodes and back onto panels,
// standing in for the original surface-fit smoothed normal.
func (g *Geometry) smoothNormals() {
	nodeNorm := make(map[*Node]r3.Vec)
	for _, b := range g.BPanels {
		for _, nd := range b.Nodes {
			nodeNorm[nd] = nodeNorm[nd].Add(b.Normal.Scale(b.Area))
		}
	}
	for _, b := range g.BPanels {
		var sum r3.Vec
		for _, nd := range b.Nodes {
			sum = sum.Add(nodeNorm[nd])
		}
		if r3.Norm(sum) > 0 {
			b.BezNormal = r3.Unit(sum)
		}
	}
}

// markTips flags lifting-surface panels whose normals point mostly
// spanwise; the cluster logic keeps the main surface from reaching across
// them.
func (g *Geometry) markTips() {
	for _, b := range g.BPanels {
		if b.LSFlag && math.Abs(b.Normal.Y) > 0.85 {
			b.TipFlag = true
		}
	}
}

// calcTimeStep derives dt from the trailing-edge panel spacing when the
// case did not fix one.
func (g *Geometry) calcTimeStep() {
	g.Dt = g.opts.Dt
	if g.Dt > 0 || g.opts.InputV == 0 {
		return
	}
	if math.IsInf(g.shortestTE, 1) {
		g.Dt = 0.1
		return
	}
	g.Dt = g.shortestTE / g.opts.InputV
}

// createVPWakeSurfaces replaces the classical wake sheet with one buffer
// row of quadrilateral panels rooted on the trailing edge, projected
// downstream two convection lengths. The classical panels have already
// classified the trailing edge; their upper/lower assignments carry over.
func (g *Geometry) createVPWakeSurfaces() error {
	type teInfo struct {
		edge  *Edge
		id    int
		upper *BodyPanel
		lower *BodyPanel
		norm  r3.Vec
	}
	var tes []teInfo
	for _, e := range g.Edges {
		if e.TE && len(e.WakePans) > 0 {
			w := e.WakePans[0]
			tes = append(tes, teInfo{edge: e, id: w.ID, upper: w.UpperPan, lower: w.LowerPan, norm: w.Normal})
		}
	}
	if len(tes) == 0 {
		return fmt.Errorf("vortex-particle mode: no trailing edges found")
	}

	// Shedding direction per TE node: opposite the mean chordwise
	// direction of the parent panels.
	for _, te := range tes {
		mid := te.edge.MidPoint()
		dir := te.upper.Center.Sub(mid).Add(te.lower.Center.Sub(mid)).Scale(-1)
		dir.Y = 0
		for _, nd := range []*Node{te.edge.N1, te.edge.N2} {
			nd.SetProjDir(dir)
		}
	}

	// Drop the classical sheet
	for _, w := range g.WPanels {
		for _, e := range w.Edges {
			e.removeWakePan(w)
		}
	}
	g.WPanels = nil
	g.Wakes = nil

	var (
		V    = g.opts.InputV
		dt   = g.Dt
		proj = make(map[*Node]*Node)
	)
	projNode := func(nd *Node) *Node {
		if pn, ok := proj[nd]; ok {
			return pn
		}
		pn := NewNode(nd.SecProjNode(dt, V))
		proj[nd] = pn
		g.nodeIdx[pn] = len(g.Nodes)
		g.Nodes = append(g.Nodes, pn)
		return pn
	}
	for _, te := range tes {
		var (
			n0    = te.edge.N1
			n1    = te.edge.N2
			nodes = []*Node{n0, n1, projNode(n1), projNode(n0)}
		)
		// Wind the quad so its normal matches the classical sheet's; the
		// TE pair stays in slots 0,1 and the far corners in 2,3 either way.
		ringNorm := nodes[1].Pnt.Sub(nodes[0].Pnt).Cross(nodes[2].Pnt.Sub(nodes[0].Pnt))
		if ringNorm.Dot(te.norm) < 0 {
			nodes = []*Node{nodes[1], nodes[0], nodes[3], nodes[2]}
		}
		w, err := NewWakePanel(nodes, g.panEdges(nodes), te.id)
		if err != nil {
			return fmt.Errorf("buffer wake on edge at (%.4g,%.4g,%.4g): %w",
				te.edge.MidPoint().X, te.edge.MidPoint().Y, te.edge.MidPoint().Z, err)
		}
		w.setParentPanels(te.upper, te.lower)
		w.TEedge = te.edge
		g.WPanels = append(g.WPanels, w)
	}
	return nil
}

// discoverWakes groups wake panels into sheets by surface id, then merges
// sheets whose streamwise extents coincide.
func (g *Geometry) discoverWakes() {
	g.Wakes = nil
	byID := map[int]*Wake{}
	for _, wp := range g.WPanels {
		wk, ok := byID[wp.ID]
		if !ok {
			wk = newWake(g)
			byID[wp.ID] = wk
			g.Wakes = append(g.Wakes, wk)
		}
		wk.addPanel(wp)
	}
	for i := 0; i < len(g.Wakes); i++ {
		for j := i + 1; j < len(g.Wakes); j++ {
			if g.Wakes[i].isSameWake(g.Wakes[j]) {
				g.Wakes[i].mergeWake(g.Wakes[j])
				g.Wakes = append(g.Wakes[:j], g.Wakes[j+1:]...)
				j--
			}
		}
	}
}

func (g *Geometry) buildWakeLines() {
	for _, wk := range g.Wakes {
		wk.WakeLines = nil
		for _, wp := range wk.Panels {
			if !wp.IsTEpanel() {
				continue
			}
			p1, p2 := wp.TEedge.N1.Pnt, wp.TEedge.N2.Pnt
			if p1.Y > p2.Y {
				p1, p2 = p2, p1
			}
			wk.addWakeLine(&WakeLine{P1: p1, P2: p2, pan: wp})
		}
	}
}

// setInfCoeff assembles the dense doublet (A) and source (B) influence
// matrices, folding each wake panel's Kutta closure into its parents'
// columns. A compatible cache file short-circuits the assembly.
func (g *Geometry) setInfCoeff() error {
	n := len(g.BPanels)
	if n == 0 {
		return fmt.Errorf("geometry: no body panels")
	}
	if g.opts.InfCoeffFile != "" {
		if ok, err := g.readInfCoeff(); err == nil && ok {
			if g.opts.Verbose {
				fmt.Printf("Loaded influence coefficients from %s\n", g.opts.InfCoeffFile)
			}
			return nil
		}
	}
	if g.opts.Verbose {
		fmt.Printf("Computing influence coefficients (%d panels)...\n", n)
	}
	g.A = mat.NewDense(n, n, nil)
	g.B = mat.NewDense(n, n, nil)
	for i, bi := range g.BPanels {
		ci := bi.Center
		for j, bj := range g.BPanels {
			phiSrc, phiDub := bj.PhiInf(ci)
			g.A.Set(i, j, phiDub)
			g.B.Set(i, j, phiSrc)
		}
		for _, wp := range g.WPanels {
			if wp.UpperPan == nil || wp.LowerPan == nil {
				continue
			}
			_, phiDub := wp.PhiInf(ci)
			u, l := wp.UpperPan.Index, wp.LowerPan.Index
			g.A.Set(i, u, g.A.At(i, u)+phiDub)
			g.A.Set(i, l, g.A.At(i, l)-phiDub)
		}
	}
	if g.opts.WriteCoeffFlag && g.opts.InfCoeffFile != "" {
		if err := g.writeInfCoeff(); err != nil {
			return err
		}
	}
	return nil
}

// WakePotential is the potential induced by the wake sheet alone.
func (g *Geometry) WakePotential(pnt r3.Vec) float64 {
	var phi float64
	for _, wp := range g.WPanels {
		phi += wp.PanelPhiDub(pnt)
	}
	return phi
}

// PntPotential is the total potential at a field point.
func (g *Geometry) PntPotential(pnt, Vinf r3.Vec) float64 {
	phi := Vinf.Dot(pnt)
	for _, b := range g.BPanels {
		phi += b.PanelPhi(pnt)
	}
	return phi + g.WakePotential(pnt)
}

// PntVelocity is the velocity at a field point from the freestream and all
// panels, with the perturbation scaled by the Prandtl-Glauert factor.
func (g *Geometry) PntVelocity(pnt, Vinf r3.Vec, PG float64) r3.Vec {
	var pert r3.Vec
	for _, b := range g.BPanels {
		pert = pert.Add(b.PanelV(pnt))
	}
	for _, w := range g.WPanels {
		pert = pert.Add(w.PanelV(pnt))
	}
	return Vinf.Add(pert.Scale(1 / PG))
}

// NodePnts gathers node coordinates with a stable index per node, for the
// mesh-based writers.
func (g *Geometry) NodePnts() (pts []r3.Vec, index map[*Node]int) {
	index = make(map[*Node]int, len(g.Nodes))
	pts = make([]r3.Vec, len(g.Nodes))
	for i, nd := range g.Nodes {
		pts[i] = nd.Pnt
		index[nd] = i
	}
	return
}

func (g *Geometry) GetWakes() []*Wake { return g.Wakes }
