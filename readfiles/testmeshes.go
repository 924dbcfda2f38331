package readfiles

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Analytic meshes used by the test suites: a unit icosphere for the closed
// body invariants and a diamond-section wing with a shed wake sheet for the
// lifting cases.

// BuildSphereMesh returns a unit sphere triangulated by subdividing an
// icosahedron nSub times, with outward-ordered triangles and surface id 1.
func BuildSphereMesh(nSub int) *TriMesh {
	var (
		phi   = (1 + math.Sqrt(5)) / 2
		verts = []r3.Vec{
			{X: -1, Y: phi}, {X: 1, Y: phi}, {X: -1, Y: -phi}, {X: 1, Y: -phi},
			{Y: -1, Z: phi}, {Y: 1, Z: phi}, {Y: -1, Z: -phi}, {Y: 1, Z: -phi},
			{X: phi, Z: -1}, {X: phi, Z: 1}, {X: -phi, Z: -1}, {X: -phi, Z: 1},
		}
		tris = [][3]int{
			{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
			{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
			{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
			{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
		}
	)
	for i := range verts {
		verts[i] = r3.Unit(verts[i])
	}
	for s := 0; s < nSub; s++ {
		var (
			next   [][3]int
			midIdx = map[[2]int]int{}
		)
		midpnt := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if idx, ok := midIdx[key]; ok {
				return idx
			}
			m := r3.Unit(verts[a].Add(verts[b]).Scale(0.5))
			verts = append(verts, m)
			midIdx[key] = len(verts) - 1
			return len(verts) - 1
		}
		for _, t := range tris {
			var (
				ab = midpnt(t[0], t[1])
				bc = midpnt(t[1], t[2])
				ca = midpnt(t[2], t[0])
			)
			next = append(next,
				[3]int{t[0], ab, ca}, [3]int{t[1], bc, ab},
				[3]int{t[2], ca, bc}, [3]int{ab, bc, ca})
		}
		tris = next
	}
	mesh := &TriMesh{Verts: verts, Tris: tris, SurfIDs: make([]int, len(tris))}
	for i := range mesh.SurfIDs {
		mesh.SurfIDs[i] = 1
	}
	return mesh
}

// BuildWingMesh returns a closed diamond-section wing of span 2 and chord
// 0.5 (aspect ratio 4, reference area 1) with nSpan spanwise strips, tip
// caps, and a classical wake sheet of id 10001 trailing three chords
// downstream. With nSpan = 4 the body has the canonical 32 main-surface
// panels plus the caps.
func BuildWingMesh(nSpan int) *TriMesh {
	const (
		chord = 0.5
		semi  = 1.0
		thick = 0.06 * chord // half thickness
		wakeL = 3 * chord
	)
	mesh := &TriMesh{}
	addVert := func(x, y, z float64) int {
		mesh.Verts = append(mesh.Verts, r3.Vec{X: x, Y: y, Z: z})
		return len(mesh.Verts) - 1
	}
	addTri := func(a, b, c, id int) {
		mesh.Tris = append(mesh.Tris, [3]int{a, b, c})
		mesh.SurfIDs = append(mesh.SurfIDs, id)
	}

	// Section rings: LE, upper ridge, TE, lower ridge per station
	type ring struct{ le, up, te, lo int }
	rings := make([]ring, nSpan+1)
	for k := 0; k <= nSpan; k++ {
		y := -semi + 2*semi*float64(k)/float64(nSpan)
		rings[k] = ring{
			le: addVert(0, y, 0),
			up: addVert(0.5*chord, y, thick),
			te: addVert(chord, y, 0),
			lo: addVert(0.5*chord, y, -thick),
		}
	}
	// Quads between stations, split into two triangles each, ordered so the
	// normals point out of the body.
	for k := 0; k < nSpan; k++ {
		a, b := rings[k], rings[k+1]
		quad := func(p0, p1, p2, p3 int) {
			addTri(p0, p1, p2, 1)
			addTri(p0, p2, p3, 1)
		}
		quad(a.le, a.up, b.up, b.le) // forward upper
		quad(a.up, a.te, b.te, b.up) // aft upper
		quad(a.te, a.lo, b.lo, b.te) // aft lower
		quad(a.lo, a.le, b.le, b.lo) // forward lower
	}
	// Tip caps
	addTri(rings[0].le, rings[0].te, rings[0].up, 1)
	addTri(rings[0].le, rings[0].lo, rings[0].te, 1)
	last := rings[nSpan]
	addTri(last.le, last.up, last.te, 1)
	addTri(last.le, last.te, last.lo, 1)

	// Classical wake sheet off the trailing edge
	wakeFar := make([]int, nSpan+1)
	for k := 0; k <= nSpan; k++ {
		y := -semi + 2*semi*float64(k)/float64(nSpan)
		wakeFar[k] = addVert(chord+wakeL, y, 0)
	}
	for k := 0; k < nSpan; k++ {
		var (
			te1, te2 = rings[k].te, rings[k+1].te
			f1, f2   = wakeFar[k], wakeFar[k+1]
		)
		addTri(te1, f1, f2, 10001)
		addTri(te1, f2, te2, 10001)
	}
	return mesh
}
