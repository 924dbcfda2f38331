package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/jakeddavis/CPanel/readfiles"
)

func sphereGeom(t *testing.T, nSub int) *Geometry {
	t.Helper()
	g, err := NewGeometry(readfiles.BuildSphereMesh(nSub), Options{})
	require.NoError(t, err)
	return g
}

func wingGeom(t *testing.T, nSpan int, vp bool) *Geometry {
	t.Helper()
	g, err := NewGeometry(readfiles.BuildWingMesh(nSpan), Options{
		VortexParticles: vp,
		Dt:              0.05,
		InputV:          1,
	})
	require.NoError(t, err)
	return g
}

func TestSphereGraph(t *testing.T) {
	g := sphereGeom(t, 1)
	assert.Equal(t, 80, len(g.BPanels))
	assert.Empty(t, g.WPanels)
	assert.Empty(t, g.Wakes)

	// Closed triangulation: every edge borders exactly two body panels,
	// E = 3/2 T
	assert.Equal(t, 120, len(g.Edges))
	for _, e := range g.Edges {
		assert.Equal(t, 2, len(e.BodyPans))
		assert.False(t, e.TE)
	}
	// Outward normals everywhere on the unit sphere
	for _, b := range g.BPanels {
		assert.Greater(t, b.Normal.Dot(b.Center), 0.9)
	}
	// Gauss: the area-weighted normals of a closed body sum to zero
	var sum r3.Vec
	for _, b := range g.BPanels {
		sum = sum.Add(b.Normal.Scale(b.Area))
	}
	assert.InDelta(t, 0, r3.Norm(sum), 1.e-10)
}

func TestSphereInfluenceMatrix(t *testing.T) {
	g := sphereGeom(t, 0) // 20 panels keeps the dense assembly cheap
	n := len(g.BPanels)
	rows, cols := g.A.Dims()
	assert.Equal(t, n, rows)
	assert.Equal(t, n, cols)
	for i := 0; i < n; i++ {
		assert.InDelta(t, 2*math.Pi, g.A.At(i, i), 1.e-10)
	}
}

func TestWingTrailingEdge(t *testing.T) {
	g := wingGeom(t, 4, false)

	// One TE edge per spanwise strip
	nTE := 0
	for _, e := range g.Edges {
		if e.TE && len(e.WakePans) > 0 {
			nTE++
			require.Equal(t, 2, len(e.BodyPans))
			require.Equal(t, 1, len(e.WakePans))
		}
	}
	assert.Equal(t, 4, nTE)

	// Every wake panel with parents satisfies the upper/lower assignment:
	// the upper parent sits above the sheet
	for _, w := range g.WPanels {
		if w.UpperPan == nil {
			continue
		}
		assert.Greater(t, w.UpperPan.Center.Z, w.LowerPan.Center.Z)
		assert.True(t, w.UpperPan.Upper)
		assert.True(t, w.LowerPan.Lower)
	}

	// One wake discovered, spanning the full wing
	require.Equal(t, 1, len(g.Wakes))
	wk := g.Wakes[0]
	assert.InDelta(t, -1, wk.YMin, 1.e-12)
	assert.InDelta(t, 1, wk.YMax, 1.e-12)
	assert.Equal(t, 4, len(wk.WakeLines))
}

func TestWingVPBufferWake(t *testing.T) {
	g := wingGeom(t, 4, true)

	// The classical sheet is replaced by one quad buffer panel per TE edge
	require.Equal(t, 4, len(g.WPanels))
	for _, w := range g.WPanels {
		assert.Equal(t, 4, len(w.Nodes))
		require.NotNil(t, w.UpperPan)
		require.NotNil(t, w.LowerPan)
		require.NotNil(t, w.TEedge)

		// Points in order: TE nodes first, projected far corners after,
		// two convection lengths downstream
		pts := w.PointsInOrder()
		assert.True(t, pts[0].TE)
		assert.True(t, pts[1].TE)
		dx := pts[2].Pnt.X - pts[1].Pnt.X
		assert.InDelta(t, 2*1*0.05, dx, 1.e-10)
	}

	// Side edges are shared between adjacent buffer panels
	shared := 0
	for _, e := range g.Edges {
		if len(e.WakePans) == 2 {
			shared++
		}
	}
	assert.Equal(t, 3, shared)
}

func TestWingClusters(t *testing.T) {
	g := wingGeom(t, 4, false)
	for _, b := range g.BPanels {
		assert.GreaterOrEqual(t, len(b.cluster), 2)
		for _, cl := range b.cluster {
			// The trailing-edge split is respected
			if b.Upper {
				assert.False(t, cl.Lower)
			}
			if b.Lower {
				assert.False(t, cl.Upper)
			}
		}
	}
}

func TestWakeStrengthInterpolation(t *testing.T) {
	g := wingGeom(t, 4, false)
	wk := g.Wakes[0]

	// Give the wake lines a known linear strength ramp through their TE
	// panels
	for _, wl := range wk.WakeLines {
		wl.pan.Mu = 2 * wl.Y()
	}
	assert.InDelta(t, 2*0.1, wk.wakeStrength(0.1), 0.3)
	// Piecewise-linear interpolation is exact at line centers
	y0 := wk.WakeLines[1].Y()
	assert.InDelta(t, 2*y0, wk.wakeStrength(y0), 1.e-12)
}

func TestDegenerateMeshRejected(t *testing.T) {
	mesh := &readfiles.TriMesh{
		Verts:   []r3.Vec{{X: 0}, {X: 1}, {X: 2}},
		Tris:    [][3]int{{0, 1, 2}}, // collinear: zero area
		SurfIDs: []int{1},
	}
	_, err := NewGeometry(mesh, Options{})
	assert.Error(t, err)
}
