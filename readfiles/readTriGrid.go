package readfiles

import (
	"bufio"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

// TriMesh is the contents of a Cart3D style .tri file: a triangulated
// surface with one component id per triangle. Connectivity is stored
// 0-based; surface ids at or above WakeIDBase mark wake-emitting surfaces.
type TriMesh struct {
	Verts   []r3.Vec
	Tris    [][3]int
	SurfIDs []int
}

// WakeIDBase is the conventional first surface id designating a
// wake-emitting (lifting) surface in the .tri file.
const WakeIDBase = 10000

// ReadTri reads a Cart3D .tri file: a header line with the node and
// triangle counts, nNodes lines of "x y z", nTris lines of 1-based vertex
// indices, and nTris surface ids.
func ReadTri(filename string, verbose bool) (mesh *TriMesh, err error) {
	var (
		file *os.File
	)
	if verbose {
		fmt.Printf("Reading tri file named: %s\n", filename)
	}
	if file, err = os.Open(filename); err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()
	reader := bufio.NewReader(file)

	var nNodes, nTris int
	if _, err = fmt.Fscan(reader, &nNodes, &nTris); err != nil {
		return nil, fmt.Errorf("%s: malformed header: %w", filename, err)
	}
	if nNodes <= 0 || nTris <= 0 {
		return nil, fmt.Errorf("%s: inconsistent header: %d nodes, %d tris", filename, nNodes, nTris)
	}

	mesh = &TriMesh{
		Verts:   make([]r3.Vec, nNodes),
		Tris:    make([][3]int, nTris),
		SurfIDs: make([]int, nTris),
	}
	for i := 0; i < nNodes; i++ {
		if _, err = fmt.Fscan(reader, &mesh.Verts[i].X, &mesh.Verts[i].Y, &mesh.Verts[i].Z); err != nil {
			return nil, fmt.Errorf("%s: node %d: %w", filename, i+1, err)
		}
	}
	for i := 0; i < nTris; i++ {
		var i1, i2, i3 int
		if _, err = fmt.Fscan(reader, &i1, &i2, &i3); err != nil {
			return nil, fmt.Errorf("%s: tri %d: %w", filename, i+1, err)
		}
		if i1 < 1 || i1 > nNodes || i2 < 1 || i2 > nNodes || i3 < 1 || i3 > nNodes {
			return nil, fmt.Errorf("%s: tri %d: vertex index out of range", filename, i+1)
		}
		if i1 == i2 || i2 == i3 || i1 == i3 {
			return nil, fmt.Errorf("%s: tri %d: degenerate triangle (repeated vertex)", filename, i+1)
		}
		mesh.Tris[i] = [3]int{i1 - 1, i2 - 1, i3 - 1}
	}
	for i := 0; i < nTris; i++ {
		if _, err = fmt.Fscan(reader, &mesh.SurfIDs[i]); err != nil {
			return nil, fmt.Errorf("%s: surface id %d: %w", filename, i+1, err)
		}
	}

	if verbose {
		fmt.Printf("Nv = %d, K = %d\n", nNodes, nTris)
		var xMin, xMax = mesh.Verts[0].X, mesh.Verts[0].X
		var yMin, yMax = mesh.Verts[0].Y, mesh.Verts[0].Y
		var zMin, zMax = mesh.Verts[0].Z, mesh.Verts[0].Z
		for _, v := range mesh.Verts {
			xMin, xMax = min(xMin, v.X), max(xMax, v.X)
			yMin, yMax = min(yMin, v.Y), max(yMax, v.Y)
			zMin, zMax = min(zMin, v.Z), max(zMax, v.Z)
		}
		fmt.Printf("Bounding Box:\nXMin/XMax = %5.3f, %5.3f\nYMin/YMax = %5.3f, %5.3f\nZMin/ZMax = %5.3f, %5.3f\n",
			xMin, xMax, yMin, yMax, zMin, zMax)
	}
	return mesh, nil
}

// IsWakeID reports whether a surface id designates a wake-emitting surface.
func IsWakeID(id int) bool { return id >= WakeIDBase }
