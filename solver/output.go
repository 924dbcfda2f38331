package solver

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/jakeddavis/CPanel/vtu"
)

// writeFiles emits the per-step artifacts under the case directory
// ./V<V>_Mach<M>_alpha<a>_beta<b>/. An unwritable output directory is a
// hard failure.
func (c *Case) writeFiles() {
	subdir := fmt.Sprintf("V%g_Mach%g_alpha%g_beta%g", c.Vmag, c.Mach, c.Alpha, c.Beta)
	if err := os.MkdirAll(subdir, 0755); err != nil {
		panic(fmt.Errorf("unable to create output directory %s: %w", subdir, err))
	}
	c.writeBodyData(subdir)
	if len(c.Geom.GetWakes()) > 0 {
		c.writeWakeData(subdir)
		c.writeSpanwiseData(subdir)
	}
	if c.Params.VortexParticles && c.TimeStep > 0 {
		c.writeParticleData(subdir)
		c.writeFilamentData(subdir)
	}
	if c.Params.SurfStreamFlag && len(c.streamlines) > 0 {
		c.writeBodyStreamlines(subdir)
	}
}

func (c *Case) writeBodyData(subdir string) {
	var (
		pts, nodeIdx = c.Geom.NodePnts()
		bPanels      = c.Geom.BPanels
		n            = len(bPanels)
		mu           = vtu.DataArray{Name: "Doublet Strengths", NumComponents: 1, Data: make([]float64, n)}
		sigma        = vtu.DataArray{Name: "Source Strengths", NumComponents: 1, Data: make([]float64, n)}
		pot          = vtu.DataArray{Name: "Velocity Potential", NumComponents: 1, Data: make([]float64, n)}
		vel          = vtu.DataArray{Name: "Velocity", NumComponents: 3, Data: make([]float64, 3*n)}
		cp           = vtu.DataArray{Name: "Cp", NumComponents: 1, Data: make([]float64, n)}
		bn           = vtu.DataArray{Name: "bezNormals", NumComponents: 3, Data: make([]float64, 3*n)}
		ctr          = vtu.DataArray{Name: "centroid", NumComponents: 3, Data: make([]float64, 3*n)}
		con          = make([][]int, n)
	)
	for i, b := range bPanels {
		mu.Data[i] = b.GetMu()
		sigma.Data[i] = b.GetSigma()
		pot.Data[i] = b.Potential
		v := b.GetGlobalV()
		vel.Data[3*i], vel.Data[3*i+1], vel.Data[3*i+2] = v.X, v.Y, v.Z
		cp.Data[i] = b.GetCp()
		bn.Data[3*i], bn.Data[3*i+1], bn.Data[3*i+2] = b.BezNormal.X, b.BezNormal.Y, b.BezNormal.Z
		ctr.Data[3*i], ctr.Data[3*i+1], ctr.Data[3*i+2] = b.Center.X, b.Center.Y, b.Center.Z
		cell := make([]int, len(b.Nodes))
		for j, nd := range b.Nodes {
			cell[j] = nodeIdx[nd]
		}
		con[i] = cell
	}
	piece := vtu.Piece{
		Points:       pts,
		Connectivity: con,
		CellType:     vtu.CellTriangle,
		CellData:     []vtu.DataArray{mu, sigma, pot, vel, cp, bn, ctr},
	}
	fname := filepath.Join(subdir, fmt.Sprintf("surfaceData-%d.vtu", c.TimeStep))
	if err := vtu.Write(fname, piece); err != nil {
		panic(err)
	}
}

func (c *Case) writeWakeData(subdir string) {
	var (
		pts, nodeIdx = c.Geom.NodePnts()
		wPanels      = c.Geom.WPanels
		n            = len(wPanels)
		mu           = vtu.DataArray{Name: "Doublet Strengths", NumComponents: 1, Data: make([]float64, n)}
		pot          = vtu.DataArray{Name: "Velocity Potential", NumComponents: 1, Data: make([]float64, n)}
		con          = make([][]int, n)
		cellType     = vtu.CellTriangle
	)
	if c.Params.VortexParticles {
		cellType = vtu.CellQuad
	}
	for i, w := range wPanels {
		mu.Data[i] = w.GetMu()
		pot.Data[i] = w.Potential
		cell := make([]int, len(w.Nodes))
		for j, nd := range w.Nodes {
			cell[j] = nodeIdx[nd]
		}
		con[i] = cell
	}
	piece := vtu.Piece{
		Points:       pts,
		Connectivity: con,
		CellType:     cellType,
		CellData:     []vtu.DataArray{mu, pot},
	}
	fname := filepath.Join(subdir, fmt.Sprintf("wakeData-%d.vtu", c.TimeStep))
	if err := vtu.Write(fname, piece); err != nil {
		panic(err)
	}
}

func (c *Case) writeFilamentData(subdir string) {
	var (
		n     = len(c.Filaments)
		pts   = make([]r3.Vec, 2*n)
		con   = make([][]int, n)
		gamma = vtu.DataArray{Name: "Gamma", NumComponents: 1, Data: make([]float64, n)}
	)
	for i, f := range c.Filaments {
		pts[2*i] = f.P1
		pts[2*i+1] = f.P2
		con[i] = []int{2 * i, 2*i + 1}
		gamma.Data[i] = f.Strength
	}
	piece := vtu.Piece{
		Points:       pts,
		Connectivity: con,
		CellType:     vtu.CellLine,
		CellData:     []vtu.DataArray{gamma},
	}
	fname := filepath.Join(subdir, fmt.Sprintf("filaments-%d.vtu", c.TimeStep))
	if err := vtu.Write(fname, piece); err != nil {
		panic(err)
	}
}

func (c *Case) writeParticleData(subdir string) {
	var (
		n        = len(c.Particles)
		pts      = make([]r3.Vec, n)
		con      = make([][]int, n)
		strength = vtu.DataArray{Name: "Strength", NumComponents: 3, Data: make([]float64, 3*n)}
	)
	for i, p := range c.Particles {
		pts[i] = p.Pos
		con[i] = []int{i}
		strength.Data[3*i] = p.Strength.X
		strength.Data[3*i+1] = p.Strength.Y
		strength.Data[3*i+2] = p.Strength.Z
	}
	piece := vtu.Piece{
		Points:       pts,
		Connectivity: con,
		CellType:     vtu.CellVertex,
		CellData:     []vtu.DataArray{strength},
	}
	fname := filepath.Join(subdir, fmt.Sprintf("particleData-%d.vtu", c.TimeStep))
	if err := vtu.Write(fname, piece); err != nil {
		panic(err)
	}
}

func (c *Case) writeSpanwiseData(subdir string) {
	for k, w := range c.Geom.GetWakes() {
		var (
			spanLoc = w.SpanwisePnts()
			cl      = w.SpanwiseCl()
			cd      = w.SpanwiseCd()
		)
		fname := filepath.Join(subdir, fmt.Sprintf("spanwiseData_Wake%d.csv", k+1))
		f, err := os.Create(fname)
		if err != nil {
			panic(fmt.Errorf("unable to write %s: %w", fname, err))
		}
		fmt.Fprintln(f, "2y/b,Cl,Cdi")
		for i := range spanLoc {
			fmt.Fprintf(f, "%g,%g,%g\n", 2*spanLoc[i]/c.Params.Bref, cl[i]/c.PG, cd[i]/(c.PG*c.PG))
		}
		f.Close()
	}
}

func (c *Case) writeBodyStreamlines(subdir string) {
	var pieces []vtu.Piece
	for _, s := range c.streamlines {
		if len(s.Pnts) < 2 {
			continue
		}
		var (
			con = make([][]int, len(s.Pnts)-1)
			vel = vtu.DataArray{Name: "Velocity", NumComponents: 3, Data: make([]float64, 3*len(s.Pnts))}
		)
		for j := range s.Pnts {
			vel.Data[3*j] = s.Velocities[j].X
			vel.Data[3*j+1] = s.Velocities[j].Y
			vel.Data[3*j+2] = s.Velocities[j].Z
			if j < len(con) {
				con[j] = []int{j, j + 1}
			}
		}
		pieces = append(pieces, vtu.Piece{
			Points:       s.Pnts,
			Connectivity: con,
			CellType:     vtu.CellLine,
			PointData:    []vtu.DataArray{vel},
		})
	}
	if len(pieces) == 0 {
		return
	}
	fname := filepath.Join(subdir, "streamlines.vtu")
	if err := vtu.Write(fname, pieces...); err != nil {
		panic(err)
	}
}
