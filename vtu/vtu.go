// Package vtu writes VTK XML unstructured-grid files (.vtu) with one or
// more pieces, covering the surface, wake, filament and particle outputs.
package vtu

import (
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// VTK cell type ids used by the solver outputs.
const (
	CellVertex   = 1
	CellLine     = 3
	CellTriangle = 5
	CellQuad     = 9
)

// DataArray is one named cell- or point-attached field. NumComponents is 1
// for scalars and 3 for vectors; Data is laid out row-major per cell/point.
type DataArray struct {
	Name          string
	NumComponents int
	Data          []float64
}

// Piece is one <Piece> of an unstructured grid: a point set plus uniform
// cells and their attached data.
type Piece struct {
	Points       []r3.Vec
	Connectivity [][]int
	CellType     int
	CellData     []DataArray
	PointData    []DataArray
}

// Write emits the pieces as one ascii .vtu file.
func Write(fname string, pieces ...Piece) error {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?>\n")
	b.WriteString("<VTKFile type=\"UnstructuredGrid\" version=\"0.1\" byte_order=\"LittleEndian\">\n")
	b.WriteString("  <UnstructuredGrid>\n")
	for i := range pieces {
		writePiece(&b, &pieces[i])
	}
	b.WriteString("  </UnstructuredGrid>\n")
	b.WriteString("</VTKFile>\n")
	return os.WriteFile(fname, []byte(b.String()), 0644)
}

func writePiece(b *strings.Builder, p *Piece) {
	fmt.Fprintf(b, "    <Piece NumberOfPoints=\"%d\" NumberOfCells=\"%d\">\n",
		len(p.Points), len(p.Connectivity))

	b.WriteString("      <Points>\n")
	b.WriteString("        <DataArray type=\"Float64\" NumberOfComponents=\"3\" format=\"ascii\">\n")
	for _, pt := range p.Points {
		fmt.Fprintf(b, "          %.12g %.12g %.12g\n", pt.X, pt.Y, pt.Z)
	}
	b.WriteString("        </DataArray>\n")
	b.WriteString("      </Points>\n")

	b.WriteString("      <Cells>\n")
	b.WriteString("        <DataArray type=\"Int32\" Name=\"connectivity\" format=\"ascii\">\n")
	for _, cell := range p.Connectivity {
		b.WriteString("         ")
		for _, v := range cell {
			fmt.Fprintf(b, " %d", v)
		}
		b.WriteString("\n")
	}
	b.WriteString("        </DataArray>\n")
	b.WriteString("        <DataArray type=\"Int32\" Name=\"offsets\" format=\"ascii\">\n")
	offset := 0
	for _, cell := range p.Connectivity {
		offset += len(cell)
		fmt.Fprintf(b, "          %d\n", offset)
	}
	b.WriteString("        </DataArray>\n")
	b.WriteString("        <DataArray type=\"UInt8\" Name=\"types\" format=\"ascii\">\n")
	for range p.Connectivity {
		fmt.Fprintf(b, "          %d\n", p.CellType)
	}
	b.WriteString("        </DataArray>\n")
	b.WriteString("      </Cells>\n")

	writeDataArrays(b, "CellData", p.CellData)
	writeDataArrays(b, "PointData", p.PointData)
	b.WriteString("    </Piece>\n")
}

func writeDataArrays(b *strings.Builder, section string, arrays []DataArray) {
	if len(arrays) == 0 {
		return
	}
	fmt.Fprintf(b, "      <%s>\n", section)
	for _, da := range arrays {
		nc := da.NumComponents
		if nc == 0 {
			nc = 1
		}
		fmt.Fprintf(b, "        <DataArray type=\"Float64\" Name=\"%s\" NumberOfComponents=\"%d\" format=\"ascii\">\n",
			da.Name, nc)
		for i := 0; i < len(da.Data); i += nc {
			b.WriteString("         ")
			for j := 0; j < nc; j++ {
				fmt.Fprintf(b, " %.12g", da.Data[i+j])
			}
			b.WriteString("\n")
		}
		b.WriteString("        </DataArray>\n")
	}
	fmt.Fprintf(b, "      </%s>\n", section)
}
