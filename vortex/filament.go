package vortex

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Filament is a straight vortex segment. It represents the upstream edge of
// the most recently shed particle row and is restrengthened in place each
// step.
type Filament struct {
	P1, P2   r3.Vec
	Strength float64

	// ParentPanel indexes the wake panel the filament was emitted from.
	ParentPanel int
}

func NewFilament(p1, p2 r3.Vec, strength float64, parentPanel int) *Filament {
	return &Filament{P1: p1, P2: p2, Strength: strength, ParentPanel: parentPanel}
}

func (f *Filament) SetStrength(s float64) { f.Strength = s }

// VelInfl is the Biot-Savart velocity of the segment at POI. Points on the
// segment line see no contribution.
func (f *Filament) VelInfl(POI r3.Vec) r3.Vec {
	var (
		r1  = POI.Sub(f.P1)
		r2  = POI.Sub(f.P2)
		r1n = r3.Norm(r1)
		r2n = r3.Norm(r2)
	)
	if r1n == 0 || r2n == 0 {
		return r3.Vec{}
	}
	cr := r1.Cross(r2)
	den := r1n*r2n*(r1n*r2n+r1.Dot(r2))
	if math.Abs(den) < 1.e-12 {
		return r3.Vec{}
	}
	return cr.Scale(f.Strength / (4 * math.Pi) * (r1n + r2n) / den)
}
