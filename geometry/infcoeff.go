package geometry

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// infCoeffMagic identifies an influence-coefficient cache file.
const infCoeffMagic uint32 = 0x43504e4c // "CPNL"

// readInfCoeff loads A and B from the cache file. Any incompatibility
// (missing file, wrong magic, panel-count mismatch) is a cache miss, not an
// error: the matrices are recomputed.
func (g *Geometry) readInfCoeff() (ok bool, err error) {
	f, err := os.Open(g.opts.InfCoeffFile)
	if err != nil {
		return false, nil
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var (
		magic        uint32
		nBody, nWake int64
	)
	if err = binary.Read(r, binary.LittleEndian, &magic); err != nil || magic != infCoeffMagic {
		return false, nil
	}
	if err = binary.Read(r, binary.LittleEndian, &nBody); err != nil {
		return false, nil
	}
	if err = binary.Read(r, binary.LittleEndian, &nWake); err != nil {
		return false, nil
	}
	if int(nBody) != len(g.BPanels) || int(nWake) != len(g.WPanels) {
		return false, nil
	}
	n := int(nBody)
	a := make([]float64, n*n)
	b := make([]float64, n*n)
	if err = binary.Read(r, binary.LittleEndian, a); err != nil {
		return false, nil
	}
	if err = binary.Read(r, binary.LittleEndian, b); err != nil {
		return false, nil
	}
	g.A = mat.NewDense(n, n, a)
	g.B = mat.NewDense(n, n, b)
	return true, nil
}

// writeInfCoeff persists A and B row-major in double precision behind a
// (magic, nBody, nWake) header.
func (g *Geometry) writeInfCoeff() error {
	f, err := os.Create(g.opts.InfCoeffFile)
	if err != nil {
		return fmt.Errorf("unable to write influence coefficients to %s: %w", g.opts.InfCoeffFile, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if err = binary.Write(w, binary.LittleEndian, infCoeffMagic); err != nil {
		return err
	}
	if err = binary.Write(w, binary.LittleEndian, int64(len(g.BPanels))); err != nil {
		return err
	}
	if err = binary.Write(w, binary.LittleEndian, int64(len(g.WPanels))); err != nil {
		return err
	}
	if err = binary.Write(w, binary.LittleEndian, g.A.RawMatrix().Data); err != nil {
		return err
	}
	if err = binary.Write(w, binary.LittleEndian, g.B.RawMatrix().Data); err != nil {
		return err
	}
	return w.Flush()
}
