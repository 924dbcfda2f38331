package geometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakeddavis/CPanel/readfiles"
)

func TestInfCoeffRoundTrip(t *testing.T) {
	var (
		mesh  = readfiles.BuildSphereMesh(0)
		fname = filepath.Join(t.TempDir(), "sphere.tri.infCoeff")
	)
	g1, err := NewGeometry(mesh, Options{InfCoeffFile: fname, WriteCoeffFlag: true})
	require.NoError(t, err)
	if _, err := os.Stat(fname); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	// Reload: bit-identical matrices
	g2, err := NewGeometry(mesh, Options{InfCoeffFile: fname})
	require.NoError(t, err)
	assert.Equal(t, g1.A.RawMatrix().Data, g2.A.RawMatrix().Data)
	assert.Equal(t, g1.B.RawMatrix().Data, g2.B.RawMatrix().Data)
}

func TestInfCoeffMismatchIsMiss(t *testing.T) {
	var (
		small = readfiles.BuildSphereMesh(0)
		big   = readfiles.BuildSphereMesh(1)
		fname = filepath.Join(t.TempDir(), "geom.tri.infCoeff")
	)
	_, err := NewGeometry(small, Options{InfCoeffFile: fname, WriteCoeffFlag: true})
	require.NoError(t, err)

	// A different panel count silently recomputes
	g, err := NewGeometry(big, Options{InfCoeffFile: fname})
	require.NoError(t, err)
	n, _ := g.A.Dims()
	assert.Equal(t, len(big.Tris), n)

	// Garbage contents are also a miss
	require.NoError(t, os.WriteFile(fname, []byte("not a cache"), 0644))
	_, err = NewGeometry(small, Options{InfCoeffFile: fname})
	assert.NoError(t, err)
}
