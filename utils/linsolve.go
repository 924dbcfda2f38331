package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LinearSolver solves the dense system A x = b and reports the relative
// residual |A x - b| / |b|. Implementations must not modify A or b.
type LinearSolver interface {
	Solve(A *mat.Dense, b *mat.VecDense) (x *mat.VecDense, residual float64, err error)
}

// BiCGStab is an unpreconditioned biconjugate gradient stabilized solver
// for dense non-symmetric systems, matching the iterative solve used for
// the doublet influence system.
type BiCGStab struct {
	Tol     float64 // declared converged when relative residual falls below Tol
	MaxIter int     // 0 means 2*n
}

func NewBiCGStab() *BiCGStab {
	return &BiCGStab{Tol: 1.e-10}
}

func (s *BiCGStab) Solve(A *mat.Dense, b *mat.VecDense) (x *mat.VecDense, residual float64, err error) {
	var (
		n, nc = A.Dims()
	)
	if n != nc {
		return nil, 0, fmt.Errorf("bicgstab: matrix is %dx%d, need square", n, nc)
	}
	if b.Len() != n {
		return nil, 0, fmt.Errorf("bicgstab: rhs length %d does not match matrix size %d", b.Len(), n)
	}
	maxIter := s.MaxIter
	if maxIter == 0 {
		maxIter = 2 * n
	}
	bNorm := mat.Norm(b, 2)
	x = mat.NewVecDense(n, nil)
	if bNorm == 0 {
		return x, 0, nil
	}

	r := mat.NewVecDense(n, nil)
	r.CopyVec(b) // x0 = 0, so r0 = b
	rHat := mat.NewVecDense(n, nil)
	rHat.CopyVec(r)
	p := mat.NewVecDense(n, nil)
	p.CopyVec(r)

	v := mat.NewVecDense(n, nil)
	ss := mat.NewVecDense(n, nil)
	t := mat.NewVecDense(n, nil)

	rho := mat.Dot(rHat, r)
	for iter := 0; iter < maxIter; iter++ {
		v.MulVec(A, p)
		denom := mat.Dot(rHat, v)
		if denom == 0 {
			break
		}
		alpha := rho / denom
		ss.AddScaledVec(r, -alpha, v)
		if mat.Norm(ss, 2)/bNorm < s.Tol {
			x.AddScaledVec(x, alpha, p)
			break
		}
		t.MulVec(A, ss)
		tt := mat.Dot(t, t)
		if tt == 0 {
			x.AddScaledVec(x, alpha, p)
			break
		}
		omega := mat.Dot(t, ss) / tt
		x.AddScaledVec(x, alpha, p)
		x.AddScaledVec(x, omega, ss)
		r.AddScaledVec(ss, -omega, t)
		if mat.Norm(r, 2)/bNorm < s.Tol {
			break
		}
		rhoNext := mat.Dot(rHat, r)
		if rhoNext == 0 || omega == 0 {
			break
		}
		beta := (rhoNext / rho) * (alpha / omega)
		rho = rhoNext
		// p = r + beta*(p - omega*v)
		p.AddScaledVec(p, -omega, v)
		p.ScaleVec(beta, p)
		p.AddVec(p, r)
	}

	residual = relResidual(A, x, b, bNorm)
	return x, residual, nil
}

// LU is a direct dense solver, the small-case alternative behind the same
// contract.
type LU struct{}

func (LU) Solve(A *mat.Dense, b *mat.VecDense) (x *mat.VecDense, residual float64, err error) {
	var (
		n, _ = A.Dims()
		lu   mat.LU
	)
	lu.Factorize(A)
	x = mat.NewVecDense(n, nil)
	if err = lu.SolveVecTo(x, false, b); err != nil {
		return nil, math.Inf(1), err
	}
	residual = relResidual(A, x, b, mat.Norm(b, 2))
	return x, residual, nil
}

func relResidual(A *mat.Dense, x, b *mat.VecDense, bNorm float64) float64 {
	if bNorm == 0 {
		return 0
	}
	var (
		n, _ = A.Dims()
		res  = mat.NewVecDense(n, nil)
	)
	res.MulVec(A, x)
	res.SubVec(res, b)
	return mat.Norm(res, 2) / bNorm
}
