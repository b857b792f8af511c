// Package epipolar computes the epipolar curves of a pair of generic central cameras and walks
// them pixel by pixel. With non pinhole models the locus of the correspondences of a pixel is a
// curve; it is approximated by a conic fitted through the epipole and the projection at infinity.
package epipolar

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// quadraticPenalty weighs the quadratic coefficients down so that collinear data fits as a line.
const quadraticPenalty = 1e-8

// tangentWeight weighs the tangent constraint against the sample residuals.
const tangentWeight = 10

// Polynomial2 is the implicit conic kuu u^2 + kuv uv + kvv v^2 + ku u + kv v + k1 = 0.
type Polynomial2 struct {
	KUU, KUV, KVV float64
	KU, KV, K1    float64
}

// Eval returns the value of the polynomial at pt.
func (p Polynomial2) Eval(pt r2.Point) float64 {
	u, v := pt.X, pt.Y
	return p.KUU*u*u + p.KUV*u*v + p.KVV*v*v + p.KU*u + p.KV*v + p.K1
}

// Gradient returns the partial derivatives at pt.
func (p Polynomial2) Gradient(pt r2.Point) r2.Point {
	return r2.Point{
		X: 2*p.KUU*pt.X + p.KUV*pt.Y + p.KU,
		Y: p.KUV*pt.X + 2*p.KVV*pt.Y + p.KV,
	}
}

// Scale multiplies every coefficient by k.
func (p Polynomial2) Scale(k float64) Polynomial2 {
	return Polynomial2{p.KUU * k, p.KUV * k, p.KVV * k, p.KU * k, p.KV * k, p.K1 * k}
}

// Normalized scales the polynomial to a unit gradient at ref, so that near ref its value is the
// signed distance to the curve in pixels. A polynomial with a null gradient at ref is returned
// unchanged.
func (p Polynomial2) Normalized(ref r2.Point) Polynomial2 {
	norm := p.Gradient(ref).Norm()
	if norm < 1e-12 {
		return p
	}
	return p.Scale(1 / norm)
}

func monomials(pt r2.Point) []float64 {
	return []float64{pt.X * pt.X, pt.X * pt.Y, pt.Y * pt.Y, pt.X, pt.Y, 1}
}

// FitPolynomial2 fits a conic that passes exactly through the anchors (at most 4 of them) and
// approximately through the samples, with a gradient at tangentAt orthogonal to tangent. The fit
// is done in Hartley normalized coordinates and mapped back to pixels; the result is normalized
// at tangentAt.
func FitPolynomial2(anchors, samples []r2.Point, tangentAt, tangent r2.Point) (Polynomial2, error) {
	if len(anchors) == 0 || len(anchors) > 4 {
		return Polynomial2{}, errors.Errorf("need between 1 and 4 anchors, got %d", len(anchors))
	}
	if len(anchors)+len(samples) < 5 {
		return Polynomial2{}, errors.Errorf("need at least 5 points to fit a conic, got %d", len(anchors)+len(samples))
	}
	all := make([]r2.Point, 0, len(anchors)+len(samples)+1)
	all = append(all, anchors...)
	all = append(all, samples...)
	all = append(all, tangentAt)
	normalized, mu, scale := normalizePoints(all)

	// null space of the hard constraints
	hard := mat.NewDense(len(anchors), 6, nil)
	for i := range anchors {
		hard.SetRow(i, monomials(normalized[i]))
	}
	var svd mat.SVD
	if ok := svd.Factorize(hard, mat.SVDFull); !ok {
		return Polynomial2{}, errors.New("cannot factorize the anchor constraints")
	}
	var v mat.Dense
	svd.VTo(&v)
	freeDims := 6 - len(anchors)
	basis := v.Slice(0, 6, len(anchors), 6)

	// soft constraints: samples, tangent and the penalty on the quadratic terms
	soft := mat.NewDense(len(samples)+1+3, 6, nil)
	row := 0
	for i := range samples {
		soft.SetRow(row, monomials(normalized[len(anchors)+i]))
		row++
	}
	q := normalized[len(all)-1]
	dir := tangent.Normalize()
	soft.SetRow(row, []float64{
		tangentWeight * 2 * q.X * dir.X,
		tangentWeight * (q.Y*dir.X + q.X*dir.Y),
		tangentWeight * 2 * q.Y * dir.Y,
		tangentWeight * dir.X,
		tangentWeight * dir.Y,
		0,
	})
	row++
	for k := 0; k < 3; k++ {
		soft.Set(row, k, math.Sqrt(quadraticPenalty))
		row++
	}

	var reduced mat.Dense
	reduced.Mul(soft, basis)
	if ok := svd.Factorize(&reduced, mat.SVDFull); !ok {
		return Polynomial2{}, errors.New("cannot factorize the sample constraints")
	}
	var w mat.Dense
	svd.VTo(&w)
	var coeffs mat.VecDense
	coeffs.MulVec(basis, w.ColView(freeDims-1))

	poly := denormalize(Polynomial2{
		coeffs.AtVec(0), coeffs.AtVec(1), coeffs.AtVec(2),
		coeffs.AtVec(3), coeffs.AtVec(4), coeffs.AtVec(5),
	}, mu, scale)
	if poly.Gradient(tangentAt).Norm() < 1e-12 {
		return Polynomial2{}, errors.New("fitted curve is singular at the tangent point")
	}
	return poly.Normalized(tangentAt), nil
}

// normalizePoints normalizes points as described in Multiple View Geometry, Alg 4.2: centroid at
// the origin and mean distance sqrt(2).
func normalizePoints(pts []r2.Point) ([]r2.Point, r2.Point, float64) {
	nPoints := float64(len(pts))
	mu := r2.Point{}
	for _, pt := range pts {
		mu = mu.Add(pt)
	}
	mu = mu.Mul(1 / nPoints)
	d := 0.0
	for _, pt := range pts {
		d += pt.Sub(mu).Norm() / nPoints
	}
	scale := 1.
	if d > 1e-12 {
		scale = math.Sqrt2 / d
	}
	out := make([]r2.Point, len(pts))
	for i, pt := range pts {
		out[i] = pt.Sub(mu).Mul(scale)
	}
	return out, mu, scale
}

// denormalize expresses a conic fitted on s*(p - mu) in the coordinates of p.
func denormalize(p Polynomial2, mu r2.Point, s float64) Polynomial2 {
	s2 := s * s
	a, b, c := p.KUU*s2, p.KUV*s2, p.KVV*s2
	d, e := p.KU*s, p.KV*s
	return Polynomial2{
		KUU: a,
		KUV: b,
		KVV: c,
		KU:  -2*a*mu.X - b*mu.Y + d,
		KV:  -b*mu.X - 2*c*mu.Y + e,
		K1:  a*mu.X*mu.X + b*mu.X*mu.Y + c*mu.Y*mu.Y - d*mu.X - e*mu.Y + p.K1,
	}
}
