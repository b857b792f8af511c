package stereo

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/curvedstereo/epipolar"
	"go.viam.com/curvedstereo/rimage"
	"go.viam.com/curvedstereo/spatialmath"
)

// minSigma bounds the depth uncertainty from below.
const minSigma = 1e-3

// Triangulate returns the point, in the frame of camera 1, closest to the ray of p1 in image 1 and
// the ray of p2 in image 2: the midpoint of their common perpendicular. It fails for parallel rays
// and for points behind either camera.
func (es *EnhancedStereo) Triangulate(p1, p2 r2.Point) (r3.Vector, bool) {
	v1, ok := es.cam1.BackProject(p1)
	if !ok {
		return r3.Vector{}, false
	}
	ray2, ok := es.cam2.BackProject(p2)
	if !ok {
		return r3.Vector{}, false
	}
	v2 := spatialmath.RotatePoint(es.pose, ray2)
	t := es.pose.Point()

	// normal equations of min |l1 v1 - t - l2 v2|^2
	a := mat.NewDense(2, 2, []float64{
		v1.Dot(v1), -v1.Dot(v2),
		v1.Dot(v2), -v2.Dot(v2),
	})
	if math.Abs(mat.Det(a)) < 1e-12 {
		return r3.Vector{}, false
	}
	b := mat.NewVecDense(2, []float64{v1.Dot(t), v2.Dot(t)})
	var lambda mat.VecDense
	if err := lambda.SolveVec(a, b); err != nil {
		return r3.Vector{}, false
	}
	l1, l2 := lambda.AtVec(0), lambda.AtVec(1)
	if l1 <= 0 || l2 <= 0 {
		return r3.Vector{}, false
	}
	return v1.Mul(l1).Add(t).Add(v2.Mul(l2)).Mul(0.5), true
}

// ComputeDistance returns the depth and its uncertainty at cell (x, y) for the best hypothesis of
// the last computation.
func (es *EnhancedStereo) ComputeDistance(x, y int) (dist, sigma float64, ok bool) {
	if !es.grid.InGrid(x, y) {
		return 0, 0, false
	}
	d := es.winners[es.index(x, y)]
	if d < 0 {
		return 0, 0, false
	}
	return es.distanceAt(x, y, d)
}

// distanceAt triangulates step d of the curve of cell (x, y). The uncertainty is half the depth
// difference between the neighboring steps, one sided at the ends of the search range.
func (es *EnhancedStereo) distanceAt(x, y, d int) (dist, sigma float64, ok bool) {
	cr, ok := es.geometry.Curve2(es.index(x, y))
	if !ok {
		return 0, 0, false
	}
	p1 := r2.Point{X: float64(es.grid.U(x)), Y: float64(es.grid.V(y))}
	first := max(d-1, 0)
	cr.Steps(first)
	var depths [3]float64
	var valid [3]bool
	for k := first; k <= d+1 && k < es.conf.DispMax; k++ {
		pt := cr.Point()
		if X, ok := es.Triangulate(p1, r2.Point{X: float64(pt.X), Y: float64(pt.Y)}); ok {
			depths[k-d+1], valid[k-d+1] = X.Norm(), true
		}
		cr.Step()
	}
	if !valid[1] || depths[1] > es.conf.MaxDistance {
		return 0, 0, false
	}
	switch {
	case valid[0] && valid[2]:
		sigma = math.Abs(depths[2]-depths[0]) / 2
	case valid[0]:
		sigma = math.Abs(depths[1] - depths[0])
	case valid[2]:
		sigma = math.Abs(depths[2] - depths[1])
	default:
		sigma = rimage.DefaultSigma
	}
	return depths[1], math.Max(sigma, minSigma), true
}

// CameraIdx selects an image of the pair.
type CameraIdx int

const (
	// Camera1 is the reference image.
	Camera1 CameraIdx = iota
	// Camera2 is the image searched along the curves.
	Camera2
)

// TraceEpipolarCurve draws in out the epipolar curve of cell (x, y): in image 2 the search curve
// through the projection at infinity, in image 1 the curve through the cell's pixel. It returns
// the number of pixels drawn.
func (es *EnhancedStereo) TraceEpipolarCurve(x, y int, out *image.Gray, which CameraIdx) int {
	if !es.grid.InGrid(x, y) {
		return 0
	}
	idx := es.index(x, y)
	var (
		cr *epipolar.CurveRasterizer
		ok bool
	)
	if which == Camera1 {
		cr, ok = es.geometry.Curve1(idx)
	} else {
		curve := es.geometry.Curve(idx)
		if curve.Valid && curve.Degenerate {
			if curve.Start.In(out.Bounds()) {
				out.SetGray(curve.Start.X, curve.Start.Y, color.Gray{Y: 255})
				return 1
			}
			return 0
		}
		cr, ok = es.geometry.Curve2(idx)
	}
	if !ok {
		return 0
	}

	maxSteps := 4 * (out.Bounds().Dx() + out.Bounds().Dy())
	draw := func(_ int, pt image.Point) bool {
		out.SetGray(pt.X, pt.Y, color.Gray{Y: 255})
		return true
	}
	count := cr.Walk(maxSteps, out.Bounds(), draw)
	back := -1
	if which == Camera2 {
		back = -es.geometry.Curve(idx).Step
	}
	cr.Reset()
	cr.SetStep(back)
	cr.Step()
	return count + cr.Walk(maxSteps, out.Bounds(), draw)
}
