package epipolar

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/curvedstereo/camera"
	"go.viam.com/curvedstereo/spatialmath"
	"go.viam.com/curvedstereo/utils"
)

const (
	// minBaseline is the translation norm below which the pose is treated as a pure rotation.
	minBaseline = 1e-9
	// shiftEps is the step used to differentiate projections numerically.
	shiftEps = 1e-3
)

// sampleSteps are the blending factors between the ray at infinity and the camera center used as
// soft samples of each curve. They are denser near infinity where the disparity search happens.
var sampleSteps = []float64{0.01, 0.03, 0.06, 0.1, 0.2, 0.35, 0.5, 0.7, 0.9}

// Epipole is the projection of the other camera's center. When the center cannot be projected the
// antipodal direction is tried and Inverted is set.
type Epipole struct {
	Point    r2.Point
	Inverted bool
	Valid    bool
}

// Curve is the search path of one image 1 pixel in image 2. The walk starts at Start, the
// projection at infinity, and its first step heads towards Goal when Step is 1 and away from it
// when Step is -1. A Degenerate curve collapses to Start: there is no baseline to search along.
type Curve struct {
	Poly       Polynomial2
	Start      image.Point
	Goal       image.Point
	Step       int
	Valid      bool
	Degenerate bool
}

// Geometry holds the epipolar data of a set of image 1 pixels for a camera pair. The rays of the
// pixels only depend on camera 1; everything else is recomputed by SetTransformation.
type Geometry struct {
	cam1, cam2 camera.Model
	points     []r2.Point
	reconst    []r3.Vector
	valid      []bool

	pose       spatialmath.Pose
	baseline   r3.Vector
	baseline2  r3.Vector
	degenerate bool
	epipole1   Epipole
	epipole2   Epipole

	reconstRot        []r3.Vector
	pinf              []r2.Point
	pinfValid         []bool
	epipolarDirection []r2.Point
	pinfDirection     []r2.Point
	curves            []Curve
}

// NewGeometry back projects the points of image 1 and computes the curves for T12, the pose of
// camera 2 in the frame of camera 1.
func NewGeometry(T12 spatialmath.Pose, cam1, cam2 camera.Model, points []r2.Point) *Geometry {
	n := len(points)
	g := &Geometry{
		cam1:              cam1,
		cam2:              cam2,
		points:            append([]r2.Point(nil), points...),
		reconstRot:        make([]r3.Vector, n),
		pinf:              make([]r2.Point, n),
		pinfValid:         make([]bool, n),
		epipolarDirection: make([]r2.Point, n),
		pinfDirection:     make([]r2.Point, n),
		curves:            make([]Curve, n),
	}
	g.reconst, g.valid = camera.ReconstructPointCloud(cam1, g.points)
	for i, ray := range g.reconst {
		if g.valid[i] {
			g.reconst[i] = ray.Normalize()
		}
	}
	g.SetTransformation(T12)
	return g
}

// SetTransformation recomputes every pose dependent field before returning.
func (g *Geometry) SetTransformation(T12 spatialmath.Pose) {
	g.pose = T12
	g.baseline = T12.Point()
	g.baseline2 = spatialmath.InverseRotatePoint(T12, g.baseline)
	g.degenerate = g.baseline.Norm() < minBaseline

	g.computeEpipoles()
	g.computeRotated()
	g.computePinf()
	g.computeEpipolarDirections()
	g.computeCurves()
}

// Transformation returns the current pose of camera 2 in the frame of camera 1.
func (g *Geometry) Transformation() spatialmath.Pose { return g.pose }

// Len returns the number of image 1 pixels.
func (g *Geometry) Len() int { return len(g.points) }

// Point returns image 1 pixel i.
func (g *Geometry) Point(i int) r2.Point { return g.points[i] }

// Ray returns the unit ray of pixel i in the frame of camera 1 and whether it exists.
func (g *Geometry) Ray(i int) (r3.Vector, bool) { return g.reconst[i], g.valid[i] }

// RotatedRay returns the ray of pixel i expressed in the frame of camera 2.
func (g *Geometry) RotatedRay(i int) r3.Vector { return g.reconstRot[i] }

// Pinf returns the projection into image 2 of the point at infinity along ray i.
func (g *Geometry) Pinf(i int) (r2.Point, bool) { return g.pinf[i], g.pinfValid[i] }

// EpipolarDirection returns the unit tangent of the image 1 epipolar curve at pixel i, pointing
// towards epipole 1. It is null for a degenerate pose.
func (g *Geometry) EpipolarDirection(i int) r2.Point { return g.epipolarDirection[i] }

// PinfDirection returns the unit tangent of curve i at Pinf, pointing towards closer points.
func (g *Geometry) PinfDirection(i int) r2.Point { return g.pinfDirection[i] }

// Epipole1 returns the projection of camera 2's center into image 1.
func (g *Geometry) Epipole1() Epipole { return g.epipole1 }

// Epipole2 returns the projection of camera 1's center into image 2.
func (g *Geometry) Epipole2() Epipole { return g.epipole2 }

// Degenerate returns whether the baseline is null.
func (g *Geometry) Degenerate() bool { return g.degenerate }

// Curve returns the image 2 search path of pixel i.
func (g *Geometry) Curve(i int) Curve { return g.curves[i] }

// Curve2 returns a rasterizer at Pinf oriented towards closer points. It fails for invalid or
// degenerate curves.
func (g *Geometry) Curve2(i int) (*CurveRasterizer, bool) {
	c := g.curves[i]
	if !c.Valid || c.Degenerate {
		return nil, false
	}
	cr := NewCurveRasterizer(c.Start, c.Goal, c.Poly)
	cr.SetStep(c.Step)
	return cr, true
}

// Curve1 fits the image 1 epipolar curve of pixel i and returns a rasterizer at the pixel oriented
// towards epipole 1. It is meant for diagnostics; the curve is not cached.
func (g *Geometry) Curve1(i int) (*CurveRasterizer, bool) {
	if g.degenerate || !g.valid[i] {
		return nil, false
	}
	start, ok := g.cam1.Project(g.reconst[i])
	if !ok {
		return nil, false
	}
	towards := g.baseline.Normalize()
	var anchors []r2.Point
	anchors = append(anchors, start)
	if g.epipole1.Valid && g.epipole1.Point.Sub(start).Norm() > 1 {
		anchors = append(anchors, g.epipole1.Point)
	}
	poly, ok := fitArc(g.cam1, g.reconst[i], towards, anchors, start)
	if !ok {
		return nil, false
	}
	startPx := roundPoint(start)
	cr := NewCurveRasterizer(startPx, roundPoint(start.Add(g.epipolarDirection[i].Mul(100))), poly)
	return cr, true
}

func (g *Geometry) computeEpipoles() {
	g.epipole1 = projectEpipole(g.cam1, g.baseline, g.degenerate)
	g.epipole2 = projectEpipole(g.cam2, g.baseline2.Mul(-1), g.degenerate)
}

func projectEpipole(cam camera.Model, center r3.Vector, degenerate bool) Epipole {
	if degenerate {
		return Epipole{}
	}
	if pt, ok := cam.Project(center); ok {
		return Epipole{Point: pt, Valid: true}
	}
	if pt, ok := cam.Project(center.Mul(-1)); ok {
		return Epipole{Point: pt, Inverted: true, Valid: true}
	}
	return Epipole{}
}

func (g *Geometry) computeRotated() {
	for i, ray := range g.reconst {
		g.reconstRot[i] = spatialmath.InverseRotatePoint(g.pose, ray)
	}
}

func (g *Geometry) computePinf() {
	for i := range g.reconstRot {
		if !g.valid[i] {
			g.pinfValid[i] = false
			continue
		}
		g.pinf[i], g.pinfValid[i] = g.cam2.Project(g.reconstRot[i])
	}
}

// computeEpipolarDirections shifts every ray along the baseline and projects it back.
func (g *Geometry) computeEpipolarDirections() {
	for i, ray := range g.reconst {
		g.epipolarDirection[i] = r2.Point{}
		if g.degenerate || !g.valid[i] {
			continue
		}
		g.epipolarDirection[i] = projectionDirection(g.cam1, ray, g.baseline.Normalize())
	}
}

func (g *Geometry) computeCurves() {
	towards := g.baseline2.Mul(-1)
	if !g.degenerate {
		towards = towards.Normalize()
	}
	for i := range g.curves {
		g.pinfDirection[i] = r2.Point{}
		if !g.pinfValid[i] {
			g.curves[i] = Curve{}
			continue
		}
		start := roundPoint(g.pinf[i])
		if g.degenerate {
			g.curves[i] = Curve{Start: start, Goal: start, Step: 1, Valid: true, Degenerate: true}
			continue
		}
		g.curves[i] = g.fitCurve(i, towards, start)
	}
}

func (g *Geometry) fitCurve(i int, towards r3.Vector, start image.Point) Curve {
	pinf := g.pinf[i]
	dir := projectionDirection(g.cam2, g.reconstRot[i], towards)
	if dir.Norm() == 0 {
		return Curve{}
	}
	g.pinfDirection[i] = dir

	anchors := []r2.Point{pinf}
	goal := roundPoint(pinf.Add(dir.Mul(100)))
	if g.epipole2.Valid && g.epipole2.Point.Sub(pinf).Norm() > 1 {
		anchors = append(anchors, g.epipole2.Point)
		goal = roundPoint(g.epipole2.Point)
	}
	poly, ok := fitArc(g.cam2, g.reconstRot[i], towards, anchors, pinf)
	if !ok {
		return Curve{}
	}
	curve := Curve{Poly: poly, Start: start, Goal: goal, Step: 1, Valid: true}

	// the walk must leave Pinf towards closer points
	cr := NewCurveRasterizer(start, goal, poly)
	grad := poly.Gradient(toR2(start))
	tangent := r2.Point{X: grad.Y, Y: -grad.X}.Mul(float64(cr.dir))
	if tangent.Dot(dir) < 0 {
		curve.Step = -1
	}
	return curve
}

// fitArc fits the projection of the great circle going from ray towards dir.
func fitArc(cam camera.Model, ray, dir r3.Vector, anchors []r2.Point, tangentAt r2.Point) (Polynomial2, bool) {
	// samples far outside the image would dominate the normalization
	w, h := float64(cam.Width()), float64(cam.Height())
	samples := make([]r2.Point, 0, len(sampleSteps))
	for _, s := range sampleSteps {
		pt, ok := cam.Project(ray.Mul(1 - s).Add(dir.Mul(s)).Normalize())
		if ok && pt.X > -w && pt.X < 2*w && pt.Y > -h && pt.Y < 2*h {
			samples = append(samples, pt)
		}
	}
	tangent := projectionDirection(cam, ray, dir)
	if tangent.Norm() == 0 {
		return Polynomial2{}, false
	}
	poly, err := FitPolynomial2(anchors, samples, tangentAt, tangent)
	if err != nil {
		return Polynomial2{}, false
	}
	return poly, true
}

// projectionDirection returns the unit image direction in which the projection of ray moves when
// the ray is shifted along dir, or the null vector if either projection fails.
func projectionDirection(cam camera.Model, ray, dir r3.Vector) r2.Point {
	p0, ok := cam.Project(ray)
	if !ok {
		return r2.Point{}
	}
	p1, ok := cam.Project(ray.Add(dir.Mul(shiftEps)))
	if !ok {
		return r2.Point{}
	}
	delta := p1.Sub(p0)
	if delta.Norm() < 1e-12 {
		return r2.Point{}
	}
	return delta.Normalize()
}

func roundPoint(pt r2.Point) image.Point {
	return image.Point{utils.RoundInt(pt.X), utils.RoundInt(pt.Y)}
}

func toR2(pt image.Point) r2.Point {
	return r2.Point{X: float64(pt.X), Y: float64(pt.Y)}
}
