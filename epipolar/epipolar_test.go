package epipolar

import (
	"image"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/curvedstereo/camera"
	"go.viam.com/curvedstereo/spatialmath"
	"go.viam.com/curvedstereo/utils"
)

func circlePoint(theta float64) r2.Point {
	return r2.Point{X: 50 + 20*math.Cos(theta), Y: 40 + 20*math.Sin(theta)}
}

func TestFitPolynomial2(t *testing.T) {
	t.Run("circle", func(t *testing.T) {
		anchors := []r2.Point{circlePoint(0), circlePoint(2)}
		var samples []r2.Point
		for _, theta := range []float64{0.2, 0.5, 0.9, 1.3, 1.7} {
			samples = append(samples, circlePoint(theta))
		}
		poly, err := FitPolynomial2(anchors, samples, circlePoint(0), r2.Point{X: 0, Y: 1})
		test.That(t, err, test.ShouldBeNil)

		test.That(t, poly.Gradient(circlePoint(0)).Norm(), test.ShouldAlmostEqual, 1, 1e-9)
		for _, anchor := range anchors {
			test.That(t, poly.Eval(anchor), test.ShouldAlmostEqual, 0, 1e-6)
		}
		for _, theta := range []float64{-1, 2.5, 4} {
			test.That(t, poly.Eval(circlePoint(theta)), test.ShouldAlmostEqual, 0, 1e-4)
		}
		test.That(t, math.Abs(poly.Eval(r2.Point{X: 50, Y: 40})), test.ShouldBeGreaterThan, 1)
	})

	t.Run("line", func(t *testing.T) {
		var samples []r2.Point
		for u := 5.; u < 50; u += 7 {
			samples = append(samples, r2.Point{X: u, Y: 3 + 0.25*u})
		}
		poly, err := FitPolynomial2([]r2.Point{{X: 0, Y: 3}, {X: 100, Y: 28}}, samples,
			r2.Point{X: 0, Y: 3}, r2.Point{X: 4, Y: 1})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, poly.Eval(r2.Point{X: 200, Y: 53}), test.ShouldAlmostEqual, 0, 1e-3)
		test.That(t, math.Abs(poly.KUU)+math.Abs(poly.KUV)+math.Abs(poly.KVV), test.ShouldBeLessThan, 1e-6)
	})

	t.Run("not enough data", func(t *testing.T) {
		_, err := FitPolynomial2(nil, []r2.Point{{X: 1, Y: 2}}, r2.Point{}, r2.Point{X: 1})
		test.That(t, err, test.ShouldNotBeNil)
		_, err = FitPolynomial2([]r2.Point{{X: 1, Y: 2}}, []r2.Point{{X: 2, Y: 2}, {X: 3, Y: 3}}, r2.Point{X: 1, Y: 2}, r2.Point{X: 1})
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestNormalizePoints(t *testing.T) {
	pts, mu, scale := normalizePoints([]r2.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}})
	test.That(t, mu, test.ShouldResemble, r2.Point{X: 2, Y: 2})
	test.That(t, scale, test.ShouldAlmostEqual, 0.5)
	test.That(t, pts[2].Norm(), test.ShouldAlmostEqual, math.Sqrt2)

	poly := Polynomial2{KUU: 1, KVV: 1, K1: -2}
	back := denormalize(poly, mu, scale)
	// unit circle of normalized coordinates is the circle of radius 2 around mu
	test.That(t, back.Eval(r2.Point{X: 2 + math.Sqrt2*2, Y: 2}), test.ShouldAlmostEqual, 0)
	test.That(t, back.Eval(r2.Point{X: 2, Y: 2 - math.Sqrt2*2}), test.ShouldAlmostEqual, 0)
}

func checkAdjacent(t *testing.T, prev, cur image.Point) {
	t.Helper()
	d := cur.Sub(prev)
	test.That(t, utils.AbsInt(d.X) <= 1 && utils.AbsInt(d.Y) <= 1, test.ShouldBeTrue)
	test.That(t, d, test.ShouldNotResemble, image.Point{})
}

func TestCurveRasterizerLine(t *testing.T) {
	poly := Polynomial2{KU: 0.5, KV: -1}.Normalized(r2.Point{})
	cr := NewCurveRasterizer(image.Point{}, image.Point{10, 5}, poly)

	prev := cr.Point()
	for i := 0; i < 10; i++ {
		cr.Step()
		checkAdjacent(t, prev, cr.Point())
		test.That(t, math.Abs(cr.Value()), test.ShouldBeLessThan, 1)
		prev = cr.Point()
	}
	test.That(t, cr.Point(), test.ShouldResemble, image.Point{10, 5})
	test.That(t, cr.Count(), test.ShouldEqual, 10)

	cr.Steps(-10)
	test.That(t, cr.Point(), test.ShouldResemble, image.Point{})
	test.That(t, cr.Count(), test.ShouldEqual, 0)

	cr.Steps(-4)
	test.That(t, cr.U(), test.ShouldEqual, -4)
	test.That(t, cr.V(), test.ShouldEqual, -2)

	cr.Reset()
	cr.SetStep(-1)
	cr.Steps(2)
	test.That(t, cr.Point(), test.ShouldResemble, image.Point{-2, -1})
	cr.Reset()
	cr.Step()
	test.That(t, cr.U(), test.ShouldEqual, -1)

	cr = NewCurveRasterizer(image.Point{}, image.Point{10, 5}, poly)
	var visited []image.Point
	n := cr.Walk(100, image.Rect(0, 0, 8, 8), func(i int, pt image.Point) bool {
		visited = append(visited, pt)
		return true
	})
	test.That(t, n, test.ShouldEqual, 8)
	test.That(t, visited[7], test.ShouldResemble, image.Point{7, 3})

	n = cr.Walk(100, image.Rect(0, 0, 100, 100), func(i int, pt image.Point) bool {
		return i < 3
	})
	test.That(t, n, test.ShouldEqual, 3)
}

func TestCurveRasterizerCircle(t *testing.T) {
	poly := Polynomial2{KUU: 1, KVV: 1, KU: -100, KV: -80, K1: 50*50 + 40*40 - 400}.Normalized(r2.Point{X: 70, Y: 40})
	cr := NewCurveRasterizer(image.Point{70, 40}, image.Point{50, 60}, poly)

	prev := cr.Point()
	farSide := false
	for i := 0; i < 150; i++ {
		cr.Step()
		cur := cr.Point()
		checkAdjacent(t, prev, cur)
		radius := toR2(cur).Sub(r2.Point{X: 50, Y: 40}).Norm()
		test.That(t, radius, test.ShouldAlmostEqual, 20, 1)
		if i == 0 {
			test.That(t, cur.Y, test.ShouldEqual, 41)
		}
		if cur.X <= 31 {
			farSide = true
		}
		prev = cur
	}
	test.That(t, farSide, test.ShouldBeTrue)
}

func newCamera(t *testing.T) camera.Model {
	t.Helper()
	cam, err := camera.NewEUCM(160, 120, []float64{0.5, 1, 60, 60, 80, 60})
	test.That(t, err, test.ShouldBeNil)
	return cam
}

func gridPoints() []r2.Point {
	var pts []r2.Point
	for v := 10.; v < 120; v += 20 {
		for u := 10.; u < 160; u += 20 {
			pts = append(pts, r2.Point{X: u, Y: v})
		}
	}
	return pts
}

func TestGeometryCurves(t *testing.T) {
	cam := newCamera(t)
	T12 := spatialmath.NewPose(r3.Vector{X: 0.2, Y: 0.02, Z: 0.05}, &spatialmath.R4AA{Theta: 0.05, RX: 0, RY: 1, RZ: 0})
	g := NewGeometry(T12, cam, cam, gridPoints())

	test.That(t, g.Degenerate(), test.ShouldBeFalse)
	e2 := g.Epipole2()
	test.That(t, e2.Valid, test.ShouldBeTrue)
	test.That(t, e2.Inverted, test.ShouldBeFalse)
	test.That(t, g.Epipole1().Valid, test.ShouldBeTrue)

	for i := 0; i < g.Len(); i++ {
		pinf, ok := g.Pinf(i)
		test.That(t, ok, test.ShouldBeTrue)
		c := g.Curve(i)
		test.That(t, c.Valid, test.ShouldBeTrue)
		test.That(t, c.Poly.Eval(pinf), test.ShouldAlmostEqual, 0, 1e-6)
		test.That(t, c.Poly.Eval(e2.Point), test.ShouldAlmostEqual, 0, 1e-6)

		ray, _ := g.Ray(i)
		for _, depth := range []float64{1, 3, 10} {
			pt, ok := cam.Project(spatialmath.InverseTransformPoint(T12, ray.Mul(depth)))
			if ok {
				test.That(t, c.Poly.Eval(pt), test.ShouldAlmostEqual, 0, 0.05)
			}
		}

		cr, ok := g.Curve2(i)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, cr.Point(), test.ShouldResemble, c.Start)
		cr.Steps(3)
		test.That(t, toR2(cr.Point()).Sub(pinf).Dot(g.PinfDirection(i)), test.ShouldBeGreaterThan, 0)
		test.That(t, math.Abs(cr.Value()), test.ShouldBeLessThan, 1)

		test.That(t, g.EpipolarDirection(i).Norm(), test.ShouldAlmostEqual, 1)
	}

	c1, ok := g.Curve1(10)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, toR2(c1.Point()), test.ShouldResemble, g.Point(10))
	c1.Steps(5)
	test.That(t, toR2(c1.Point()).Sub(g.Point(10)).Dot(g.EpipolarDirection(10)), test.ShouldBeGreaterThan, 0)
}

func TestGeometryInvertedEpipole(t *testing.T) {
	cam := newCamera(t)
	g := NewGeometry(spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.5}), cam, cam, gridPoints())

	e2 := g.Epipole2()
	test.That(t, e2.Valid, test.ShouldBeTrue)
	test.That(t, e2.Inverted, test.ShouldBeTrue)
	test.That(t, e2.Point.X, test.ShouldAlmostEqual, 80)
	test.That(t, e2.Point.Y, test.ShouldAlmostEqual, 60)
	test.That(t, g.Epipole1().Inverted, test.ShouldBeFalse)

	for i := 0; i < g.Len(); i++ {
		cr, ok := g.Curve2(i)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, g.Curve(i).Step, test.ShouldEqual, -1)
		before := toR2(cr.Point()).Sub(e2.Point).Norm()
		cr.Steps(4)
		test.That(t, toR2(cr.Point()).Sub(e2.Point).Norm(), test.ShouldBeGreaterThan, before)
	}
}

func TestGeometryDegenerate(t *testing.T) {
	cam := newCamera(t)
	g := NewGeometry(spatialmath.NewZeroPose(), cam, cam, gridPoints())
	test.That(t, g.Degenerate(), test.ShouldBeTrue)
	test.That(t, g.Epipole2().Valid, test.ShouldBeFalse)
	for i := 0; i < g.Len(); i++ {
		c := g.Curve(i)
		test.That(t, c.Degenerate, test.ShouldBeTrue)
		test.That(t, toR2(c.Start), test.ShouldResemble, g.Point(i))
		_, ok := g.Curve2(i)
		test.That(t, ok, test.ShouldBeFalse)
	}

	// the pose dependent part follows SetTransformation
	g.SetTransformation(spatialmath.NewPoseFromPoint(r3.Vector{X: 0.1}))
	test.That(t, g.Degenerate(), test.ShouldBeFalse)
	test.That(t, g.Curve(0).Degenerate, test.ShouldBeFalse)
	test.That(t, g.Curve(0).Valid, test.ShouldBeTrue)
	test.That(t, spatialmath.PoseAlmostEqual(g.Transformation(), spatialmath.NewPoseFromPoint(r3.Vector{X: 0.1})), test.ShouldBeTrue)
}
