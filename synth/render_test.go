package synth

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/curvedstereo/camera"
	"go.viam.com/curvedstereo/spatialmath"
)

func TestNoiseTexture(t *testing.T) {
	tex := NoiseTexture(1, 0.2)
	same := NoiseTexture(1, 0.2)
	other := NoiseTexture(2, 0.2)

	differs := 0
	minVal, maxVal := uint8(255), uint8(0)
	for i := 0; i < 400; i++ {
		x, y := float64(i%20)*0.037, float64(i/20)*0.041
		val := tex(x, y)
		test.That(t, val, test.ShouldEqual, same(x, y))
		test.That(t, val, test.ShouldBeBetweenOrEqual, 20, 235)
		if val != other(x, y) {
			differs++
		}
		minVal, maxVal = min(minVal, val), max(maxVal, val)
	}
	test.That(t, differs, test.ShouldBeGreaterThan, 200)
	test.That(t, int(maxVal)-int(minVal), test.ShouldBeGreaterThan, 60)

	// smooth below the cell size
	test.That(t, math.Abs(float64(tex(0.5, 0.5))-float64(tex(0.501, 0.5))), test.ShouldBeLessThan, 5)
}

func TestPlaneIntersect(t *testing.T) {
	plane := Plane{
		Pose:       spatialmath.NewPoseFromPoint(r3.Vector{Z: 2}),
		HalfWidth:  1,
		HalfHeight: 0.5,
		Texture:    NoiseTexture(1, 0.2),
	}
	pt, dist, ok := plane.Intersect(r3.Vector{}, r3.Vector{X: 0.25, Z: 1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pt.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0)
	test.That(t, dist, test.ShouldAlmostEqual, math.Hypot(0.5, 2))

	_, _, ok = plane.Intersect(r3.Vector{}, r3.Vector{X: 1})
	test.That(t, ok, test.ShouldBeFalse)
	_, _, ok = plane.Intersect(r3.Vector{}, r3.Vector{Z: -1})
	test.That(t, ok, test.ShouldBeFalse)
	_, _, ok = plane.Intersect(r3.Vector{}, r3.Vector{Y: 1, Z: 1})
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, plane.Polygon(), test.ShouldHaveLength, 4)
	test.That(t, plane.Polygon()[2], test.ShouldResemble, r3.Vector{X: 1, Y: 0.5})
}

func TestRenderPlane(t *testing.T) {
	cam, err := camera.NewEUCM(64, 48, []float64{0.5, 1, 30, 30, 32, 24})
	test.That(t, err, test.ShouldBeNil)
	plane := Plane{
		Pose:       spatialmath.NewPoseFromPoint(r3.Vector{Z: 2}),
		HalfWidth:  1,
		HalfHeight: 1,
		Texture:    func(x, y float64) uint8 { return 200 },
	}

	img := RenderPlane(cam, spatialmath.NewZeroPose(), plane, 7)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 64)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 48)
	test.That(t, img.GrayAt(32, 24).Y, test.ShouldEqual, 200)
	test.That(t, img.GrayAt(0, 0).Y, test.ShouldEqual, 7)

	// the plane moves left in the image of a camera moved to the right
	moved := RenderPlane(cam, spatialmath.NewPoseFromPoint(r3.Vector{X: 0.5}), plane, 7)
	edge := func(row []uint8) int {
		for u := len(row) - 1; u >= 0; u-- {
			if row[u] == 200 {
				return u
			}
		}
		return -1
	}
	right := edge(img.Pix[24*img.Stride : 25*img.Stride])
	rightMoved := edge(moved.Pix[24*moved.Stride : 25*moved.Stride])
	test.That(t, rightMoved, test.ShouldBeLessThan, right)

	// the edge sits where the corner of the plane projects
	corner, ok := cam.Project(r3.Vector{X: 1, Z: 2})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, math.Abs(float64(right)-corner.X), test.ShouldBeLessThanOrEqualTo, 1)
	test.That(t, camera.InImage(cam, r2.Point{X: corner.X, Y: 24}), test.ShouldBeTrue)
}
