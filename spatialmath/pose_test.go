package spatialmath

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestComposeInverse(t *testing.T) {
	p1 := NewPose(r3.Vector{X: 0.2, Y: -0.1, Z: 0.05}, &R4AA{Theta: 0.3, RX: 0, RY: 1, RZ: 0})
	p2 := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, &R4AA{Theta: -0.7, RX: 1, RY: 1, RZ: 0})

	test.That(t, PoseAlmostEqual(Compose(p1, PoseInverse(p1)), NewZeroPose()), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(PoseBetween(p1, Compose(p1, p2)), p2), test.ShouldBeTrue)

	v := r3.Vector{X: -4, Y: 0.5, Z: 9}
	direct := TransformPoint(p1, TransformPoint(p2, v))
	composed := TransformPoint(Compose(p1, p2), v)
	test.That(t, R3VectorAlmostEqual(direct, composed, 1e-9), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(InverseTransformPoint(p1, TransformPoint(p1, v)), v, 1e-9), test.ShouldBeTrue)
}

func TestRotations(t *testing.T) {
	aa := &R4AA{Theta: math.Pi / 2, RX: 0, RY: 0, RZ: 1}
	p := NewPoseFromOrientation(aa)
	rotated := RotatePoint(p, r3.Vector{X: 1})
	test.That(t, rotated.X, test.ShouldAlmostEqual, 0)
	test.That(t, rotated.Y, test.ShouldAlmostEqual, 1)

	rm := aa.RotationMatrix()
	test.That(t, R3VectorAlmostEqual(rm.Mul(r3.Vector{X: 1}), rotated, 1e-12), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(rm.TransposeMul(rotated), r3.Vector{X: 1}, 1e-12), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(InverseRotatePoint(p, rotated), r3.Vector{X: 1}, 1e-12), test.ShouldBeTrue)

	for _, o := range []*R4AA{
		{Theta: 0.1, RX: 1, RY: 2, RZ: 3},
		{Theta: 3.1, RX: 1, RY: 0, RZ: 0},
		{Theta: 3.1, RX: 0, RY: 1, RZ: 0},
		{Theta: 3.1, RX: 0, RY: 0, RZ: 1},
	} {
		back := o.RotationMatrix().Quaternion()
		test.That(t, QuaternionAlmostEqual(back, o.ToQuat(), 1e-9), test.ShouldBeTrue)
		test.That(t, OrientationAlmostEqual(o.RotationMatrix(), o), test.ShouldBeTrue)
	}

	_, err := NewRotationMatrix([]float64{1, 0, 0, 0, 2, 0, 0, 0, 1})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRotationMatrix([]float64{1, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)
	rm, err = NewRotationMatrix([]float64{0, -1, 0, 1, 0, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, OrientationAlmostEqual(rm, aa), test.ShouldBeTrue)

	between := OrientationBetween(aa, &R4AA{Theta: math.Pi, RX: 0, RY: 0, RZ: 1})
	test.That(t, between.AxisAngles().Theta, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, OrientationAlmostEqual(OrientationInverse(OrientationInverse(aa)), aa), test.ShouldBeTrue)
}

func TestPoseConfig(t *testing.T) {
	var conf PoseConfig
	err := json.Unmarshal([]byte(`{"translation": {"x": 0.1, "y": 0, "z": 0}, "orientation": {"th": 0.2, "x": 0, "y": 2, "z": 0}}`), &conf)
	test.That(t, err, test.ShouldBeNil)
	p, err := conf.ParseConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Point().X, test.ShouldAlmostEqual, 0.1)
	test.That(t, p.Orientation().AxisAngles().RY, test.ShouldAlmostEqual, 1)
	test.That(t, p.Orientation().AxisAngles().Theta, test.ShouldAlmostEqual, 0.2)

	round, err := NewPoseConfig(p).ParseConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, PoseAlmostEqual(round, p), test.ShouldBeTrue)

	bad := PoseConfig{Orientation: &R4AA{Theta: 1}}
	test.That(t, bad.Validate("pose"), test.ShouldNotBeNil)

	identity, err := (&PoseConfig{}).ParseConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, PoseAlmostEqual(identity, NewZeroPose()), test.ShouldBeTrue)
}
