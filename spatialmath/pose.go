package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transformation: a rotation followed by a translation. For a pose P of frame B
// expressed in frame A, a point X_B maps to X_A = R X_B + t.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type pose struct {
	point       r3.Vector
	orientation quat.Number
}

// NewZeroPose returns a pose at (0,0,0) with no rotation.
func NewZeroPose() Pose {
	return &pose{orientation: quat.Number{Real: 1}}
}

// NewPoseFromPoint returns a pose with the given translation and no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &pose{point: point, orientation: quat.Number{Real: 1}}
}

// NewPoseFromOrientation returns a pose with the given rotation and no translation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// NewPose returns a pose with the given translation and rotation. A nil orientation is no rotation.
func NewPose(point r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(point)
	}
	return &pose{point: point, orientation: Normalize(o.Quaternion())}
}

func (p *pose) Point() r3.Vector {
	return p.point
}

func (p *pose) Orientation() Orientation {
	q := quaternion(p.orientation)
	return &q
}

func (p *pose) String() string {
	aa := QuatToR4AA(p.orientation)
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f TH:%.4f RX:%.4f RY:%.4f RZ:%.4f}",
		p.point.X, p.point.Y, p.point.Z, aa.Theta, aa.RX, aa.RY, aa.RZ)
}

// Compose returns the pose a ∘ b, which maps X to a(b(X)).
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	return &pose{
		point:       a.Point().Add(rotateVector(qa, b.Point())),
		orientation: Normalize(quat.Mul(qa, b.Orientation().Quaternion())),
	}
}

// PoseInverse returns the pose that undoes p.
func PoseInverse(p Pose) Pose {
	qInv := quat.Conj(p.Orientation().Quaternion())
	return &pose{point: rotateVector(qInv, p.Point()).Mul(-1), orientation: qInv}
}

// PoseBetween returns the pose of b expressed in the frame of a: PoseInverse(a) ∘ b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// TransformPoint returns R v + t.
func TransformPoint(p Pose, v r3.Vector) r3.Vector {
	return RotatePoint(p, v).Add(p.Point())
}

// InverseTransformPoint returns Rᵀ (v - t).
func InverseTransformPoint(p Pose, v r3.Vector) r3.Vector {
	return InverseRotatePoint(p, v.Sub(p.Point()))
}

// RotatePoint returns R v.
func RotatePoint(p Pose, v r3.Vector) r3.Vector {
	return rotateVector(p.Orientation().Quaternion(), v)
}

// InverseRotatePoint returns Rᵀ v.
func InverseRotatePoint(p Pose, v r3.Vector) r3.Vector {
	return rotateVector(quat.Conj(p.Orientation().Quaternion()), v)
}

// PoseAlmostEqual returns whether two poses are within 1e-8 in translation and 1e-5 in rotation.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps is PoseAlmostEqual with a caller chosen translation tolerance.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) && OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	diff := a.Sub(b).Abs()
	return diff.X <= epsilon && diff.Y <= epsilon && diff.Z <= epsilon
}
