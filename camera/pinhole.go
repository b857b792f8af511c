package camera

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrNoIntrinsics is when a camera does not have valid intrinsics parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// Pinhole is a perspective camera with optional Brown-Conrady lens distortion.
type Pinhole struct {
	W          int           `json:"width_px"`
	H          int           `json:"height_px"`
	Fx         float64       `json:"fx"`
	Fy         float64       `json:"fy"`
	Ppx        float64       `json:"ppx"`
	Ppy        float64       `json:"ppy"`
	Distortion *BrownConrady `json:"distortion,omitempty"`
}

// NewPinhole builds a model from fx, fy, ppx, ppy and up to five distortion coefficients.
func NewPinhole(width, height int, params, distortion []float64) (*Pinhole, error) {
	if len(params) != 4 {
		return nil, errors.Errorf("pinhole needs 4 parameters (fx, fy, ppx, ppy), got %d", len(params))
	}
	cam := &Pinhole{W: width, H: height, Fx: params[0], Fy: params[1], Ppx: params[2], Ppy: params[3]}
	if len(distortion) > 0 {
		bc, err := NewBrownConrady(distortion)
		if err != nil {
			return nil, err
		}
		cam.Distortion = bc
	}
	return cam, cam.CheckValid()
}

// CheckValid checks if the fields for Pinhole have valid inputs.
func (cam *Pinhole) CheckValid() error {
	if cam.W <= 0 || cam.H <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", cam.W, cam.H))
	}
	if cam.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", cam.Fx))
	}
	if cam.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", cam.Fy))
	}
	if cam.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", cam.Ppx))
	}
	if cam.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", cam.Ppy))
	}
	return nil
}

// Width returns the image width.
func (cam *Pinhole) Width() int { return cam.W }

// Height returns the image height.
func (cam *Pinhole) Height() int { return cam.H }

// Project fails for points on or behind the image plane.
func (cam *Pinhole) Project(pt r3.Vector) (r2.Point, bool) {
	if pt.Z <= 0 {
		return r2.Point{}, false
	}
	x, y := cam.Distortion.Distort(pt.X/pt.Z, pt.Y/pt.Z)
	return r2.Point{X: x*cam.Fx + cam.Ppx, Y: y*cam.Fy + cam.Ppy}, true
}

// BackProject undistorts the pixel and returns the unit ray through it.
func (cam *Pinhole) BackProject(px r2.Point) (r3.Vector, bool) {
	x, y := cam.Distortion.Undistort((px.X-cam.Ppx)/cam.Fx, (px.Y-cam.Ppy)/cam.Fy)
	return r3.Vector{X: x, Y: y, Z: 1}.Normalize(), true
}

// BrownConrady is the radial and tangential lens distortion model:
//
//	x_d = x_u * (1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p1*x_u*y_u + p2*(r² + 2*x_u²)
//	y_d = y_u * (1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p2*x_u*y_u + p1*(r² + 2*y_u²)
//
// in normalized image coordinates. A nil *BrownConrady is no distortion.
type BrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	RadialK3     float64 `json:"rk3"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
}

// NewBrownConrady takes up to five coefficients k1, k2, k3, p1, p2; missing ones are zero.
func NewBrownConrady(inp []float64) (*BrownConrady, error) {
	if len(inp) > 5 {
		return nil, errors.Errorf("list of parameters too long, expected max 5, got %d", len(inp))
	}
	coeffs := make([]float64, 5)
	copy(coeffs, inp)
	return &BrownConrady{coeffs[0], coeffs[1], coeffs[2], coeffs[3], coeffs[4]}, nil
}

// Parameters returns the coefficients in constructor order.
func (bc *BrownConrady) Parameters() []float64 {
	if bc == nil {
		return []float64{}
	}
	return []float64{bc.RadialK1, bc.RadialK2, bc.RadialK3, bc.TangentialP1, bc.TangentialP2}
}

// Distort applies the forward model.
func (bc *BrownConrady) Distort(xu, yu float64) (float64, float64) {
	if bc == nil {
		return xu, yu
	}
	rSq := xu*xu + yu*yu
	radDist := 1.0 + bc.RadialK1*rSq + bc.RadialK2*rSq*rSq + bc.RadialK3*rSq*rSq*rSq
	xd := xu*radDist + 2.0*bc.TangentialP1*xu*yu + bc.TangentialP2*(rSq+2.0*xu*xu)
	yd := yu*radDist + 2.0*bc.TangentialP2*xu*yu + bc.TangentialP1*(rSq+2.0*yu*yu)
	return xd, yd
}

// Undistort inverts Distort with Newton-Raphson iterations starting at the distorted point.
func (bc *BrownConrady) Undistort(xd, yd float64) (float64, float64) {
	if bc == nil {
		return xd, yd
	}

	xu, yu := xd, yd
	const maxIterations = 20
	const tolerance = 1e-10

	for i := 0; i < maxIterations; i++ {
		xEst, yEst := bc.Distort(xu, yu)
		errX := xEst - xd
		errY := yEst - yd
		if errX*errX+errY*errY < tolerance*tolerance {
			break
		}

		rSq := xu*xu + yu*yu
		radDist := 1.0 + bc.RadialK1*rSq + bc.RadialK2*rSq*rSq + bc.RadialK3*rSq*rSq*rSq
		dRad := 2.0 * (bc.RadialK1 + 2.0*bc.RadialK2*rSq + 3.0*bc.RadialK3*rSq*rSq)

		// Jacobian of Distort.
		dxdDxu := radDist + xu*xu*dRad + 2.0*bc.TangentialP1*yu + 6.0*bc.TangentialP2*xu
		dxdDyu := xu*yu*dRad + 2.0*bc.TangentialP1*xu + 2.0*bc.TangentialP2*yu
		dydDxu := xu*yu*dRad + 2.0*bc.TangentialP2*yu + 2.0*bc.TangentialP1*xu
		dydDyu := radDist + yu*yu*dRad + 2.0*bc.TangentialP2*xu + 6.0*bc.TangentialP1*yu

		det := dxdDxu*dydDyu - dxdDyu*dydDxu
		if det == 0 {
			break
		}
		xu -= (dydDyu*errX - dxdDyu*errY) / det
		yu -= (-dydDxu*errX + dxdDxu*errY) / det
	}
	return xu, yu
}
