package camera

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// EUCM is the enhanced unified camera model. It covers fisheye and catadioptric lenses with two
// shape parameters: alpha in [0, 1] and beta > 0. With alpha = 0 it reduces to a pinhole.
type EUCM struct {
	W     int     `json:"width_px"`
	H     int     `json:"height_px"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Fu    float64 `json:"fu"`
	Fv    float64 `json:"fv"`
	U0    float64 `json:"u0"`
	V0    float64 `json:"v0"`
}

// NewEUCM builds a model from the parameter list alpha, beta, fu, fv, u0, v0.
func NewEUCM(width, height int, params []float64) (*EUCM, error) {
	if len(params) != 6 {
		return nil, errors.Errorf("eucm needs 6 parameters (alpha, beta, fu, fv, u0, v0), got %d", len(params))
	}
	cam := &EUCM{
		W: width, H: height,
		Alpha: params[0], Beta: params[1],
		Fu: params[2], Fv: params[3],
		U0: params[4], V0: params[5],
	}
	return cam, cam.CheckValid()
}

// CheckValid checks the parameter ranges.
func (cam *EUCM) CheckValid() error {
	if cam.W <= 0 || cam.H <= 0 {
		return errors.Errorf("invalid image size (%d, %d)", cam.W, cam.H)
	}
	if cam.Alpha < 0 || cam.Alpha > 1 {
		return errors.Errorf("alpha must be in [0, 1], got %v", cam.Alpha)
	}
	if cam.Beta <= 0 {
		return errors.Errorf("beta must be positive, got %v", cam.Beta)
	}
	if cam.Fu <= 0 || cam.Fv <= 0 {
		return errors.Errorf("focal lengths must be positive, got (%v, %v)", cam.Fu, cam.Fv)
	}
	return nil
}

// Width returns the image width.
func (cam *EUCM) Width() int { return cam.W }

// Height returns the image height.
func (cam *EUCM) Height() int { return cam.H }

// Parameters returns alpha, beta, fu, fv, u0, v0.
func (cam *EUCM) Parameters() []float64 {
	return []float64{cam.Alpha, cam.Beta, cam.Fu, cam.Fv, cam.U0, cam.V0}
}

func (cam *EUCM) String() string {
	return fmt.Sprintf("eucm %dx%d %v", cam.W, cam.H, cam.Parameters())
}

// Project fails for points behind the model's field of view.
func (cam *EUCM) Project(pt r3.Vector) (r2.Point, bool) {
	rho := math.Sqrt(cam.Beta*(pt.X*pt.X+pt.Y*pt.Y) + pt.Z*pt.Z)
	denom := cam.Alpha*rho + (1-cam.Alpha)*pt.Z
	if denom < 1e-9*rho || rho == 0 {
		return r2.Point{}, false
	}
	var w float64
	if cam.Alpha > 0.5 {
		w = (1 - cam.Alpha) / cam.Alpha
	} else {
		w = cam.Alpha / (1 - cam.Alpha)
	}
	if pt.Z <= -w*rho {
		return r2.Point{}, false
	}
	return r2.Point{X: cam.Fu*pt.X/denom + cam.U0, Y: cam.Fv*pt.Y/denom + cam.V0}, true
}

// BackProject fails outside the image circle when alpha > 0.5.
func (cam *EUCM) BackProject(px r2.Point) (r3.Vector, bool) {
	mx := (px.X - cam.U0) / cam.Fu
	my := (px.Y - cam.V0) / cam.Fv
	rSq := mx*mx + my*my
	gamma := (2*cam.Alpha - 1) * cam.Beta
	if gamma > 0 && rSq >= 1/gamma {
		return r3.Vector{}, false
	}
	mz := (1 - cam.Alpha*cam.Alpha*cam.Beta*rSq) / (cam.Alpha*math.Sqrt(1-gamma*rSq) + 1 - cam.Alpha)
	return r3.Vector{X: mx, Y: my, Z: mz}.Normalize(), true
}
