// Package synth renders synthetic scenes seen by a camera model, for tests and demos.
package synth

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/curvedstereo/camera"
	"go.viam.com/curvedstereo/spatialmath"
	"go.viam.com/curvedstereo/utils"
)

// Texture returns the intensity of a plane at plane coordinates (x, y), in meters.
type Texture func(x, y float64) uint8

// NoiseTexture returns smooth value noise made of two octaves with cells of cellSize and
// cellSize/2 meters. The same seed always gives the same texture.
func NoiseTexture(seed uint64, cellSize float64) Texture {
	return func(x, y float64) uint8 {
		coarse := valueNoise(seed, x/cellSize, y/cellSize)
		fine := valueNoise(seed+1, 2*x/cellSize, 2*y/cellSize)
		return uint8(math.Round(20 + 215*(0.6*coarse+0.4*fine)))
	}
}

// valueNoise interpolates random lattice values in [0, 1] with a smoothstep.
func valueNoise(seed uint64, x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := smoothstep(x-x0), smoothstep(y-y0)
	i, j := int64(x0), int64(y0)
	v00 := latticeValue(seed, i, j)
	v10 := latticeValue(seed, i+1, j)
	v01 := latticeValue(seed, i, j+1)
	v11 := latticeValue(seed, i+1, j+1)
	top := v00 + (v10-v00)*fx
	bottom := v01 + (v11-v01)*fx
	return top + (bottom-top)*fy
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// latticeValue hashes a lattice node with splitmix64.
func latticeValue(seed uint64, i, j int64) float64 {
	z := seed + uint64(i)*0x9e3779b97f4a7c15 + uint64(j)*0xc2b2ae3d27d4eb4f
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return float64(z>>11) / float64(1<<53)
}

// Plane is a textured rectangle of the xy plane of the frame Pose, centered on its origin.
type Plane struct {
	Pose       spatialmath.Pose
	HalfWidth  float64
	HalfHeight float64
	Texture    Texture
}

// Polygon returns the corners of the plane in its own frame, ordered for rimage.GeneratePlane
// when the plane's z axis points away from the camera.
func (p Plane) Polygon() []r3.Vector {
	return []r3.Vector{
		{X: -p.HalfWidth, Y: -p.HalfHeight},
		{X: p.HalfWidth, Y: -p.HalfHeight},
		{X: p.HalfWidth, Y: p.HalfHeight},
		{X: -p.HalfWidth, Y: p.HalfHeight},
	}
}

// Intersect returns the plane coordinates where the ray from origin along dir, both in the world
// frame, hits the plane and the distance to the hit.
func (p Plane) Intersect(origin, dir r3.Vector) (r2.Point, float64, bool) {
	o := spatialmath.InverseTransformPoint(p.Pose, origin)
	d := spatialmath.InverseRotatePoint(p.Pose, dir)
	if math.Abs(d.Z) < 1e-9 {
		return r2.Point{}, 0, false
	}
	lambda := -o.Z / d.Z
	if lambda <= 0 {
		return r2.Point{}, 0, false
	}
	hit := o.Add(d.Mul(lambda))
	if math.Abs(hit.X) > p.HalfWidth || math.Abs(hit.Y) > p.HalfHeight {
		return r2.Point{}, 0, false
	}
	return r2.Point{X: hit.X, Y: hit.Y}, lambda * d.Norm(), true
}

// RenderPlane renders the plane seen by cam placed at cameraPose in the world frame. Pixels that
// miss the plane get the background intensity.
func RenderPlane(cam camera.Model, cameraPose spatialmath.Pose, plane Plane, background uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, cam.Width(), cam.Height()))
	origin := cameraPose.Point()
	utils.ParallelForEachRow(img.Rect.Size(), func(v int) {
		row := img.Pix[v*img.Stride : v*img.Stride+img.Rect.Dx()]
		for u := range row {
			row[u] = background
			ray, ok := cam.BackProject(r2.Point{X: float64(u), Y: float64(v)})
			if !ok {
				continue
			}
			if pt, _, ok := plane.Intersect(origin, spatialmath.RotatePoint(cameraPose, ray)); ok {
				row[u] = plane.Texture(pt.X, pt.Y)
			}
		}
	})
	return img
}
