// Package camera defines the projection models used by the stereo engine. A model maps unit
// rays in the camera frame to pixels and back; either direction may fail for points outside the
// model's domain.
package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Model is a generalized central camera.
type Model interface {
	Width() int
	Height() int
	// Project maps a point in the camera frame to a pixel.
	Project(pt r3.Vector) (r2.Point, bool)
	// BackProject maps a pixel to a unit ray in the camera frame.
	BackProject(px r2.Point) (r3.Vector, bool)
}

// ProjectPointCloud projects every point. Failed entries are left at the zero pixel and flagged
// false in the mask.
func ProjectPointCloud(m Model, pts []r3.Vector) ([]r2.Point, []bool) {
	pixels := make([]r2.Point, len(pts))
	mask := make([]bool, len(pts))
	for i, pt := range pts {
		pixels[i], mask[i] = m.Project(pt)
		if !mask[i] {
			pixels[i] = r2.Point{}
		}
	}
	return pixels, mask
}

// ReconstructPointCloud back projects every pixel. Failed entries are left at the zero vector and
// flagged false in the mask.
func ReconstructPointCloud(m Model, pixels []r2.Point) ([]r3.Vector, []bool) {
	rays := make([]r3.Vector, len(pixels))
	mask := make([]bool, len(pixels))
	for i, px := range pixels {
		rays[i], mask[i] = m.BackProject(px)
		if !mask[i] {
			rays[i] = r3.Vector{}
		}
	}
	return rays, mask
}

// InImage returns whether the pixel lies within the image of m.
func InImage(m Model, px r2.Point) bool {
	return px.X >= 0 && px.Y >= 0 && px.X <= float64(m.Width()-1) && px.Y <= float64(m.Height()-1)
}
