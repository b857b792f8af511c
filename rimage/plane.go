package rimage

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/curvedstereo/camera"
	"go.viam.com/curvedstereo/spatialmath"
)

// GeneratePlane returns the exact depth of a convex planar polygon seen by cam. The polygon lies
// in the xy plane of the frame TcameraPlane (the pose of the plane in the camera frame); its
// vertices are ordered so that every edge cross product Pi x Pj, taken in the camera frame, points
// to the inside as seen from the camera center. Cells whose ray misses the polygon or meets the
// plane at a grazing angle hold no estimate.
func GeneratePlane(cam camera.Model, params ScaleParameters, TcameraPlane spatialmath.Pose, polygon []r3.Vector) *DepthMap {
	depth := NewDepthMap(cam, params, 1)
	t := TcameraPlane.Point()
	z := TcameraPlane.Orientation().RotationMatrix().Col(2)

	normals := make([]r3.Vector, len(polygon))
	for i := range polygon {
		pi := spatialmath.TransformPoint(TcameraPlane, polygon[i])
		pj := spatialmath.TransformPoint(TcameraPlane, polygon[(i+1)%len(polygon)])
		normals[i] = pi.Cross(pj)
	}
	tz := t.Dot(z)

	for y := 0; y < params.YMax; y++ {
		for x := 0; x < params.XMax; x++ {
			ray, ok := cam.BackProject(pointAt(params, x, y))
			if !ok {
				continue
			}
			zvec := z.Dot(ray)
			if zvec < 1e-3 {
				continue
			}
			inside := true
			for _, normal := range normals {
				if ray.Dot(normal) < 0 {
					inside = false
					break
				}
			}
			if !inside {
				continue
			}
			depth.SetAt(x, y, 0, math.Abs(tz/zvec)*ray.Norm())
		}
	}
	return depth
}
