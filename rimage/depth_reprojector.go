package rimage

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/curvedstereo/spatialmath"
)

// DepthReprojector cross checks depth maps computed from different viewpoints.
type DepthReprojector struct{}

// WrapDepth checks d1 against d2, where T12 is the pose of d2's camera in d1's frame. Every
// estimate of d1 is moved into frame 2, projected into d2 and looked up there; the point found
// in d2 is moved back to frame 1 and projected onto the ray of the original cell. The result has
// d1's grid with that projected distance as depth and d2's sigma. Cells without a round trip
// correspondence hold depth 0 and DefaultSigma.
func (DepthReprojector) WrapDepth(d1, d2 *DepthMap, T12 spatialmath.Pose) *DepthMap {
	idx0, cloud11 := d1.ReconstructValid()

	cloud12 := make([]r3.Vector, len(cloud11))
	for i, pt := range cloud11 {
		cloud12[i] = spatialmath.InverseTransformPoint(T12, pt)
	}
	point12, projected := d2.Project(cloud12)

	// only query points that made it into image 2
	queries := make([]r2.Point, 0, len(point12))
	queryOrigin := make([]int, 0, len(point12))
	for i, pt := range point12 {
		if projected[i] {
			queries = append(queries, pt)
			queryOrigin = append(queryOrigin, i)
		}
	}
	idx1, cloud22 := d2.ReconstructQuery(queries)

	output := d1.Clone()
	output.SetTo(0, DefaultSigma)
	for i, q := range idx1 {
		src := queryOrigin[q]
		x2 := spatialmath.TransformPoint(T12, cloud22[i])
		x1 := cloud11[src]
		output.SetAtIndex(idx0[src], x2.Dot(x1.Normalize()))
		output.SetSigmaAtIndex(idx0[src], d2.NearestSigma(queries[q], 0))
	}
	return output
}
