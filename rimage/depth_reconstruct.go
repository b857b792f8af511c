package rimage

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/curvedstereo/camera"
)

// ReconstructionFlags selects what DepthMap.Reconstruct enumerates and records. The flags are
// independent; every combination is meaningful.
type ReconstructionFlags struct {
	// WithSigma stores each point's sigma in MHPack.Values. Otherwise Values holds zeros.
	WithSigma bool
	// MinMaxDistanceWithEmpty fills MHPack.MinDistances and MaxDistances with depth -/+ 2 sigma
	// (the near bound clamped to MinDepth) and keeps entries without an estimate as empty
	// entries: null point, false mask, zero depth bounds. The output then stays aligned with the
	// enumeration of cells or query points.
	MinMaxDistanceWithEmpty bool
	// QueryPoints reconstructs at MHPack.ImagePoints, snapped to the nearest cell, instead of
	// enumerating all cells.
	QueryPoints bool
	// AllHypotheses enumerates every hypothesis instead of hypothesis 0 only.
	AllHypotheses bool
}

// MHPack carries the result of a multi-hypothesis reconstruction. All slices are parallel.
type MHPack struct {
	// ImagePoints is the query input when QueryPoints is set. Reconstruct never modifies it.
	ImagePoints []r2.Point
	// Points holds the image point of every entry: the center of its cell, or the raw query point
	// for empty entries outside the grid.
	Points []r2.Point
	// Cloud holds the reconstructed points in the camera frame; the null vector where
	// back projection failed or the entry is empty.
	Cloud []r3.Vector
	// Mask is false where Cloud holds no point.
	Mask []bool
	// Index is the cell index (x + y*XMax) of each entry, -1 for empty entries off the grid.
	Index      []int
	Hypothesis []int
	Cost       []float64
	Values     []float64

	MinDistances []float64
	MaxDistances []float64
}

func (pack *MHPack) reset(capacity int) {
	pack.Cloud = make([]r3.Vector, 0, capacity)
	pack.Mask = make([]bool, 0, capacity)
	pack.Index = make([]int, 0, capacity)
	pack.Hypothesis = make([]int, 0, capacity)
	pack.Cost = make([]float64, 0, capacity)
	pack.Values = make([]float64, 0, capacity)
	pack.MinDistances = nil
	pack.MaxDistances = nil
}

// Reconstruct fills pack with a point for each hypothesis holding an estimate, scaling the unit
// ray of the cell by the depth. See ReconstructionFlags for the enumeration rules.
func (dm *DepthMap) Reconstruct(pack *MHPack, flags ReconstructionFlags) {
	hypSize := 1
	if flags.AllHypotheses {
		hypSize = dm.HMax
	}

	var (
		depths []float64
		points []r2.Point
		minMax = flags.MinMaxDistanceWithEmpty
	)
	addEntry := func(pt r2.Point, cell, h, idx int) {
		points = append(points, pt)
		pack.Index = append(pack.Index, cell)
		pack.Hypothesis = append(pack.Hypothesis, h)
		if idx < 0 || dm.depth[idx] < MinDepth {
			depths = append(depths, 0)
			pack.Cost = append(pack.Cost, 0)
			pack.Values = append(pack.Values, 0)
			return
		}
		depths = append(depths, dm.depth[idx])
		pack.Cost = append(pack.Cost, dm.cost[idx])
		if flags.WithSigma {
			pack.Values = append(pack.Values, dm.sigma[idx])
		} else {
			pack.Values = append(pack.Values, 0)
		}
	}

	if !flags.QueryPoints {
		pack.reset(hypSize * dm.hStep)
		for i := 0; i < hypSize*dm.hStep; i++ {
			if dm.depth[i] < MinDepth && !minMax {
				continue
			}
			addEntry(dm.PointOf(i), i%dm.hStep, i/dm.hStep, i)
		}
	} else {
		queries := pack.ImagePoints
		pack.reset(hypSize * len(queries))
		for _, query := range queries {
			for h := 0; h < hypSize; h++ {
				idx := dm.nearestIndex(query, h)
				hasEstimate := idx >= 0 && dm.depth[idx] >= MinDepth
				switch {
				case hasEstimate:
					addEntry(dm.PointOf(idx), idx%dm.hStep, h, idx)
				case minMax && idx >= 0:
					addEntry(dm.PointOf(idx), idx%dm.hStep, h, -1)
				case minMax:
					addEntry(query, -1, h, -1)
				}
			}
		}
	}
	pack.Points = points

	if minMax {
		pack.MinDistances = make([]float64, len(depths))
		pack.MaxDistances = make([]float64, len(depths))
	}
	for i, pt := range points {
		var ray r3.Vector
		ok := depths[i] >= MinDepth
		if ok {
			ray, ok = dm.camera.BackProject(pt)
		}
		pack.Mask = append(pack.Mask, ok)
		if !ok {
			pack.Cloud = append(pack.Cloud, r3.Vector{})
			continue
		}
		pack.Cloud = append(pack.Cloud, ray.Normalize().Mul(depths[i]))
		if minMax {
			sigma := dm.sigma[pack.Index[i]+pack.Hypothesis[i]*dm.hStep]
			pack.MinDistances[i] = math.Max(MinDepth, depths[i]-2*sigma)
			pack.MaxDistances[i] = depths[i] + 2*sigma
		}
	}
}

// ReconstructUncertainty returns, for every hypothesis holding an estimate, its flat index and
// the points at depth - 2 sigma (clamped to MinDepth) and depth + 2 sigma along its ray.
func (dm *DepthMap) ReconstructUncertainty() (idxs []int, near, far []r3.Vector) {
	var minVec, maxVec []float64
	var candidates []int
	for i, d := range dm.depth {
		if d < MinDepth {
			continue
		}
		minVec = append(minVec, math.Max(MinDepth, d-2*dm.sigma[i]))
		maxVec = append(maxVec, d+2*dm.sigma[i])
		candidates = append(candidates, i)
	}

	rays, mask := camera.ReconstructPointCloud(dm.camera, dm.PointsOf(candidates))
	for i, ray := range rays {
		if !mask[i] {
			continue
		}
		unit := ray.Normalize()
		near = append(near, unit.Mul(minVec[i]))
		far = append(far, unit.Mul(maxVec[i]))
		idxs = append(idxs, candidates[i])
	}
	return idxs, near, far
}

// ReconstructValid returns the flat index and the point of every hypothesis holding an estimate
// whose cell can be back projected.
func (dm *DepthMap) ReconstructValid() (idxs []int, cloud []r3.Vector) {
	var candidates []int
	for i, d := range dm.depth {
		if d >= MinDepth {
			candidates = append(candidates, i)
		}
	}
	rays, mask := camera.ReconstructPointCloud(dm.camera, dm.PointsOf(candidates))
	for i, ray := range rays {
		if mask[i] {
			cloud = append(cloud, ray.Normalize().Mul(dm.depth[candidates[i]]))
			idxs = append(idxs, candidates[i])
		}
	}
	return idxs, cloud
}

// ReconstructQuery reconstructs hypothesis 0 at each query point. Unlike Reconstruct, the point
// keeps the exact ray of the query pixel. idxs holds positions in queries.
func (dm *DepthMap) ReconstructQuery(queries []r2.Point) (idxs []int, cloud []r3.Vector) {
	rays, mask := camera.ReconstructPointCloud(dm.camera, queries)
	for i, query := range queries {
		if !mask[i] {
			continue
		}
		d := dm.Nearest(query, 0)
		if d < MinDepth {
			continue
		}
		cloud = append(cloud, rays[i].Normalize().Mul(d))
		idxs = append(idxs, i)
	}
	return idxs, cloud
}

// Project projects points of the camera frame into the image of the map's camera.
func (dm *DepthMap) Project(points []r3.Vector) ([]r2.Point, []bool) {
	return camera.ProjectPointCloud(dm.camera, points)
}
