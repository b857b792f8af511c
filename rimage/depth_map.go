package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"

	"go.viam.com/curvedstereo/camera"
)

const (
	// MinDepth is the smallest depth treated as an estimate. Anything below it, including
	// OutOfRange, means "no estimate".
	MinDepth = 0.01
	// OutOfRange is returned by the Nearest lookups outside the grid.
	OutOfRange = 0.
	// DefaultSigma is the uncertainty of cells that were never estimated.
	DefaultSigma = 1.
)

// DepthMap stores up to HMax depth hypotheses per grid cell. Each hypothesis is a triple of
// depth along the pixel's ray, matching cost and sigma (standard deviation of the depth).
//
// Storage is hypothesis major: the flat index of (x, y, h) is x + y*XMax + h*XMax*YMax.
type DepthMap struct {
	ScaleParameters
	HMax int

	camera camera.Model
	hStep  int
	depth  []float64
	sigma  []float64
	cost   []float64
}

// NewDepthMap allocates a map with every hypothesis at no estimate.
func NewDepthMap(cam camera.Model, params ScaleParameters, hMax int) *DepthMap {
	if hMax < 1 {
		hMax = 1
	}
	size := params.Size() * hMax
	dm := &DepthMap{
		ScaleParameters: params,
		HMax:            hMax,
		camera:          cam,
		hStep:           params.Size(),
		depth:           make([]float64, size),
		sigma:           make([]float64, size),
		cost:            make([]float64, size),
	}
	dm.SetTo(OutOfRange, DefaultSigma)
	return dm
}

// Camera returns the model the map was computed for.
func (dm *DepthMap) Camera() camera.Model {
	return dm.camera
}

// Len returns the number of stored hypotheses over all cells.
func (dm *DepthMap) Len() int {
	return len(dm.depth)
}

// Index returns the flat index of (x, y, h).
func (dm *DepthMap) Index(x, y, h int) int {
	return x + y*dm.XMax + h*dm.hStep
}

// IsValid checks the limits.
func (dm *DepthMap) IsValid(x, y, h int) bool {
	return dm.InGrid(x, y) && h >= 0 && h < dm.HMax
}

// At returns the depth of (x, y, h).
func (dm *DepthMap) At(x, y, h int) float64 { return dm.depth[dm.Index(x, y, h)] }

// Sigma returns the uncertainty of (x, y, h).
func (dm *DepthMap) Sigma(x, y, h int) float64 { return dm.sigma[dm.Index(x, y, h)] }

// Cost returns the matching cost of (x, y, h).
func (dm *DepthMap) Cost(x, y, h int) float64 { return dm.cost[dm.Index(x, y, h)] }

// SetAt sets the depth of (x, y, h).
func (dm *DepthMap) SetAt(x, y, h int, depth float64) { dm.depth[dm.Index(x, y, h)] = depth }

// SetSigma sets the uncertainty of (x, y, h).
func (dm *DepthMap) SetSigma(x, y, h int, sigma float64) { dm.sigma[dm.Index(x, y, h)] = sigma }

// SetCost sets the matching cost of (x, y, h).
func (dm *DepthMap) SetCost(x, y, h int, cost float64) { dm.cost[dm.Index(x, y, h)] = cost }

// AtIndex returns the depth at a flat index.
func (dm *DepthMap) AtIndex(idx int) float64 { return dm.depth[idx] }

// SigmaAtIndex returns the uncertainty at a flat index.
func (dm *DepthMap) SigmaAtIndex(idx int) float64 { return dm.sigma[idx] }

// CostAtIndex returns the matching cost at a flat index.
func (dm *DepthMap) CostAtIndex(idx int) float64 { return dm.cost[idx] }

// SetAtIndex sets the depth at a flat index.
func (dm *DepthMap) SetAtIndex(idx int, depth float64) { dm.depth[idx] = depth }

// SetSigmaAtIndex sets the uncertainty at a flat index.
func (dm *DepthMap) SetSigmaAtIndex(idx int, sigma float64) { dm.sigma[idx] = sigma }

// SetCostAtIndex sets the matching cost at a flat index.
func (dm *DepthMap) SetCostAtIndex(idx int, cost float64) { dm.cost[idx] = cost }

// HasEstimate returns whether (x, y, h) is inside the map and holds a depth.
func (dm *DepthMap) HasEstimate(x, y, h int) bool {
	return dm.IsValid(x, y, h) && dm.At(x, y, h) >= MinDepth
}

// nearestIndex returns the flat index of the cell nearest to pt, or -1 outside the map.
func (dm *DepthMap) nearestIndex(pt r2.Point, h int) int {
	x, y := dm.X(pt.X), dm.Y(pt.Y)
	if !dm.IsValid(x, y, h) {
		return -1
	}
	return dm.Index(x, y, h)
}

// Nearest returns the depth of the cell nearest to the image point, or OutOfRange.
func (dm *DepthMap) Nearest(pt r2.Point, h int) float64 {
	if idx := dm.nearestIndex(pt, h); idx >= 0 {
		return dm.depth[idx]
	}
	return OutOfRange
}

// NearestSigma returns the uncertainty of the cell nearest to the image point, or OutOfRange.
func (dm *DepthMap) NearestSigma(pt r2.Point, h int) float64 {
	if idx := dm.nearestIndex(pt, h); idx >= 0 {
		return dm.sigma[idx]
	}
	return OutOfRange
}

// NearestCost returns the matching cost of the cell nearest to the image point, or OutOfRange.
func (dm *DepthMap) NearestCost(pt r2.Point, h int) float64 {
	if idx := dm.nearestIndex(pt, h); idx >= 0 {
		return dm.cost[idx]
	}
	return OutOfRange
}

// PointOf returns the image point of the cell at a flat index of any hypothesis.
func (dm *DepthMap) PointOf(idx int) r2.Point {
	cell := idx % dm.hStep
	return r2.Point{X: float64(dm.U(cell % dm.XMax)), Y: float64(dm.V(cell / dm.XMax))}
}

// PointsOf maps flat indices to image points.
func (dm *DepthMap) PointsOf(idxs []int) []r2.Point {
	pts := make([]r2.Point, len(idxs))
	for i, idx := range idxs {
		pts[i] = dm.PointOf(idx)
	}
	return pts
}

// PointVec returns the image points of all cells of all hypotheses in storage order.
func (dm *DepthMap) PointVec() []r2.Point {
	pts := make([]r2.Point, 0, len(dm.depth))
	for h := 0; h < dm.HMax; h++ {
		for y := 0; y < dm.YMax; y++ {
			for x := 0; x < dm.XMax; x++ {
				pts = append(pts, r2.Point{X: float64(dm.U(x)), Y: float64(dm.V(y))})
			}
		}
	}
	return pts
}

// ApplyMask clears every hypothesis of the cells whose image pixel is zero in mask. Cells whose
// pixel falls outside the mask are left alone.
func (dm *DepthMap) ApplyMask(mask *image.Gray) {
	for y := 0; y < dm.YMax; y++ {
		for x := 0; x < dm.XMax; x++ {
			pt := image.Point{dm.U(x), dm.V(y)}.Add(mask.Rect.Min)
			if !pt.In(mask.Rect) || mask.GrayAt(pt.X, pt.Y).Y != 0 {
				continue
			}
			for h := 0; h < dm.HMax; h++ {
				dm.SetAt(x, y, h, OutOfRange)
			}
		}
	}
}

// SetTo resets every hypothesis to the given depth and sigma, and the cost to zero.
func (dm *DepthMap) SetTo(depth, sigma float64) {
	for i := range dm.depth {
		dm.depth[i] = depth
		dm.sigma[i] = sigma
		dm.cost[i] = 0
	}
}

// Clone returns a deep copy sharing only the camera.
func (dm *DepthMap) Clone() *DepthMap {
	out := *dm
	out.depth = append([]float64(nil), dm.depth...)
	out.sigma = append([]float64(nil), dm.sigma...)
	out.cost = append([]float64(nil), dm.cost...)
	return &out
}

// ToMat returns hypothesis h of the depth as rows of the grid.
func (dm *DepthMap) ToMat(h int) [][]float64 {
	return dm.toMat(dm.depth, h)
}

// SigmaToMat returns hypothesis h of the uncertainty as rows of the grid.
func (dm *DepthMap) SigmaToMat(h int) [][]float64 {
	return dm.toMat(dm.sigma, h)
}

func (dm *DepthMap) toMat(vals []float64, h int) [][]float64 {
	out := make([][]float64, dm.YMax)
	for y := range out {
		start := dm.Index(0, y, h)
		out[y] = append([]float64(nil), vals[start:start+dm.XMax]...)
	}
	return out
}

// ToPrettyPicture renders hypothesis 0 at grid resolution: near depths bright, far depths dark,
// cells without an estimate black.
func (dm *DepthMap) ToPrettyPicture(near, far float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, dm.XMax, dm.YMax))
	span := math.Max(far-near, MinDepth)
	for y := 0; y < dm.YMax; y++ {
		for x := 0; x < dm.XMax; x++ {
			d := dm.At(x, y, 0)
			if d < MinDepth {
				continue
			}
			ratio := math.Min(math.Max((d-near)/span, 0), 1)
			img.SetGray(x, y, color.Gray{Y: uint8(255 - 200*ratio)})
		}
	}
	return img
}

// ToColorPicture renders hypothesis 0 with a hue ramp from red (near) to blue (far). Cells without
// an estimate are black.
func (dm *DepthMap) ToColorPicture(near, far float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, dm.XMax, dm.YMax))
	span := math.Max(far-near, MinDepth)
	for y := 0; y < dm.YMax; y++ {
		for x := 0; x < dm.XMax; x++ {
			d := dm.At(x, y, 0)
			if d < MinDepth {
				img.SetRGBA(x, y, color.RGBA{A: 255})
				continue
			}
			ratio := math.Min(math.Max((d-near)/span, 0), 1)
			r, g, b := colorful.Hsv(240*ratio, 1, 1).RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
