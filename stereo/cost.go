package stereo

import (
	"image"

	"github.com/golang/geo/r2"

	"go.viam.com/curvedstereo/rimage"
	"go.viam.com/curvedstereo/utils"
)

// InvalidCost marks candidates that could not be compared. Valid costs are at most InvalidCost-1.
const InvalidCost = 255

// Volume is a cost volume over a disparity grid. The costs of cell (x, y) are the DispMax values
// starting at Index(x, y).
type Volume struct {
	Cost    []uint8
	Width   int
	Height  int
	DispMax int
}

// Index returns the offset of the costs of cell (x, y).
func (vol Volume) Index(x, y int) int {
	return (y*vol.Width + x) * vol.DispMax
}

// At returns the cost of step d at cell (x, y).
func (vol Volume) At(x, y, d int) uint8 {
	return vol.Cost[vol.Index(x, y)+d]
}

func (vol Volume) cell(x, y int) []uint8 {
	base := vol.Index(x, y)
	return vol.Cost[base : base+vol.DispMax]
}

func clampCost(sum, count int) uint8 {
	return uint8(utils.ClampInt((sum+count/2)/count, 0, InvalidCost-1))
}

func fillInvalid(costs []uint8) {
	for d := range costs {
		costs[d] = InvalidCost
	}
}

// ComputeCost fills the volume with the mean absolute difference between the block around every
// cell in img1 and the blocks around the first DispMax pixels of its curve in img2. Candidates
// whose block leaves img2 get InvalidCost. A degenerate curve only has step 0, at the projection
// at infinity.
func (es *EnhancedStereo) ComputeCost(img1, img2 *image.Gray) {
	half := es.conf.HalfBlockSize()
	bounds2 := img2.Bounds().Inset(half)
	for y := 0; y < es.grid.YMax; y++ {
		for x := 0; x < es.grid.XMax; x++ {
			costs := es.volume.cell(x, y)
			fillInvalid(costs)
			center := image.Point{es.grid.U(x), es.grid.V(y)}
			curve := es.geometry.Curve(es.index(x, y))
			if !curve.Valid {
				continue
			}
			if curve.Degenerate {
				if curve.Start.In(bounds2) {
					costs[0] = blockCost(img1, img2, center, curve.Start, half)
				}
				continue
			}
			cr, _ := es.geometry.Curve2(es.index(x, y))
			for d := 0; d < es.conf.DispMax; d++ {
				if pt := cr.Point(); pt.In(bounds2) {
					costs[d] = blockCost(img1, img2, center, pt, half)
				}
				cr.Step()
			}
		}
	}
}

func blockCost(img1, img2 *image.Gray, p1, p2 image.Point, half int) uint8 {
	sum := 0
	for dv := -half; dv <= half; dv++ {
		row1 := img1.Pix[(p1.Y+dv)*img1.Stride:]
		row2 := img2.Pix[(p2.Y+dv)*img2.Stride:]
		for du := -half; du <= half; du++ {
			sum += utils.AbsInt(int(row1[p1.X+du]) - int(row2[p2.X+du]))
		}
	}
	side := 2*half + 1
	return clampCost(sum, side*side)
}

// ComputeCurveCost fills the volume comparing 1D profiles of 2S-1 pixels, S being the block side.
// The profile of img1 is sampled along the epipolar direction of the cell, the profiles of img2
// along its curve, from S-1 steps before the projection at infinity. Any sample out of its image
// makes the candidate InvalidCost. Degenerate curves fall back to the block comparison at step 0.
func (es *EnhancedStereo) ComputeCurveCost(img1, img2 *image.Gray) {
	half := es.conf.HalfBlockSize()
	side := 2*half + 1
	length := 2*side - 1
	profile1 := make([]int, length)
	profile2 := make([]int, es.conf.DispMax+length-1)
	bounds1 := img1.Bounds()
	bounds2 := img2.Bounds()
	for y := 0; y < es.grid.YMax; y++ {
		for x := 0; x < es.grid.XMax; x++ {
			costs := es.volume.cell(x, y)
			fillInvalid(costs)
			idx := es.index(x, y)
			center := image.Point{es.grid.U(x), es.grid.V(y)}
			curve := es.geometry.Curve(idx)
			if !curve.Valid {
				continue
			}
			if curve.Degenerate {
				if curve.Start.In(bounds2.Inset(half)) {
					costs[0] = blockCost(img1, img2, center, curve.Start, half)
				}
				continue
			}

			// image 2 walks towards closer points, which moves the image 1 correspondence
			// against the epipolar direction
			dir := es.geometry.EpipolarDirection(idx).Mul(-1)
			if !sampleProfile(img1, bounds1, center, dir, profile1) {
				continue
			}
			cr, _ := es.geometry.Curve2(idx)
			cr.Steps(-(side - 1))
			for i := range profile2 {
				if pt := cr.Point(); pt.In(bounds2) {
					profile2[i] = int(rimage.GrayAt(img2, pt.X, pt.Y))
				} else {
					profile2[i] = -1
				}
				cr.Step()
			}
			for d := range costs {
				costs[d] = profileCost(profile1, profile2[d:d+length])
			}
		}
	}
}

// sampleProfile reads len(out) pixels centered on center along dir with nearest sampling. It
// fails when a sample falls out of bounds.
func sampleProfile(img *image.Gray, bounds image.Rectangle, center image.Point, dir r2.Point, out []int) bool {
	half := len(out) / 2
	for i := range out {
		offset := dir.Mul(float64(i - half))
		pt := image.Point{center.X + utils.RoundInt(offset.X), center.Y + utils.RoundInt(offset.Y)}
		if !pt.In(bounds) {
			return false
		}
		out[i] = int(rimage.GrayAt(img, pt.X, pt.Y))
	}
	return true
}

func profileCost(profile1, profile2 []int) uint8 {
	sum := 0
	for i, val := range profile1 {
		if profile2[i] < 0 {
			return InvalidCost
		}
		sum += utils.AbsInt(val - profile2[i])
	}
	return clampCost(sum, len(profile1))
}
