package stereo

import (
	"gonum.org/v1/gonum/floats"
)

// DynamicStep propagates the accumulated costs of the previous cell of a scan line to the current
// one:
//
//	out[d] = errs[d] + min(in[d], in[d-1]+lambdaStep, in[d+1]+lambdaStep, min(in)+lambdaJump) - min(in)
//
// Subtracting min(in) keeps every output within [0, 255+lambdaJump] however long the line is.
func DynamicStep(inCost []int32, errs []uint8, outCost []int32, lambdaStep, lambdaJump int32) {
	minPrev := inCost[0]
	for _, c := range inCost[1:] {
		minPrev = min(minPrev, c)
	}
	jump := minPrev + lambdaJump
	last := len(inCost) - 1
	for d := range outCost {
		best := min(inCost[d], jump)
		if d > 0 {
			best = min(best, inCost[d-1]+lambdaStep)
		}
		if d < last {
			best = min(best, inCost[d+1]+lambdaStep)
		}
		outCost[d] = int32(errs[d]) + best - minPrev
	}
}

func initLine(vol Volume, tableau []int32, x, y int) {
	base := vol.Index(x, y)
	for d, e := range vol.cell(x, y) {
		tableau[base+d] = int32(e)
	}
}

func stepLine(vol Volume, tableau []int32, fromX, fromY, x, y int, lambdaStep, lambdaJump int32) {
	prev := vol.Index(fromX, fromY)
	cur := vol.Index(x, y)
	DynamicStep(tableau[prev:prev+vol.DispMax], vol.cell(x, y), tableau[cur:cur+vol.DispMax], lambdaStep, lambdaJump)
}

// ScanLeft fills tableau with the costs accumulated along rows from left to right.
func ScanLeft(vol Volume, tableau []int32, lambdaStep, lambdaJump int32) {
	for y := 0; y < vol.Height; y++ {
		initLine(vol, tableau, 0, y)
		for x := 1; x < vol.Width; x++ {
			stepLine(vol, tableau, x-1, y, x, y, lambdaStep, lambdaJump)
		}
	}
}

// ScanRight fills tableau with the costs accumulated along rows from right to left.
func ScanRight(vol Volume, tableau []int32, lambdaStep, lambdaJump int32) {
	for y := 0; y < vol.Height; y++ {
		initLine(vol, tableau, vol.Width-1, y)
		for x := vol.Width - 2; x >= 0; x-- {
			stepLine(vol, tableau, x+1, y, x, y, lambdaStep, lambdaJump)
		}
	}
}

// ScanTop fills tableau with the costs accumulated along columns from top to bottom.
func ScanTop(vol Volume, tableau []int32, lambdaStep, lambdaJump int32) {
	for x := 0; x < vol.Width; x++ {
		initLine(vol, tableau, x, 0)
		for y := 1; y < vol.Height; y++ {
			stepLine(vol, tableau, x, y-1, x, y, lambdaStep, lambdaJump)
		}
	}
}

// ScanBottom fills tableau with the costs accumulated along columns from bottom to top.
func ScanBottom(vol Volume, tableau []int32, lambdaStep, lambdaJump int32) {
	for x := 0; x < vol.Width; x++ {
		initLine(vol, tableau, x, vol.Height-1)
		for y := vol.Height - 2; y >= 0; y-- {
			stepLine(vol, tableau, x, y+1, x, y, lambdaStep, lambdaJump)
		}
	}
}

func (es *EnhancedStereo) computeDynamicProgramming() {
	lambdaStep, lambdaJump := int32(es.conf.LambdaStep), int32(es.conf.LambdaJump)
	ScanLeft(es.volume, es.left, lambdaStep, lambdaJump)
	ScanRight(es.volume, es.right, lambdaStep, lambdaJump)
	ScanTop(es.volume, es.top, lambdaStep, lambdaJump)
	ScanBottom(es.volume, es.bottom, lambdaStep, lambdaJump)
}

// reconstructDisparity sums the four tableaus and the raw cost of every cell and keeps the HypMax
// lowest local minima that pass the plausibility checks. Hypothesis 0 is the global minimum.
func (es *EnhancedStereo) reconstructDisparity() {
	cells := es.grid.Size()
	minima := make([]float64, 0, es.conf.DispMax)
	steps := make([]int, 0, es.conf.DispMax)
	order := make([]int, es.conf.DispMax)
	for y := 0; y < es.grid.YMax; y++ {
		for x := 0; x < es.grid.XMax; x++ {
			idx := es.index(x, y)
			for h := 0; h < es.conf.HypMax; h++ {
				es.winners[idx+h*cells] = -1
				es.costs[idx+h*cells] = 0
			}

			errs := es.volume.cell(x, y)
			base := es.volume.Index(x, y)
			minErr := uint8(InvalidCost)
			for d, e := range errs {
				es.acc[d] = es.left[base+d] + es.right[base+d] + es.top[base+d] + es.bottom[base+d] + int32(e)
				minErr = min(minErr, e)
			}
			if minErr == InvalidCost {
				continue
			}

			minima, steps = minima[:0], steps[:0]
			for d, a := range es.acc {
				if (d > 0 && es.acc[d-1] < a) || (d < len(es.acc)-1 && es.acc[d+1] < a) {
					continue
				}
				// ties go to the smaller step
				minima = append(minima, float64(a)+float64(d)*1e-3)
				steps = append(steps, d)
			}
			floats.Argsort(minima, order[:len(minima)])

			h := 0
			for _, k := range order[:len(minima)] {
				if h == es.conf.HypMax {
					break
				}
				d := steps[k]
				if !es.plausible(errs[d], minErr) {
					// the best hypothesis decides whether the cell has an estimate at all
					if h == 0 {
						break
					}
					continue
				}
				es.winners[idx+h*cells] = d
				es.costs[idx+h*cells] = es.acc[d]
				h++
			}
		}
	}
}

func (es *EnhancedStereo) plausible(err, minErr uint8) bool {
	if err == InvalidCost || int(err) > int(minErr)+es.conf.MaxBias {
		return false
	}
	return es.conf.FlawCost == 0 || int(err) <= es.conf.FlawCost
}
