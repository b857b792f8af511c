// Package stereo computes dense depth from two images of generic central cameras. Candidate
// correspondences of every grid cell are taken along its epipolar curve, scored into an 8 bit
// cost volume and regularized by four directional dynamic programming passes, semi global
// matching style. The winning candidates are triangulated into a rimage.DepthMap.
//
// An EnhancedStereo owns its buffers and is not safe for concurrent use; run one engine per
// goroutine, as ComputeBatch does.
package stereo

import (
	"image"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/curvedstereo/camera"
	"go.viam.com/curvedstereo/epipolar"
	"go.viam.com/curvedstereo/logging"
	"go.viam.com/curvedstereo/rimage"
	"go.viam.com/curvedstereo/spatialmath"
)

// NoDisparity marks the cells of a disparity image without an estimate.
const NoDisparity = 255

// EnhancedStereo matches images of two cameras with a fixed relative pose along curved epipolar
// lines.
type EnhancedStereo struct {
	cam1, cam2 camera.Model
	conf       Config
	grid       rimage.ScaleParameters
	logger     logging.Logger

	pose     spatialmath.Pose
	geometry *epipolar.Geometry

	volume  Volume
	left    []int32
	right   []int32
	top     []int32
	bottom  []int32
	acc     []int32
	winners []int
	costs   []int32
}

// NewEnhancedStereo validates the configuration and precomputes the epipolar curves of every grid
// cell for T12, the pose of camera 2 in the frame of camera 1.
func NewEnhancedStereo(T12 spatialmath.Pose, cam1, cam2 camera.Model, conf Config, logger logging.Logger) (*EnhancedStereo, error) {
	if cam1 == nil || cam2 == nil {
		return nil, errors.New("both camera models are required")
	}
	if err := conf.Validate("stereo"); err != nil {
		return nil, err
	}
	conf.setDefaults()
	for _, cam := range []camera.Model{cam1, cam2} {
		if cam.Width() != conf.ImageWidth || cam.Height() != conf.ImageHeight {
			return nil, errors.Errorf("camera is %dx%d but images are %dx%d",
				cam.Width(), cam.Height(), conf.ImageWidth, conf.ImageHeight)
		}
	}
	if conf.Verbosity > 0 {
		logger.SetLevel(logging.DEBUG)
	}

	grid := conf.Grid()
	size := grid.Size() * conf.DispMax
	es := &EnhancedStereo{
		cam1:    cam1,
		cam2:    cam2,
		conf:    conf,
		grid:    grid,
		logger:  logger,
		volume:  Volume{Cost: make([]uint8, size), Width: grid.XMax, Height: grid.YMax, DispMax: conf.DispMax},
		left:    make([]int32, size),
		right:   make([]int32, size),
		top:     make([]int32, size),
		bottom:  make([]int32, size),
		acc:     make([]int32, conf.DispMax),
		winners: make([]int, grid.Size()*conf.HypMax),
		costs:   make([]int32, grid.Size()*conf.HypMax),
	}

	for i := range es.winners {
		es.winners[i] = -1
	}

	start := time.Now()
	points := make([]r2.Point, 0, grid.Size())
	for y := 0; y < grid.YMax; y++ {
		for x := 0; x < grid.XMax; x++ {
			points = append(points, r2.Point{X: float64(grid.U(x)), Y: float64(grid.V(y))})
		}
	}
	es.pose = T12
	es.geometry = epipolar.NewGeometry(T12, cam1, cam2, points)
	es.logger.Debugw("epipolar curves ready", "cells", grid.Size(), "duration", time.Since(start))
	return es, nil
}

// SetTransformation recomputes the epipolar curves for a new pose before returning.
func (es *EnhancedStereo) SetTransformation(T12 spatialmath.Pose) {
	start := time.Now()
	es.pose = T12
	es.geometry.SetTransformation(T12)
	es.logger.Debugw("epipolar curves updated", "duration", time.Since(start))
}

// Transformation returns the pose of camera 2 in the frame of camera 1.
func (es *EnhancedStereo) Transformation() spatialmath.Pose { return es.pose }

// Config returns the parameters with defaults applied.
func (es *EnhancedStereo) Config() Config { return es.conf }

// Grid returns the disparity grid.
func (es *EnhancedStereo) Grid() rimage.ScaleParameters { return es.grid }

// Geometry returns the epipolar curves of the grid cells, indexed by x + y*XMax.
func (es *EnhancedStereo) Geometry() *epipolar.Geometry { return es.geometry }

// Volume returns the cost volume of the last computation.
func (es *EnhancedStereo) Volume() Volume { return es.volume }

// ComputeStereo returns the disparity image at grid resolution: the winning step along the curve
// of every cell, NoDisparity where there is no estimate.
func (es *EnhancedStereo) ComputeStereo(img1, img2 *image.Gray) (*image.Gray, error) {
	if err := es.match(img1, img2); err != nil {
		return nil, err
	}
	return es.Disparity(), nil
}

// Disparity returns the disparity image of the last computation.
func (es *EnhancedStereo) Disparity() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, es.grid.XMax, es.grid.YMax))
	for y := 0; y < es.grid.YMax; y++ {
		for x := 0; x < es.grid.XMax; x++ {
			out.Pix[y*out.Stride+x] = NoDisparity
			if d := es.winners[es.index(x, y)]; d >= 0 {
				out.Pix[y*out.Stride+x] = uint8(d)
			}
		}
	}
	return out
}

// ComputeDepth matches the images and triangulates every hypothesis of every cell.
func (es *EnhancedStereo) ComputeDepth(img1, img2 *image.Gray) (*rimage.DepthMap, error) {
	if err := es.match(img1, img2); err != nil {
		return nil, err
	}
	start := time.Now()
	depth := rimage.NewDepthMap(es.cam1, es.grid, es.conf.HypMax)
	for y := 0; y < es.grid.YMax; y++ {
		for x := 0; x < es.grid.XMax; x++ {
			for h := 0; h < es.conf.HypMax; h++ {
				idx := es.index(x, y) + h*es.grid.Size()
				d := es.winners[idx]
				if d < 0 {
					continue
				}
				dist, sigma, ok := es.distanceAt(x, y, d)
				if !ok {
					continue
				}
				depth.SetAt(x, y, h, dist)
				depth.SetSigma(x, y, h, sigma)
				depth.SetCost(x, y, h, float64(es.costs[idx]))
			}
		}
	}
	es.logger.Debugw("depth triangulated", "duration", time.Since(start))
	return depth, nil
}

func (es *EnhancedStereo) match(img1, img2 *image.Gray) error {
	if err := rimage.CheckGrayPair(img1, img2, es.conf.ImageWidth, es.conf.ImageHeight); err != nil {
		return err
	}
	img1 = rimage.MakeGray(img1)
	img2 = rimage.MakeGray(img2)

	start := time.Now()
	switch es.conf.CostMode {
	case CurveCost:
		es.ComputeCurveCost(img1, img2)
	default:
		es.ComputeCost(img1, img2)
	}
	es.logger.Debugw("cost volume computed", "mode", es.conf.CostMode, "duration", time.Since(start))

	start = time.Now()
	es.computeDynamicProgramming()
	es.logger.Debugw("dynamic programming done", "duration", time.Since(start))

	start = time.Now()
	es.reconstructDisparity()
	es.logger.Debugw("disparity selected", "duration", time.Since(start))
	return nil
}

// index returns the linear index of a grid cell.
func (es *EnhancedStereo) index(x, y int) int {
	return y*es.grid.XMax + x
}
