package stereo

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"go.viam.com/curvedstereo/camera"
	"go.viam.com/curvedstereo/logging"
	"go.viam.com/curvedstereo/rimage"
	"go.viam.com/curvedstereo/spatialmath"
	"go.viam.com/curvedstereo/utils"
)

// Pair is one stereo computation of a batch: the two images and the pose of camera 2 in the frame
// of camera 1 when they were taken.
type Pair struct {
	Pose   spatialmath.Pose
	Image1 *image.Gray
	Image2 *image.Gray
}

// ComputeBatch computes the depth maps of many pairs of the same rig. Pairs are split into
// contiguous groups, each run on its own goroutine by its own engine, which only updates its
// curves between pairs. The result is indexed like pairs; the entries of failed pairs are nil.
func ComputeBatch(
	ctx context.Context,
	cam1, cam2 camera.Model,
	conf Config,
	pairs []Pair,
	logger logging.Logger,
) ([]*rimage.DepthMap, error) {
	if err := conf.Validate("stereo"); err != nil {
		return nil, err
	}
	results := make([]*rimage.DepthMap, len(pairs))
	err := utils.GroupWorkParallel(
		ctx,
		len(pairs),
		func(numGroups int) {
			logger.Debugw("batch started", "pairs", len(pairs), "groups", numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			var engine *EnhancedStereo
			groupLogger := logger.Sublogger("batch")
			return func(memberNum, workNum int) error {
				pair := pairs[workNum]
				if pair.Pose == nil {
					return errors.Errorf("pair %d has no pose", workNum)
				}
				if engine == nil {
					var err error
					engine, err = NewEnhancedStereo(pair.Pose, cam1, cam2, conf, groupLogger)
					if err != nil {
						return err
					}
				} else {
					engine.SetTransformation(pair.Pose)
				}
				depth, err := engine.ComputeDepth(pair.Image1, pair.Image2)
				if err != nil {
					return errors.Wrapf(err, "pair %d", workNum)
				}
				results[workNum] = depth
				return nil
			}, func() {
				groupLogger.Debugw("group done", "group", groupNum, "pairs", groupSize)
			}
		},
	)
	return results, err
}
