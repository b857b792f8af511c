package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// PoseConfig is the serialized form of a pose. The orientation is an axis angle with the angle in
// radians; an omitted orientation means no rotation.
type PoseConfig struct {
	Translation r3.Vector `json:"translation"`
	Orientation *R4AA     `json:"orientation,omitempty"`
}

// NewPoseConfig converts a Pose into its serialized form.
func NewPoseConfig(p Pose) *PoseConfig {
	aa := p.Orientation().AxisAngles()
	return &PoseConfig{Translation: p.Point(), Orientation: aa}
}

// Validate checks that the orientation axis, when given, is not the zero vector.
func (config *PoseConfig) Validate(path string) error {
	if config.Orientation == nil {
		return nil
	}
	o := config.Orientation
	if o.Theta != 0 && o.RX == 0 && o.RY == 0 && o.RZ == 0 {
		return utils.NewConfigValidationError(path, errors.New("orientation has a rotation angle but no axis"))
	}
	return nil
}

// ParseConfig converts the config into a Pose.
func (config *PoseConfig) ParseConfig() (Pose, error) {
	if err := config.Validate(""); err != nil {
		return nil, err
	}
	if config.Orientation == nil {
		return NewPoseFromPoint(config.Translation), nil
	}
	aa := *config.Orientation
	aa.Normalize()
	return NewPose(config.Translation, &aa), nil
}
