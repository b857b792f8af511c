// Package config describes a stereo rig: two cameras, the pose of the second camera in the frame
// of the first and the matching parameters.
package config

import (
	"github.com/pkg/errors"

	"go.viam.com/curvedstereo/camera"
	"go.viam.com/curvedstereo/spatialmath"
	"go.viam.com/curvedstereo/stereo"
)

// Config is the serialized form of a rig.
type Config struct {
	Camera1 camera.Config          `json:"camera_1"`
	Camera2 camera.Config          `json:"camera_2"`
	Pose    spatialmath.PoseConfig `json:"pose"`
	Stereo  stereo.Config          `json:"stereo"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if err := conf.Camera1.Validate(join(path, "camera_1")); err != nil {
		return err
	}
	if err := conf.Camera2.Validate(join(path, "camera_2")); err != nil {
		return err
	}
	if err := conf.Pose.Validate(join(path, "pose")); err != nil {
		return err
	}

	// the image size defaults to the size of camera 1
	st := conf.Stereo
	if st.ImageWidth == 0 && st.ImageHeight == 0 {
		st.ImageWidth, st.ImageHeight = conf.Camera1.Width, conf.Camera1.Height
	}
	return st.Validate(join(path, "stereo"))
}

// Rig holds what the config describes, ready for stereo.NewEnhancedStereo.
type Rig struct {
	Camera1 camera.Model
	Camera2 camera.Model
	Pose    spatialmath.Pose
	Stereo  stereo.Config
}

// Build validates the config and builds the camera models and the pose.
func (conf *Config) Build() (*Rig, error) {
	if err := conf.Validate(""); err != nil {
		return nil, err
	}
	cam1, err := camera.NewModel(&conf.Camera1)
	if err != nil {
		return nil, errors.Wrap(err, "camera_1")
	}
	cam2, err := camera.NewModel(&conf.Camera2)
	if err != nil {
		return nil, errors.Wrap(err, "camera_2")
	}
	pose, err := conf.Pose.ParseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "pose")
	}
	st := conf.Stereo
	if st.ImageWidth == 0 && st.ImageHeight == 0 {
		st.ImageWidth, st.ImageHeight = cam1.Width(), cam1.Height()
	}
	return &Rig{Camera1: cam1, Camera2: cam2, Pose: pose, Stereo: st}, nil
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
