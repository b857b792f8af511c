package camera

import (
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Supported model names.
const (
	EUCMModel    = "eucm"
	PinholeModel = "pinhole"
)

// Config describes one camera of a rig.
type Config struct {
	Model      string    `json:"model"`
	Width      int       `json:"width_px"`
	Height     int       `json:"height_px"`
	Parameters []float64 `json:"parameters"`
	Distortion []float64 `json:"distortion,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.Model == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "model")
	}
	if conf.Width <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "width_px")
	}
	if conf.Height <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "height_px")
	}
	if len(conf.Parameters) == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "parameters")
	}
	if _, err := NewModel(conf); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// NewModel builds the camera model the config describes.
func NewModel(conf *Config) (Model, error) {
	switch conf.Model {
	case EUCMModel:
		if len(conf.Distortion) > 0 {
			return nil, errors.New("eucm does not take distortion parameters")
		}
		return NewEUCM(conf.Width, conf.Height, conf.Parameters)
	case PinholeModel:
		return NewPinhole(conf.Width, conf.Height, conf.Parameters, conf.Distortion)
	default:
		return nil, errors.Errorf("unknown camera model %q", conf.Model)
	}
}
