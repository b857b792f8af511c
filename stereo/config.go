package stereo

import (
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/curvedstereo/rimage"
)

// CostMode selects the local descriptor compared along the epipolar curves.
type CostMode string

const (
	// BlockCost compares square blocks of side 2*(scale/2)+1.
	BlockCost CostMode = "block"
	// CurveCost compares 1D profiles sampled along the epipolar curves.
	CurveCost CostMode = "curve"
)

// Default values of the zero fields of a Config.
const (
	DefaultDispMax     = 48
	DefaultScale       = 3
	DefaultLambdaStep  = 5
	DefaultLambdaJump  = 32
	DefaultMaxBias     = 10
	DefaultMaxDistance = 100.
)

// Config holds the stereo parameters. Zero fields take the defaults above.
type Config struct {
	// UMargin and VMargin are the upper left corner of the region of interest.
	UMargin int `json:"u_margin,omitempty"`
	VMargin int `json:"v_margin,omitempty"`
	// Width and Height are the size of the region of interest. When not positive, the region
	// extends to the image border minus the margin.
	Width       int `json:"width,omitempty"`
	Height      int `json:"height,omitempty"`
	ImageWidth  int `json:"image_width"`
	ImageHeight int `json:"image_height"`

	// DispMax is the number of candidates searched along each curve. It must be even.
	DispMax     int     `json:"disparity_max,omitempty"`
	Scale       int     `json:"scale,omitempty"`
	LambdaStep  int     `json:"lambda_step,omitempty"`
	LambdaJump  int     `json:"lambda_jump,omitempty"`
	MaxBias     int     `json:"max_bias,omitempty"`
	MaxDistance float64 `json:"max_distance,omitempty"`
	Verbosity   int     `json:"verbosity,omitempty"`
	HypMax      int     `json:"hypothesis_max,omitempty"`

	CostMode CostMode `json:"cost_mode,omitempty"`
	// FlawCost rejects cells whose winning raw cost is above it. 0 disables the check.
	FlawCost int `json:"flaw_cost,omitempty"`
}

// NewDefaultConfig returns the default parameters for images of the given size.
func NewDefaultConfig(imageWidth, imageHeight int) Config {
	conf := Config{ImageWidth: imageWidth, ImageHeight: imageHeight}
	conf.setDefaults()
	return conf
}

// WithDefaults returns a copy of the config with zero fields set to their defaults.
func (conf Config) WithDefaults() Config {
	conf.setDefaults()
	return conf
}

func (conf *Config) setDefaults() {
	if conf.DispMax == 0 {
		conf.DispMax = DefaultDispMax
	}
	if conf.Scale == 0 {
		conf.Scale = DefaultScale
	}
	if conf.LambdaStep == 0 {
		conf.LambdaStep = DefaultLambdaStep
	}
	if conf.LambdaJump == 0 {
		conf.LambdaJump = DefaultLambdaJump
	}
	if conf.MaxBias == 0 {
		conf.MaxBias = DefaultMaxBias
	}
	if conf.MaxDistance == 0 {
		conf.MaxDistance = DefaultMaxDistance
	}
	if conf.HypMax == 0 {
		conf.HypMax = 1
	}
	if conf.CostMode == "" {
		conf.CostMode = BlockCost
	}
}

// Validate ensures all parts of the config are valid once defaults are applied.
func (conf *Config) Validate(path string) error {
	c := *conf
	c.setDefaults()
	if c.ImageWidth <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "image_width")
	}
	if c.ImageHeight <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "image_height")
	}
	if c.DispMax < 0 || c.DispMax%2 != 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("disparity_max must be positive and even, got %d", c.DispMax))
	}
	if c.DispMax > 254 {
		return utils.NewConfigValidationError(path, errors.Errorf("disparity_max must fit in a disparity image, got %d", c.DispMax))
	}
	if c.Scale < 1 {
		return utils.NewConfigValidationError(path, errors.Errorf("scale must be at least 1, got %d", c.Scale))
	}
	if c.UMargin < 0 || c.VMargin < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("margins must not be negative, got (%d, %d)", c.UMargin, c.VMargin))
	}
	if c.LambdaStep < 0 || c.LambdaJump < 0 || c.MaxBias < 0 || c.FlawCost < 0 {
		return utils.NewConfigValidationError(path, errors.New("penalties and thresholds must not be negative"))
	}
	if c.MaxDistance < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("max_distance must not be negative, got %v", c.MaxDistance))
	}
	if c.HypMax < 1 {
		return utils.NewConfigValidationError(path, errors.Errorf("hypothesis_max must be at least 1, got %d", c.HypMax))
	}
	if c.CostMode != BlockCost && c.CostMode != CurveCost {
		return utils.NewConfigValidationError(path, errors.Errorf("unknown cost_mode %q", c.CostMode))
	}
	grid := c.Grid()
	if grid.XMax <= 0 || grid.YMax <= 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("region of interest is empty, grid is %dx%d", grid.XMax, grid.YMax))
	}
	if grid.U(grid.XMax-1)+c.HalfBlockSize() >= c.ImageWidth || grid.V(grid.YMax-1)+c.HalfBlockSize() >= c.ImageHeight {
		return utils.NewConfigValidationError(path, errors.New("region of interest exceeds the image"))
	}
	return nil
}

// Grid returns the disparity grid of the region of interest. The first cell sits one scale away
// from the margin so that blocks stay inside the image.
func (conf Config) Grid() rimage.ScaleParameters {
	u0 := conf.UMargin + conf.Scale
	v0 := conf.VMargin + conf.Scale
	uMax := conf.ImageWidth - conf.UMargin - conf.Scale
	if conf.Width > 0 {
		uMax = u0 + conf.Width
	}
	vMax := conf.ImageHeight - conf.VMargin - conf.Scale
	if conf.Height > 0 {
		vMax = v0 + conf.Height
	}
	grid := rimage.ScaleParameters{U0: u0, V0: v0, Scale: conf.Scale}
	grid.XMax = grid.X(float64(uMax)) + 1
	grid.YMax = grid.Y(float64(vMax)) + 1
	return grid
}

// HalfBlockSize returns the half side of the matching block.
func (conf Config) HalfBlockSize() int {
	return conf.Scale / 2
}
