package stereo

import (
	"encoding/json"
	"testing"

	"go.viam.com/test"
)

func TestConfigDefaults(t *testing.T) {
	conf := NewDefaultConfig(160, 120)
	test.That(t, conf.DispMax, test.ShouldEqual, DefaultDispMax)
	test.That(t, conf.Scale, test.ShouldEqual, DefaultScale)
	test.That(t, conf.LambdaStep, test.ShouldEqual, DefaultLambdaStep)
	test.That(t, conf.LambdaJump, test.ShouldEqual, DefaultLambdaJump)
	test.That(t, conf.MaxBias, test.ShouldEqual, DefaultMaxBias)
	test.That(t, conf.MaxDistance, test.ShouldEqual, DefaultMaxDistance)
	test.That(t, conf.HypMax, test.ShouldEqual, 1)
	test.That(t, conf.CostMode, test.ShouldEqual, BlockCost)
	test.That(t, conf.HalfBlockSize(), test.ShouldEqual, 1)
	test.That(t, conf.Validate("stereo"), test.ShouldBeNil)

	grid := conf.Grid()
	test.That(t, grid.U0, test.ShouldEqual, 3)
	test.That(t, grid.V0, test.ShouldEqual, 3)
	test.That(t, grid.XMax, test.ShouldEqual, 52)
	test.That(t, grid.YMax, test.ShouldEqual, 39)
	test.That(t, grid.U(grid.XMax-1)+conf.HalfBlockSize(), test.ShouldBeLessThan, 160)
	test.That(t, grid.V(grid.YMax-1)+conf.HalfBlockSize(), test.ShouldBeLessThan, 120)
}

func TestConfigRegionOfInterest(t *testing.T) {
	conf := NewDefaultConfig(160, 120)
	conf.UMargin, conf.VMargin = 32, 27
	conf.Width, conf.Height = 90, 60
	test.That(t, conf.Validate("stereo"), test.ShouldBeNil)

	grid := conf.Grid()
	test.That(t, grid.U(0), test.ShouldEqual, 35)
	test.That(t, grid.V(0), test.ShouldEqual, 30)
	test.That(t, grid.XMax, test.ShouldEqual, 31)
	test.That(t, grid.YMax, test.ShouldEqual, 21)
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(conf *Config)
		errStr string
	}{
		{"no image width", func(conf *Config) { conf.ImageWidth = 0 }, "image_width"},
		{"no image height", func(conf *Config) { conf.ImageHeight = -1 }, "image_height"},
		{"odd disparity", func(conf *Config) { conf.DispMax = 7 }, "even"},
		{"huge disparity", func(conf *Config) { conf.DispMax = 256 }, "disparity image"},
		{"negative scale", func(conf *Config) { conf.Scale = -2 }, "scale"},
		{"negative margin", func(conf *Config) { conf.VMargin = -1 }, "margins"},
		{"negative penalty", func(conf *Config) { conf.LambdaJump = -3 }, "penalties"},
		{"negative distance", func(conf *Config) { conf.MaxDistance = -1 }, "max_distance"},
		{"negative hypotheses", func(conf *Config) { conf.HypMax = -1 }, "hypothesis_max"},
		{"unknown mode", func(conf *Config) { conf.CostMode = "census" }, "census"},
		{"empty region", func(conf *Config) { conf.UMargin = 200 }, "empty"},
		{"region too wide", func(conf *Config) { conf.Width = 200 }, "exceeds"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewDefaultConfig(160, 120)
			tc.modify(&conf)
			err := conf.Validate("stereo")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errStr)
			test.That(t, err.Error(), test.ShouldContainSubstring, "stereo")
		})
	}
}

func TestConfigJSON(t *testing.T) {
	var conf Config
	err := json.Unmarshal([]byte(`{
		"image_width": 160,
		"image_height": 120,
		"disparity_max": 32,
		"cost_mode": "curve",
		"hypothesis_max": 2,
		"flaw_cost": 40
	}`), &conf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.Validate("stereo"), test.ShouldBeNil)
	test.That(t, conf.CostMode, test.ShouldEqual, CurveCost)
	test.That(t, conf.HypMax, test.ShouldEqual, 2)
	test.That(t, conf.FlawCost, test.ShouldEqual, 40)

	// zero fields only take their defaults once applied
	test.That(t, conf.Scale, test.ShouldEqual, 0)
	conf.setDefaults()
	test.That(t, conf.Scale, test.ShouldEqual, DefaultScale)
	test.That(t, conf.DispMax, test.ShouldEqual, 32)
}
