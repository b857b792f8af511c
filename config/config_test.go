package config

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/curvedstereo/camera"
	"go.viam.com/curvedstereo/logging"
	"go.viam.com/curvedstereo/stereo"
	"go.viam.com/curvedstereo/testutils"
)

const rigJSON = `{
	"camera_1": {"model": "eucm", "width_px": 160, "height_px": 120, "parameters": [0.5, 1, 60, 60, 80, 60]},
	"camera_2": {"model": "eucm", "width_px": 160, "height_px": 120, "parameters": [0.5, 1, 60, 60, 80, 60]},
	"pose": {
		"translation": {"x": ${BASELINE}, "y": 0, "z": 0},
		"orientation": {"th": 0.1, "x": 0, "y": 1, "z": 0}
	},
	"stereo": {"disparity_max": 32, "cost_mode": "curve", "hypothesis_max": 2}
}`

func TestRead(t *testing.T) {
	t.Setenv("BASELINE", "0.25")
	dir := testutils.TempDir(t, "config")
	path := testutils.WriteTempFile(t, dir, "rig.json", rigJSON)

	logger, logs := logging.NewObservedTestLogger(t)
	conf, err := Read(context.Background(), path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("unused config key").Len(), test.ShouldEqual, 0)
	test.That(t, conf.Camera1.Model, test.ShouldEqual, camera.EUCMModel)
	test.That(t, conf.Camera2.Parameters, test.ShouldResemble, []float64{0.5, 1, 60, 60, 80, 60})
	test.That(t, conf.Pose.Translation.X, test.ShouldAlmostEqual, 0.25)
	test.That(t, conf.Pose.Orientation.Theta, test.ShouldAlmostEqual, 0.1)
	test.That(t, conf.Stereo.DispMax, test.ShouldEqual, 32)
	test.That(t, conf.Stereo.CostMode, test.ShouldEqual, stereo.CurveCost)
	test.That(t, conf.Stereo.HypMax, test.ShouldEqual, 2)

	rig, err := conf.Build()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rig.Camera1.Width(), test.ShouldEqual, 160)
	test.That(t, rig.Pose.Point().X, test.ShouldAlmostEqual, 0.25)
	test.That(t, rig.Pose.Orientation().AxisAngles().Theta, test.ShouldAlmostEqual, 0.1)
	test.That(t, rig.Stereo.ImageWidth, test.ShouldEqual, 160)
	test.That(t, rig.Stereo.ImageHeight, test.ShouldEqual, 120)

	es, err := stereo.NewEnhancedStereo(rig.Pose, rig.Camera1, rig.Camera2, rig.Stereo, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, es.Config().DispMax, test.ShouldEqual, 32)

	_, err = Read(context.Background(), dir+"/missing.json", logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromReader(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	withExtra := strings.Replace(rigJSON, "${BASELINE}", "0.2", 1)
	withExtra = strings.Replace(withExtra, `"stereo": {`, `"rectify": true, "stereo": {`, 1)
	conf, err := FromReader(context.Background(), "rig.json", strings.NewReader(withExtra), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.Pose.Translation.X, test.ShouldAlmostEqual, 0.2)
	test.That(t, logs.FilterMessage("unused config key").Len(), test.ShouldEqual, 1)

	_, err = FromReader(context.Background(), "rig.json", strings.NewReader(`{"camera_1": `), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "rig.json")

	_, err = FromReader(context.Background(), "rig.json", strings.NewReader(`{"camera_1": 3}`), logger)
	test.That(t, err, test.ShouldNotBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FromReader(ctx, "rig.json", strings.NewReader(withExtra), logger)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cam := camera.Config{Model: camera.EUCMModel, Width: 160, Height: 120, Parameters: []float64{0.5, 1, 60, 60, 80, 60}}
		return Config{Camera1: cam, Camera2: cam}
	}
	conf := valid()
	test.That(t, conf.Validate("rig"), test.ShouldBeNil)
	rig, err := conf.Build()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rig.Pose.Point().Norm(), test.ShouldEqual, 0)

	conf = valid()
	conf.Camera2.Model = ""
	err = conf.Validate("rig")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "rig.camera_2")

	conf = valid()
	conf.Camera1.Parameters = []float64{1, 2}
	err = conf.Validate("rig")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "rig.camera_1")

	conf = valid()
	conf.Stereo.DispMax = 9
	err = conf.Validate("rig")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "rig.stereo")
	_, err = conf.Build()
	test.That(t, err, test.ShouldNotBeNil)

	conf = valid()
	conf.Pose.Orientation = nil
	conf.Stereo.ImageWidth, conf.Stereo.ImageHeight = 64, 48
	test.That(t, conf.Validate("rig"), test.ShouldBeNil)
	rig, err = conf.Build()
	test.That(t, err, test.ShouldBeNil)
	// the image size is checked against the cameras by the engine
	_, err = stereo.NewEnhancedStereo(rig.Pose, rig.Camera1, rig.Camera2, rig.Stereo, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

// schemaProperty walks the properties of a decoded schema along keys.
func schemaProperty(t *testing.T, schema map[string]interface{}, keys ...string) map[string]interface{} {
	t.Helper()
	for _, key := range keys {
		props, ok := schema["properties"].(map[string]interface{})
		test.That(t, ok, test.ShouldBeTrue)
		schema, ok = props[key].(map[string]interface{})
		test.That(t, ok, test.ShouldBeTrue)
	}
	return schema
}

func TestSchema(t *testing.T) {
	out, err := json.Marshal(Schema())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldNotContainSubstring, "$ref")

	var schema map[string]interface{}
	test.That(t, json.Unmarshal(out, &schema), test.ShouldBeNil)
	for _, key := range []string{"camera_1", "camera_2"} {
		for _, field := range []string{"model", "width_px", "height_px", "parameters"} {
			schemaProperty(t, schema, key, field)
		}
	}
	for _, field := range []string{"disparity_max", "cost_mode", "u_margin", "flaw_cost"} {
		schemaProperty(t, schema, "stereo", field)
	}
	for _, axis := range []string{"x", "y", "z"} {
		axisSchema := schemaProperty(t, schema, "pose", "translation", axis)
		test.That(t, axisSchema["type"], test.ShouldEqual, "number")
	}
	test.That(t, string(out), test.ShouldNotContainSubstring, `"X"`)
}
