package cli

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/curvedstereo/config"
	"go.viam.com/curvedstereo/logging"
	"go.viam.com/curvedstereo/pointcloud"
	"go.viam.com/curvedstereo/rimage"
	"go.viam.com/curvedstereo/spatialmath"
	"go.viam.com/curvedstereo/stereo"
	"go.viam.com/curvedstereo/synth"
)

// newLogger writes to the error writer of the app, at debug level when asked to.
func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("curvedstereo")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(logging.INFO)
	if c.Bool(debugFlag) {
		logger.SetLevel(logging.DEBUG)
	}
	return logger
}

func loadRig(c *cli.Context, logger logging.Logger) (*config.Rig, error) {
	conf, err := config.Read(c.Context, c.String(configFlag), logger)
	if err != nil {
		return nil, err
	}
	return conf.Build()
}

func newEngine(c *cli.Context) (*stereo.EnhancedStereo, *config.Rig, logging.Logger, error) {
	logger := newLogger(c)
	rig, err := loadRig(c, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	es, err := stereo.NewEnhancedStereo(rig.Pose, rig.Camera1, rig.Camera2, rig.Stereo, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return es, rig, logger, nil
}

// DepthAction matches an image pair and writes disparity.png, depth.png, depth_color.png and
// cloud.pcd.
func DepthAction(c *cli.Context) error {
	es, rig, logger, err := newEngine(c)
	if err != nil {
		return err
	}
	img1, err := rimage.ReadGrayFromFile(c.String(image1Flag))
	if err != nil {
		return err
	}
	img2, err := rimage.ReadGrayFromFile(c.String(image2Flag))
	if err != nil {
		return err
	}

	depth, err := es.ComputeDepth(img1, img2)
	if err != nil {
		return err
	}
	outDir := c.String(outputFlag)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return err
	}
	if err := rimage.WriteImageToFile(filepath.Join(outDir, "disparity.png"), es.Disparity()); err != nil {
		return err
	}
	pretty := depth.ToPrettyPicture(c.Float64(nearFlag), c.Float64(farFlag))
	width, height := rig.Camera1.Width(), rig.Camera1.Height()
	if err := rimage.WriteImageToFile(filepath.Join(outDir, "depth.png"), rimage.Upscale(pretty, width, height)); err != nil {
		return err
	}
	colored := depth.ToColorPicture(c.Float64(nearFlag), c.Float64(farFlag))
	if err := rimage.WriteImageToFile(filepath.Join(outDir, "depth_color.png"), colored); err != nil {
		return err
	}
	cloud, err := depth.ToPointCloud(img1)
	if err != nil {
		return err
	}
	if err := writePCD(filepath.Join(outDir, "cloud.pcd"), cloud); err != nil {
		return err
	}

	estimated := 0
	for y := 0; y < depth.YMax; y++ {
		for x := 0; x < depth.XMax; x++ {
			if depth.HasEstimate(x, y, 0) {
				estimated++
			}
		}
	}
	logger.Debugw("depth written", "dir", outDir, "points", cloud.Size())
	printf(c.App.Writer, "%d of %d cells estimated, %d points written to %s",
		estimated, depth.Size(), cloud.Size(), outDir)
	return nil
}

func writePCD(path string, cloud pointcloud.PointCloud) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return pointcloud.ToPCD(cloud, f, pointcloud.PCDBinary)
}

// EpipolarAction draws the epipolar curve of a grid cell.
func EpipolarAction(c *cli.Context) error {
	es, rig, _, err := newEngine(c)
	if err != nil {
		return err
	}
	var which stereo.CameraIdx
	switch c.Int(cameraFlag) {
	case 1:
		which = stereo.Camera1
	case 2:
		which = stereo.Camera2
	default:
		return errors.Errorf("camera must be 1 or 2, got %d", c.Int(cameraFlag))
	}
	x, y := c.Int(xFlag), c.Int(yFlag)
	if !es.Grid().InGrid(x, y) {
		return errors.Errorf("cell (%d, %d) is outside the %dx%d grid", x, y, es.Grid().XMax, es.Grid().YMax)
	}

	out := image.NewGray(image.Rect(0, 0, rig.Camera1.Width(), rig.Camera1.Height()))
	if path := c.String(image1Flag); path != "" {
		background, err := rimage.ReadGrayFromFile(path)
		if err != nil {
			return err
		}
		if !rimage.SameImgSize(background, out) {
			return errors.Errorf("background is %v, expected %v", background.Bounds().Size(), out.Bounds().Size())
		}
		copy(out.Pix, background.Pix)
	}
	count := es.TraceEpipolarCurve(x, y, out, which)
	if err := rimage.WriteImageToFile(c.String(outputFlag), out); err != nil {
		return err
	}
	printf(c.App.Writer, "%d pixels drawn to %s", count, c.String(outputFlag))
	return nil
}

// renderScene renders a textured plane facing camera 1 at distance and returns its ground truth
// depth on the stereo grid.
func renderScene(rig *config.Rig, distance float64, seed uint64) (img1, img2 *image.Gray, gt *rimage.DepthMap, err error) {
	if distance <= 0 {
		return nil, nil, nil, errors.Errorf("distance must be positive, got %v", distance)
	}
	plane := synth.Plane{
		Pose:       spatialmath.NewPoseFromPoint(r3.Vector{Z: distance}),
		HalfWidth:  10 * distance,
		HalfHeight: 10 * distance,
		Texture:    synth.NoiseTexture(seed, 0.075*distance),
	}
	img1 = synth.RenderPlane(rig.Camera1, spatialmath.NewZeroPose(), plane, 0)
	img2 = synth.RenderPlane(rig.Camera2, rig.Pose, plane, 0)
	gt = rimage.GeneratePlane(rig.Camera1, rig.Stereo.WithDefaults().Grid(), plane.Pose, plane.Polygon())
	return img1, img2, gt, nil
}

// SynthAction renders a textured plane facing camera 1 into image1.png and image2.png, and its
// depth into ground_truth.png.
func SynthAction(c *cli.Context) error {
	logger := newLogger(c)
	rig, err := loadRig(c, logger)
	if err != nil {
		return err
	}
	distance := c.Float64(distanceFlag)
	img1, img2, gt, err := renderScene(rig, distance, c.Uint64(seedFlag))
	if err != nil {
		return err
	}

	outDir := c.String(outputFlag)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return err
	}
	pretty := rimage.Upscale(gt.ToPrettyPicture(0, 2*distance), img1.Bounds().Dx(), img1.Bounds().Dy())
	for name, img := range map[string]*image.Gray{
		"image1.png":       img1,
		"image2.png":       img2,
		"ground_truth.png": pretty,
	} {
		if err := rimage.WriteImageToFile(filepath.Join(outDir, name), img); err != nil {
			return err
		}
	}
	printf(c.App.Writer, "plane at %v m rendered to %s", distance, outDir)
	return nil
}

// EvaluateAction matches a rendered plane and prints how the estimate compares to its ground
// truth.
func EvaluateAction(c *cli.Context) error {
	es, rig, logger, err := newEngine(c)
	if err != nil {
		return err
	}
	img1, img2, gt, err := renderScene(rig, c.Float64(distanceFlag), c.Uint64(seedFlag))
	if err != nil {
		return err
	}
	depth, err := es.ComputeDepth(img1, img2)
	if err != nil {
		return err
	}
	report, err := stereo.AnalyzeError(gt, depth, c.Float64(maxSigmaFlag), 2)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", report.String())

	if path := c.String(plotFlag); path != "" {
		if err := writeHistogram(path, report.Residuals); err != nil {
			return err
		}
		logger.Debugw("histogram written", "path", path, "residuals", len(report.Residuals))
	}
	return nil
}

func writeHistogram(path string, residuals []float64) error {
	if len(residuals) == 0 {
		return errors.New("no depth was estimated, nothing to plot")
	}
	p := plot.New()
	p.Title.Text = "depth error"
	p.X.Label.Text = "ground truth - estimate (m)"
	p.Y.Label.Text = "cells"
	hist, err := plotter.NewHist(plotter.Values(residuals), 40)
	if err != nil {
		return err
	}
	p.Add(hist)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// SchemaAction prints the JSON schema of rig files.
func SchemaAction(c *cli.Context) error {
	out, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", out)
	return nil
}

// VersionAction prints the revision the tool was built from.
func VersionAction(c *cli.Context) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("error reading build info")
	}
	if c.Bool(debugFlag) {
		printf(c.App.Writer, "%s", info.String())
	}
	version := "?"
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 8 {
			version = setting.Value[:8]
		}
	}
	printf(c.App.Writer, "Version %s Go=%s", version, info.GoVersion)
	return nil
}
