// Package cli implements the curvedstereo command line tool.
package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/urfave/cli/v2"
)

const (
	debugFlag    = "debug"
	configFlag   = "config"
	image1Flag   = "image1"
	image2Flag   = "image2"
	outputFlag   = "output"
	nearFlag     = "near"
	farFlag      = "far"
	xFlag        = "x"
	yFlag        = "y"
	cameraFlag   = "camera"
	distanceFlag = "distance"
	seedFlag     = "seed"
	maxSigmaFlag = "max-sigma"
	plotFlag     = "plot"
)

var configFlagDef = &cli.StringFlag{
	Name:     configFlag,
	Aliases:  []string{"c"},
	Required: true,
	Usage:    "load the rig from `FILE`",
}

var app = &cli.App{
	Name:            "curvedstereo",
	Usage:           "dense stereo for wide angle cameras along curved epipolar lines",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "depth",
			Usage:     "compute the depth map of an image pair",
			UsageText: "curvedstereo depth --config <rig.json> --image1 <file> --image2 <file> [--output <dir>]",
			Flags: []cli.Flag{
				configFlagDef,
				&cli.StringFlag{Name: image1Flag, Required: true, Usage: "image of camera 1"},
				&cli.StringFlag{Name: image2Flag, Required: true, Usage: "image of camera 2"},
				&cli.StringFlag{Name: outputFlag, Aliases: []string{"o"}, Value: ".", Usage: "output directory"},
				&cli.Float64Flag{Name: nearFlag, Value: 0.5, Usage: "depth drawn brightest in depth.png"},
				&cli.Float64Flag{Name: farFlag, Value: 10, Usage: "depth drawn darkest in depth.png"},
			},
			Action: DepthAction,
		},
		{
			Name:      "epipolar",
			Usage:     "draw the epipolar curve of a grid cell",
			UsageText: "curvedstereo epipolar --config <rig.json> --x <cell> --y <cell> [--camera 1|2] [--output <file>]",
			Flags: []cli.Flag{
				configFlagDef,
				&cli.IntFlag{Name: xFlag, Required: true, Usage: "grid column"},
				&cli.IntFlag{Name: yFlag, Required: true, Usage: "grid row"},
				&cli.IntFlag{Name: cameraFlag, Value: 2, Usage: "image to draw in, 1 or 2"},
				&cli.StringFlag{Name: image1Flag, Usage: "optional background image"},
				&cli.StringFlag{Name: outputFlag, Aliases: []string{"o"}, Value: "epipolar.png", Usage: "output png"},
			},
			Action: EpipolarAction,
		},
		{
			Name:      "synth",
			Usage:     "render a textured plane seen by the rig",
			UsageText: "curvedstereo synth --config <rig.json> [--distance <m>] [--output <dir>]",
			Flags: []cli.Flag{
				configFlagDef,
				&cli.Float64Flag{Name: distanceFlag, Value: 2, Usage: "distance of the plane from camera 1"},
				&cli.Uint64Flag{Name: seedFlag, Value: 1, Usage: "texture seed"},
				&cli.StringFlag{Name: outputFlag, Aliases: []string{"o"}, Value: ".", Usage: "output directory"},
			},
			Action: SynthAction,
		},
		{
			Name:      "evaluate",
			Usage:     "match a rendered plane and compare the depth with its ground truth",
			UsageText: "curvedstereo evaluate --config <rig.json> [--distance <m>] [--plot <file.png>]",
			Flags: []cli.Flag{
				configFlagDef,
				&cli.Float64Flag{Name: distanceFlag, Value: 2, Usage: "distance of the plane from camera 1"},
				&cli.Uint64Flag{Name: seedFlag, Value: 1, Usage: "texture seed"},
				&cli.Float64Flag{Name: maxSigmaFlag, Value: math.Inf(1), Usage: "ignore estimates less certain than this"},
				&cli.StringFlag{Name: plotFlag, Usage: "write a histogram of the depth errors to `FILE`"},
			},
			Action: EvaluateAction,
		},
		{
			Name:   "schema",
			Usage:  "print the JSON schema of rig files",
			Action: SchemaAction,
		},
		{
			Name:   "version",
			Usage:  "print version info for this program",
			Action: VersionAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
