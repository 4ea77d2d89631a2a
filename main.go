package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/soundzone/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "soundzone"
	app.Usage = "simulate spatial audio zones that follow a listener"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "simulate",
			Usage: "move a listener through a scene and report zone state",
			Description: `
Load a YAML scene description, index its occluders and tick every zone while
the listener walks along the scene's listener path.

Zone state is displayed every --report-every ticks. The mixed zone output can
optionally be recorded to a WAV file.`,
			ArgsUsage: "scene.yaml",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "tick-rate",
					Usage: "ticks per second; overrides the scene tick rate",
				},
				cli.DurationFlag{
					Name:  "duration, d",
					Usage: "simulated time; defaults to the time needed to walk the listener path",
				},
				cli.IntFlag{
					Name:  "report-every",
					Value: 10,
					Usage: "display zone state every N ticks; 0 disables reporting",
				},
				cli.StringFlag{
					Name:  "wav, o",
					Usage: "record the mix to this WAV file",
				},
			},
			Action: cmd.Simulate,
		},
		{
			Name:        "index",
			Usage:       "build the occluder BVH for a scene and display its statistics",
			Description: `Optionally cast a ray through the index and list the leaves it visits.`,
			ArgsUsage:   "scene.yaml",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "ray",
					Usage: `ray to trace specified as "ox,oy,oz,dx,dy,dz"`,
				},
				cli.Float64Flag{
					Name:  "max-dist",
					Value: 1000,
					Usage: "max hit distance for the traced ray",
				},
			},
			Action: cmd.IndexScene,
		},
		{
			Name:        "triangulate",
			Usage:       "triangulate zone fills and preview trigger boundaries",
			Description: `Zones that cannot be triangulated are reported and skipped.`,
			ArgsUsage:   "scene.yaml",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "indices",
					Usage: "display the fill triangle indices",
				},
			},
			Action: cmd.TriangulateZones,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
