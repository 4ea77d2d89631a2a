package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/soundzone/audio/beepchan"
	"github.com/achilleasa/soundzone/zone"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display the fill triangulation and trigger boundary preview for every zone
// in a scene. Failures are reported per zone and do not abort the command.
func TriangulateZones(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	mixer := beepchan.NewMixer(beepchan.DefaultFormat())

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Zone", "Mode", "Points", "Closed", "Trigger", "Triangles", "Preview loops", "Preview points"})

	for _, spec := range sc.Zones {
		primary, err := mixer.NewChannel(spec.Props, spec.Config.Name)
		if err != nil {
			return err
		}

		z, err := zone.New(spec.Config, primary, mixer, nil)
		if err != nil {
			logger.Warningf("skipping zone %q: %s", spec.Config.Name, err)
			mixer.Destroy(primary)
			continue
		}

		triangles := "-"
		if indices, err := z.Fill(); err != nil {
			logger.Warningf("zone %q: could not triangulate fill: %s", z.Name, err)
		} else {
			triangles = fmt.Sprintf("%d", len(indices)/3)
			if ctx.Bool("indices") {
				logger.Noticef("zone %q fill indices: %v", z.Name, indices)
			}
		}

		previewPoints := 0
		preview := z.Preview()
		for _, loop := range preview {
			previewPoints += len(loop)
		}

		table.Append([]string{
			z.Name,
			z.Mode.String(),
			fmt.Sprintf("%d", len(z.Shape.Points)),
			fmt.Sprintf("%t", z.Shape.Closed),
			fmt.Sprintf("%.2f", z.TriggerDistance()),
			triangles,
			fmt.Sprintf("%d", len(preview)),
			fmt.Sprintf("%d", previewPoints),
		})

		z.Shutdown()
		mixer.Destroy(primary)
	}

	table.Render()
	logger.Noticef("zone geometry\n%s", buf.String())
	return nil
}
