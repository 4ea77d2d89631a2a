package cmd

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/soundzone/geometry"
	"github.com/achilleasa/soundzone/physics"
	"github.com/achilleasa/soundzone/scene"
	"github.com/achilleasa/soundzone/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Build the occluder BVH for a scene and display its statistics. If a ray is
// specified, the leaves it visits and its nearest hit are also displayed.
func IndexScene(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	world := physics.NewWorld()
	world.Add(sc.Occluders...)
	tree := world.BuildIndex()
	stats := tree.Stats()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Occluders", "Skipped", "Nodes", "Leaves", "Max depth", "Build time"})
	table.Append([]string{
		fmt.Sprintf("%d", stats.Items),
		fmt.Sprintf("%d", stats.Skipped),
		fmt.Sprintf("%d", stats.Nodes),
		fmt.Sprintf("%d", stats.Leaves),
		fmt.Sprintf("%d", stats.MaxDepth),
		fmt.Sprintf("%s", stats.BuildTime),
	})
	table.Render()
	logger.Noticef("BVH statistics\n%s", buf.String())

	rayDef := ctx.String("ray")
	if rayDef == "" {
		return nil
	}

	ray, err := parseRay(rayDef)
	if err != nil {
		return err
	}

	buf.Reset()
	table = tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Leaf", "Occluders", "Entry", "Exit"})
	for _, leaf := range tree.Traverse(ray) {
		names := make([]string, 0, len(leaf.Occluders))
		for _, occ := range leaf.Occluders {
			names = append(names, occ.Name)
		}
		table.Append([]string{
			fmt.Sprintf("%d", leaf.Node),
			strings.Join(names, ", "),
			fmt.Sprintf("%.3f", leaf.TEntry),
			fmt.Sprintf("%.3f", leaf.TExit),
		})
	}
	table.Render()
	logger.Noticef("leaves visited by ray\n%s", buf.String())

	maxDist := float32(ctx.Float64("max-dist"))
	if hit, ok := world.Raycast(ray, maxDist, scene.AllLayers, nil); ok {
		logger.Noticef("nearest hit: %q at distance %.3f (%s)", hit.Occluder.Name, hit.Distance, fmtVec3(hit.Point))
	} else {
		logger.Notice("ray does not hit any occluder")
	}
	return nil
}

// Parse a ray specified as "ox,oy,oz,dx,dy,dz".
func parseRay(def string) (geometry.Ray, error) {
	tokens := strings.Split(def, ",")
	if len(tokens) != 6 {
		return geometry.Ray{}, fmt.Errorf("invalid ray %q: expected 6 comma-separated values; got %d", def, len(tokens))
	}

	var v [6]float32
	for i, token := range tokens {
		f, err := strconv.ParseFloat(strings.TrimSpace(token), 32)
		if err != nil {
			return geometry.Ray{}, fmt.Errorf("invalid ray %q: %w", def, err)
		}
		v[i] = float32(f)
	}

	dir := types.Vec3{v[3], v[4], v[5]}
	if dir.SqrLen() == 0 {
		return geometry.Ray{}, fmt.Errorf("invalid ray %q: zero direction", def)
	}
	return geometry.NewRay(types.Vec3{v[0], v[1], v[2]}, dir), nil
}

func fmtVec3(v types.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
}
