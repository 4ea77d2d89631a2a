package cmd

import (
	"errors"

	"github.com/achilleasa/soundzone/scene/reader"
	"github.com/urfave/cli"
)

// Load the scene description passed as the first command argument.
func loadScene(ctx *cli.Context) (*reader.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene file argument")
	}

	res, err := reader.NewResource(ctx.Args().First(), nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	sc, err := reader.ReadScene(res)
	if err != nil {
		return nil, err
	}

	applySceneLogLevel(ctx, sc.LogLevel)
	return sc, nil
}
