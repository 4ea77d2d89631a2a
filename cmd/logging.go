package cmd

import (
	"github.com/achilleasa/soundzone/log"
	"github.com/urfave/cli"
)

var logger = log.New("soundzone")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

// Apply the log level requested by a scene file unless a verbosity flag was
// given on the command line.
func applySceneLogLevel(ctx *cli.Context, level log.Level) {
	if ctx.GlobalBool("v") || ctx.GlobalBool("vv") {
		return
	}
	log.SetLevel(level)
}
