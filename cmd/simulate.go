package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/achilleasa/soundzone/audio/beepchan"
	"github.com/achilleasa/soundzone/simulator"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Run a scene simulation, periodically displaying zone state.
func Simulate(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	wavFile := ctx.String("wav")
	opts := simulator.Options{
		TickRate:    ctx.Int("tick-rate"),
		Duration:    ctx.Duration("duration"),
		RecordAudio: wavFile != "",
	}

	sim, err := simulator.New(sc, opts)
	if err != nil {
		return err
	}
	defer sim.Close()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reportEvery := ctx.Int("report-every")
	start := time.Now()
	ticks := 0
	err = sim.Run(runCtx, func(stats simulator.TickStats) {
		ticks++
		if reportEvery > 0 && stats.Tick%reportEvery == 0 {
			displayTickStats(stats)
		}
	})
	if err != nil {
		return err
	}
	logger.Noticef("simulated %d tick(s) in %s", ticks, time.Since(start))

	if wavFile == "" {
		return nil
	}

	f, err := os.Create(wavFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = beepchan.WriteWAV(f, sim.Recording()); err != nil {
		return err
	}
	logger.Noticef("wrote %s of audio to %s", sim.Mixer().Format().SampleRate.D(sim.Recording().Len()), wavFile)
	return nil
}

func displayTickStats(stats simulator.TickStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Zone", "Mode", "In range", "Inside", "Distance", "Primary", "Secondary", "Emitters", "Occlusion", "Volume", "Cutoff"})
	for _, stat := range stats.Zones {
		primary, secondary := "-", stat.SecondaryState.String()
		if stat.HasPrimary {
			primary = fmtVec3(stat.Primary)
		}
		if stat.HasSecondary {
			secondary = fmt.Sprintf("%s %s", fmtVec3(stat.Secondary), secondary)
		}
		table.Append([]string{
			stat.Name,
			stat.Mode,
			fmt.Sprintf("%t", stat.InRange),
			fmt.Sprintf("%t", stat.Inside),
			fmt.Sprintf("%.2f", stat.Distance),
			primary,
			secondary,
			fmt.Sprintf("%d", stat.Emitters),
			fmt.Sprintf("%02.1f %%", stat.Occlusion*100),
			fmt.Sprintf("%.2f", stat.Volume),
			fmt.Sprintf("%.0f Hz", stat.Cutoff),
		})
	}

	table.Render()
	logger.Noticef("tick %d (t=%s, listener %s, %s)\n%s", stats.Tick, stats.Time, fmtVec3(stats.Listener), stats.TickTime, buf.String())
}
