package simulator

import (
	"time"

	"github.com/gopxl/beep"
)

type Options struct {
	// Ticks per second. If zero, the scene tick rate is used.
	TickRate int

	// Simulated time. If zero, the simulation runs until the listener
	// reaches the end of its path.
	Duration time.Duration

	// Mix the zone channels into an in-memory buffer while running.
	RecordAudio bool

	// Output format for the mixer. If the sample rate is zero the
	// beepchan default format is used.
	Format beep.Format
}
