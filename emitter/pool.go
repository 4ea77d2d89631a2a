package emitter

import (
	"fmt"
	"sort"

	"github.com/achilleasa/soundzone/audio"
	"github.com/achilleasa/soundzone/log"
	"github.com/achilleasa/soundzone/types"
)

// A Pool maintains one channel per emission point that is within trigger
// distance of the listener.
type Pool struct {
	logger  log.Logger
	factory audio.Factory
	parent  string

	// Invoked after a channel has been destroyed.
	OnRelease func(audio.Channel)

	channels map[int]audio.Channel
}

// Create an emission point pool for the named zone.
func NewPool(factory audio.Factory, parent string) *Pool {
	return &Pool{
		logger:   log.NewScoped("pool", parent),
		factory:  factory,
		parent:   parent,
		channels: make(map[int]audio.Channel),
	}
}

// Spawn channels for points within triggerDist of listener and destroy the
// channels of points that left the range or no longer exist. New channels
// mirror primary and start at its playback time.
//
// Channels are released before any new channel is created. A failure to
// create a channel only skips that point; the first such error is returned
// after every point has been processed.
func (p *Pool) Update(listener types.Vec3, points []types.Vec3, triggerDist float32, primary audio.Channel) error {
	if triggerDist < 0 {
		triggerDist = -triggerDist
	}
	maxSqrDist := triggerDist * triggerDist

	for _, idx := range p.Indices() {
		if idx >= len(points) || listener.SqrDistance(points[idx]) > maxSqrDist {
			p.release(idx)
		}
	}

	var firstErr error
	for idx, pos := range points {
		if listener.SqrDistance(pos) > maxSqrDist {
			continue
		}

		if ch, exists := p.channels[idx]; exists {
			ch.SetPosition(pos)
			continue
		}

		ch, err := p.factory.NewChannel(primary.Props(), p.parent)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("emitter: could not create channel for emission point %d of %q: %w", idx, p.parent, err)
			}
			continue
		}
		p.channels[idx] = ch
		ch.SetPosition(pos)
		ch.SetTime(primary.Time())
		ch.Play()
		p.logger.Debugf("spawned channel %s for emission point %d", ch.ID(), idx)
	}
	return firstErr
}

func (p *Pool) release(idx int) {
	ch, exists := p.channels[idx]
	if !exists {
		return
	}
	delete(p.channels, idx)
	p.factory.Destroy(ch)
	if p.OnRelease != nil {
		p.OnRelease(ch)
	}
	p.logger.Debugf("released channel for emission point %d", idx)
}

// Get the channel bound to an emission point.
func (p *Pool) Channel(idx int) (audio.Channel, bool) {
	ch, exists := p.channels[idx]
	return ch, exists
}

// The sorted indices of the emission points with a live channel.
func (p *Pool) Indices() []int {
	indices := make([]int, 0, len(p.channels))
	for idx := range p.channels {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

// Number of live channels.
func (p *Pool) Len() int {
	return len(p.channels)
}

// Destroy every pooled channel.
func (p *Pool) CleanupAll() {
	for _, idx := range p.Indices() {
		p.release(idx)
	}
}
