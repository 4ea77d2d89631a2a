package simulator

import "github.com/achilleasa/soundzone/types"

var worldUp = types.Vec3{0, 1, 0}

// Waypoints closer than this are treated as reached.
const waypointEpsilon = 1e-4

// A PathListener walks a polyline at constant speed. It implements
// zone.ListenerSource.
type PathListener struct {
	waypoints []types.Vec3
	speed     float32

	segment  int
	position types.Vec3
	heading  types.Vec3
	done     bool
}

// Create a listener that starts at the first waypoint.
func NewPathListener(waypoints []types.Vec3, speed float32) (*PathListener, error) {
	if len(waypoints) == 0 {
		return nil, ErrNoWaypoints
	}
	if speed <= 0 {
		speed = 1
	}

	l := &PathListener{
		waypoints: waypoints,
		speed:     speed,
		position:  waypoints[0],
		heading:   types.Vec3{0, 0, 1},
		done:      len(waypoints) == 1,
	}
	l.updateHeading()
	return l, nil
}

// ListenerPosition implements zone.ListenerSource.
func (l *PathListener) ListenerPosition() (types.Vec3, bool) {
	return l.position, true
}

// Returns true once the last waypoint has been reached.
func (l *PathListener) Done() bool {
	return l.done
}

// The listener's right vector, perpendicular to its heading on the
// horizontal plane.
func (l *PathListener) Right() types.Vec3 {
	right := worldUp.Cross(l.heading)
	if right.SqrLen() == 0 {
		return types.Vec3{1, 0, 0}
	}
	return right.Normalize()
}

// Move the listener along the path by seconds * speed.
func (l *PathListener) Advance(seconds float32) {
	remaining := seconds * l.speed
	for !l.done && remaining > 0 {
		target := l.waypoints[l.segment+1]
		dist := l.position.Distance(target)
		if remaining < dist-waypointEpsilon {
			l.position = l.position.Add(target.Sub(l.position).Mul(remaining / dist))
			return
		}

		remaining -= dist
		l.position = target
		l.segment++
		if l.segment == len(l.waypoints)-1 {
			l.done = true
			return
		}
		l.updateHeading()
	}
}

// Total path length.
func (l *PathListener) Length() float32 {
	var total float32
	for i := 1; i < len(l.waypoints); i++ {
		total += l.waypoints[i-1].Distance(l.waypoints[i])
	}
	return total
}

func (l *PathListener) updateHeading() {
	if l.segment+1 >= len(l.waypoints) {
		return
	}
	if dir := l.waypoints[l.segment+1].Sub(l.waypoints[l.segment]); dir.SqrLen() > 0 {
		l.heading = dir.Normalize()
	}
}
