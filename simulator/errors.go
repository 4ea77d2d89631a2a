package simulator

import "errors"

var (
	ErrSceneNotDefined = errors.New("simulator: no scene defined")
	ErrNoZones         = errors.New("simulator: scene does not define any zones")
	ErrNoWaypoints     = errors.New("simulator: listener path does not define any waypoints")
	ErrInterrupted     = errors.New("simulator: interrupted while running")
)
