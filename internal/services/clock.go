package services

import "time"

// Clock abstracts time for the presence registry and heartbeat monitor so
// tests can single-step deadlines instead of sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall-clock implementation used in production wiring.
var SystemClock Clock = systemClock{}
