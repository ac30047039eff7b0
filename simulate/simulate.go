// Package simulate produces synthetic accelerometer traffic for demos and
// load tests. Each walker emits a step spike once per stride on top of a
// resting magnitude, both perturbed with simplex noise.
package simulate

import (
	"fmt"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/mohamedthameursassi/IndoorNavServer/congestion"
	"github.com/mohamedthameursassi/IndoorNavServer/models"
)

const (
	restMagnitude = 0.9
	stepMagnitude = 1.6
)

// Scenario describes a group of pedestrians on one location.
type Scenario struct {
	LocationID string
	Walkers    int
	Cadence    float64 // steps per minute
	Duration   time.Duration
	Interval   time.Duration // gap between two samples of one walker
	Start      time.Time
}

func (s Scenario) Validate() error {
	switch {
	case s.LocationID == "":
		return fmt.Errorf("simulate: scenario needs a location")
	case s.Walkers < 1:
		return fmt.Errorf("simulate: scenario %s needs at least one walker", s.LocationID)
	case s.Cadence <= 0:
		return fmt.Errorf("simulate: scenario %s cadence must be positive", s.LocationID)
	case s.Interval <= 0 || s.Duration < s.Interval:
		return fmt.Errorf("simulate: scenario %s needs a positive interval shorter than its duration", s.LocationID)
	}
	return nil
}

type Option func(*Generator)

// WithJitter sets the noise amplitude added to every axis.
func WithJitter(amplitude float64) Option {
	return func(g *Generator) { g.jitter = amplitude }
}

type Generator struct {
	noise  opensimplex.Noise
	jitter float64
}

// New returns a generator whose output is fully determined by seed.
func New(seed int64, opts ...Option) *Generator {
	g := &Generator{noise: opensimplex.New(seed), jitter: 0.05}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Samples renders a scenario. Walker w is reported as user "sim-<w>".
func (g *Generator) Samples(sc Scenario) ([]congestion.Sample, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	stride := time.Duration(float64(time.Minute) / sc.Cadence)
	perWalker := int(sc.Duration / sc.Interval)

	out := make([]congestion.Sample, 0, sc.Walkers*perWalker)
	for w := 0; w < sc.Walkers; w++ {
		user := fmt.Sprintf("sim-%d", w)
		for i := 0; i < perWalker; i++ {
			elapsed := time.Duration(i) * sc.Interval
			level := restMagnitude
			if i == 0 || elapsed/stride != (elapsed-sc.Interval)/stride {
				level = stepMagnitude
			}

			t := elapsed.Seconds()
			lane := float64(w) * 10
			out = append(out, congestion.Sample{
				X:          g.jitter * g.noise.Eval2(t, lane),
				Y:          g.jitter * g.noise.Eval2(t+100, lane),
				Z:          level + g.jitter*g.noise.Eval2(t+200, lane),
				Timestamp:  sc.Start.Add(elapsed),
				UserID:     user,
				LocationID: sc.LocationID,
			})
		}
	}
	return out, nil
}

// Readings converts samples into the wire records the mini program uploads.
func Readings(samples []congestion.Sample) []models.AccelerometerReading {
	out := make([]models.AccelerometerReading, len(samples))
	for i, s := range samples {
		x, y, z := s.X, s.Y, s.Z
		ts := float64(s.Timestamp.UnixNano()) / 1e9
		out[i] = models.AccelerometerReading{
			X:          &x,
			Y:          &y,
			Z:          &z,
			Timestamp:  &ts,
			LocationID: s.LocationID,
		}
	}
	return out
}

// ByUser splits samples into one upload per simulated user, in first-seen
// order.
func ByUser(samples []congestion.Sample) (users []string, batches map[string][]congestion.Sample) {
	batches = make(map[string][]congestion.Sample)
	for _, s := range samples {
		if _, ok := batches[s.UserID]; !ok {
			users = append(users, s.UserID)
		}
		batches[s.UserID] = append(batches[s.UserID], s)
	}
	return users, batches
}
