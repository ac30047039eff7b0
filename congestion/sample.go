package congestion

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrMalformedSample is returned when a motion sample lacks a required field.
var ErrMalformedSample = errors.New("congestion: malformed motion sample")

// Sample is one accelerometer reading from a pedestrian's device.
type Sample struct {
	X, Y, Z    float64
	Timestamp  time.Time
	UserID     string
	LocationID string
}

// Magnitude is the Euclidean norm of the acceleration vector.
func (s Sample) Magnitude() float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

func (s Sample) Validate() error {
	switch {
	case s.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp", ErrMalformedSample)
	case s.UserID == "":
		return fmt.Errorf("%w: user_id", ErrMalformedSample)
	case s.LocationID == "":
		return fmt.Errorf("%w: location_id", ErrMalformedSample)
	}
	for _, v := range [...]float64{s.X, s.Y, s.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite acceleration", ErrMalformedSample)
		}
	}
	return nil
}

const pathPrefix = "path_"

// EdgeKey is an unordered node pair stored with A <= B.
type EdgeKey struct {
	A, B string
}

// NewEdgeKey canonicalizes the pair so (a,b) and (b,a) share a key.
func NewEdgeKey(a, b string) EdgeKey {
	if b < a {
		a, b = b, a
	}
	return EdgeKey{A: a, B: b}
}

// LocationID is the estimator location for traffic on this edge.
func (k EdgeKey) LocationID() string {
	return pathPrefix + k.A + "_" + k.B
}

// LocationKey returns the direction-independent location id for an edge.
func LocationKey(a, b string) string {
	return NewEdgeKey(a, b).LocationID()
}

// ParseLocationKey splits a "path_<a>_<b>" location id back into its edge.
// Node ids that themselves contain underscores cannot be recovered.
func ParseLocationKey(locationID string) (EdgeKey, bool) {
	if !strings.HasPrefix(locationID, pathPrefix) {
		return EdgeKey{}, false
	}
	parts := strings.Split(strings.TrimPrefix(locationID, pathPrefix), "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return EdgeKey{}, false
	}
	return NewEdgeKey(parts[0], parts[1]), true
}

// Level is a human-readable congestion class.
type Level string

const (
	Clear    Level = "clear"
	Light    Level = "light"
	Moderate Level = "moderate"
	Heavy    Level = "heavy"
	Severe   Level = "severe"
)

// Classify buckets a rate into a Level.
func Classify(rate float64) Level {
	switch {
	case rate < 0.2:
		return Clear
	case rate < 0.4:
		return Light
	case rate < 0.6:
		return Moderate
	case rate < 0.8:
		return Heavy
	default:
		return Severe
	}
}
