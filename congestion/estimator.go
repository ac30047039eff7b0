// Package congestion turns pedestrians' accelerometer streams into a 0-1
// congestion rate per location.
//
// Three factors are blended for a location: how slowly people step (speed),
// how erratic their acceleration is (variance) and how many distinct people
// are present (density). Samples expire after Config.Expiry and computed
// rates are memoized for Config.Freshness.
//
// Each location owns its own lock, so ingestion for one corridor never waits
// on estimation for another.
package congestion

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Blend weights of the three factors. They sum to 1.
const (
	speedWeight    = 0.5
	varianceWeight = 0.3
	densityWeight  = 0.2

	// baselineStepsPerMinute is a normal walking cadence.
	baselineStepsPerMinute = 100.0
	// varianceNormalizer maps magnitude variance onto [0,1].
	varianceNormalizer = 5.0
)

type Config struct {
	Expiry        time.Duration // samples older than this are evicted
	Freshness     time.Duration // memoized rates younger than this are reused
	StepThreshold float64       // magnitude above which a sample is a step
	StepCooldown  time.Duration // minimum gap between two counted steps
	MaxOccupancy  int           // distinct users at which density saturates
}

func DefaultConfig() Config {
	return Config{
		Expiry:        300 * time.Second,
		Freshness:     60 * time.Second,
		StepThreshold: 1.2,
		StepCooldown:  500 * time.Millisecond,
		MaxOccupancy:  20,
	}
}

// Factors is the breakdown behind a congestion rate.
type Factors struct {
	Speed    float64 `json:"speed"`
	Variance float64 `json:"variance"`
	Density  float64 `json:"density"`
	Rate     float64 `json:"rate"`
	Users    int     `json:"users"`
	Samples  int     `json:"samples"`
}

type memo struct {
	rate float64
	at   time.Time
}

type record struct {
	mu      sync.Mutex
	samples []Sample // arrival order
	memo    *memo
}

// prune drops samples that are at least expiry old at now.
func (r *record) prune(now time.Time, expiry time.Duration) int {
	kept := r.samples[:0]
	for _, s := range r.samples {
		if now.Sub(s.Timestamp) < expiry {
			kept = append(kept, s)
		}
	}
	evicted := len(r.samples) - len(kept)
	for i := len(kept); i < len(r.samples); i++ {
		r.samples[i] = Sample{}
	}
	r.samples = kept
	return evicted
}

type Option func(*Estimator)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

func WithConfig(cfg Config) Option {
	return func(e *Estimator) { e.cfg = cfg }
}

// Estimator holds the per-location sample windows. It is safe for
// concurrent use.
type Estimator struct {
	cfg Config
	now func() time.Time

	mu      sync.RWMutex // guards records, not their contents
	records map[string]*record
}

func New(opts ...Option) *Estimator {
	e := &Estimator{
		cfg:     DefaultConfig(),
		now:     time.Now,
		records: make(map[string]*record),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.MaxOccupancy <= 0 {
		e.cfg.MaxOccupancy = DefaultConfig().MaxOccupancy
	}
	return e
}

func (e *Estimator) Config() Config { return e.cfg }

func (e *Estimator) lookup(locationID string) *record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.records[locationID]
}

func (e *Estimator) recordFor(locationID string) *record {
	if r := e.lookup(locationID); r != nil {
		return r
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.records[locationID]
	if !ok {
		r = &record{}
		e.records[locationID] = r
	}
	return r
}

// Ingest appends a sample to its location and evicts expired samples there.
func (e *Estimator) Ingest(s Sample) error {
	if err := s.Validate(); err != nil {
		return err
	}
	e.insert(s)
	return nil
}

func (e *Estimator) insert(s Sample) {
	r := e.recordFor(s.LocationID)
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.prune(e.now(), e.cfg.Expiry)
	r.mu.Unlock()
}

// IngestBatch validates every sample before touching any state, so a
// malformed sample rejects the whole batch. It returns the rate of every
// location the batch touched plus every tracked location that still holds
// samples.
func (e *Estimator) IngestBatch(samples []Sample) (map[string]float64, error) {
	for i, s := range samples {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	touched := make(map[string]struct{})
	for _, s := range samples {
		e.insert(s)
		touched[s.LocationID] = struct{}{}
	}

	rates := make(map[string]float64)
	for _, loc := range e.Locations() {
		_, wasTouched := touched[loc]
		rate, ok := e.estimate(loc)
		if ok || wasTouched {
			rates[loc] = rate
		}
	}
	return rates, nil
}

// Estimate returns the congestion rate for a location; unknown or empty
// locations have rate 0.
func (e *Estimator) Estimate(locationID string) float64 {
	rate, _ := e.estimate(locationID)
	return rate
}

// estimate reports false when the location holds no live samples.
func (e *Estimator) estimate(locationID string) (float64, bool) {
	r := e.lookup(locationID)
	if r == nil {
		return 0, false
	}

	now := e.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memo != nil && now.Sub(r.memo.at) < e.cfg.Freshness {
		return r.memo.rate, true
	}

	r.prune(now, e.cfg.Expiry)
	if len(r.samples) == 0 {
		return 0, false
	}

	f := e.compute(r.samples)
	r.memo = &memo{rate: f.Rate, at: now}
	return f.Rate, true
}

// EstimateBetween returns the direction-independent rate for the edge a-b.
func (e *Estimator) EstimateBetween(a, b string) float64 {
	return e.Estimate(LocationKey(a, b))
}

// Inspect recomputes the factor breakdown for a location, bypassing the memo.
func (e *Estimator) Inspect(locationID string) (Factors, bool) {
	r := e.lookup(locationID)
	if r == nil {
		return Factors{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(e.now(), e.cfg.Expiry)
	if len(r.samples) == 0 {
		return Factors{}, false
	}
	return e.compute(r.samples), true
}

// Snapshot captures the current rate of every tracked edge location. The
// returned map is owned by the caller and never changes afterwards.
func (e *Estimator) Snapshot() map[EdgeKey]float64 {
	snap := make(map[EdgeKey]float64)
	for _, loc := range e.Locations() {
		key, ok := ParseLocationKey(loc)
		if !ok {
			continue
		}
		if rate, ok := e.estimate(loc); ok {
			snap[key] = rate
		}
	}
	return snap
}

// Locations lists tracked location ids in sorted order, including ones whose
// samples have all expired.
func (e *Estimator) Locations() []string {
	e.mu.RLock()
	ids := make([]string, 0, len(e.records))
	for id := range e.records {
		ids = append(ids, id)
	}
	e.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (e *Estimator) compute(samples []Sample) Factors {
	byUser := make(map[string][]Sample)
	for _, s := range samples {
		byUser[s.UserID] = append(byUser[s.UserID], s)
	}
	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)

	var speedSum float64
	var speedCount int
	for _, u := range users {
		if spm, ok := e.stepsPerMinute(byUser[u]); ok {
			speedSum += spm
			speedCount++
		}
	}
	var avgSpeed float64
	if speedCount > 0 {
		avgSpeed = speedSum / float64(speedCount)
	}
	speed := clamp01(1 - avgSpeed/baselineStepsPerMinute)

	var variance float64
	if len(samples) > 1 {
		variance = math.Min(1, magnitudeVariance(samples)/varianceNormalizer)
	}

	density := clamp01(float64(len(users)) / float64(e.cfg.MaxOccupancy))

	return Factors{
		Speed:    speed,
		Variance: variance,
		Density:  density,
		Rate:     clamp01(speedWeight*speed + varianceWeight*variance + densityWeight*density),
		Users:    len(users),
		Samples:  len(samples),
	}
}

// stepsPerMinute counts steps in one user's samples. It reports false when
// the samples span no time.
func (e *Estimator) stepsPerMinute(userSamples []Sample) (float64, bool) {
	sorted := make([]Sample, len(userSamples))
	copy(sorted, userSamples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	steps := 0
	var lastStep time.Time
	for _, s := range sorted {
		if s.Magnitude() <= e.cfg.StepThreshold {
			continue
		}
		if steps == 0 || s.Timestamp.Sub(lastStep) > e.cfg.StepCooldown {
			steps++
			lastStep = s.Timestamp
		}
	}

	span := sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp).Minutes()
	if span <= 0 {
		return 0, false
	}
	return float64(steps) / span, true
}

func magnitudeVariance(samples []Sample) float64 {
	var mean float64
	for _, s := range samples {
		mean += s.Magnitude()
	}
	mean /= float64(len(samples))

	var sum float64
	for _, s := range samples {
		d := s.Magnitude() - mean
		sum += d * d
	}
	return sum / float64(len(samples))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
