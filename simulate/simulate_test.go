package simulate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedthameursassi/IndoorNavServer/congestion"
)

var start = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func scenario(walkers int, cadence float64) Scenario {
	return Scenario{
		LocationID: "path_a_b",
		Walkers:    walkers,
		Cadence:    cadence,
		Duration:   30 * time.Second,
		Interval:   100 * time.Millisecond,
		Start:      start,
	}
}

func TestSamplesStepPattern(t *testing.T) {
	samples, err := New(1).Samples(scenario(1, 60))
	require.NoError(t, err)
	require.Len(t, samples, 300)

	spikes := 0
	for i, s := range samples {
		assert.Equal(t, start.Add(time.Duration(i)*100*time.Millisecond), s.Timestamp)
		assert.Equal(t, "sim-0", s.UserID)
		if s.Magnitude() > 1.2 {
			spikes++
			assert.Zero(t, i%10, "spike at sample %d", i)
		}
	}
	assert.Equal(t, 30, spikes)
}

func TestSamplesDeterministic(t *testing.T) {
	a, err := New(7).Samples(scenario(2, 90))
	require.NoError(t, err)
	b, err := New(7).Samples(scenario(2, 90))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := New(8).Samples(scenario(2, 90))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestCrowdRaisesCongestion(t *testing.T) {
	rate := func(sc Scenario) float64 {
		samples, err := New(3).Samples(sc)
		require.NoError(t, err)
		est := congestion.New(congestion.WithClock(func() time.Time { return start.Add(sc.Duration) }))
		_, err = est.IngestBatch(samples)
		require.NoError(t, err)
		return est.Estimate(sc.LocationID)
	}

	lone := rate(scenario(1, 100))
	crowd := rate(scenario(20, 40))
	assert.Less(t, lone, 0.1)
	assert.Greater(t, crowd, 0.45)
	assert.Equal(t, congestion.Moderate, congestion.Classify(crowd))
}

func TestScenarioValidate(t *testing.T) {
	bad := []Scenario{
		{},
		{LocationID: "x", Walkers: 0, Cadence: 60, Duration: time.Second, Interval: time.Millisecond},
		{LocationID: "x", Walkers: 1, Cadence: 0, Duration: time.Second, Interval: time.Millisecond},
		{LocationID: "x", Walkers: 1, Cadence: 60, Duration: time.Millisecond, Interval: time.Second},
	}
	for _, sc := range bad {
		_, err := New(1).Samples(sc)
		assert.Error(t, err)
	}
}

func TestReadingsAndByUser(t *testing.T) {
	samples, err := New(1).Samples(scenario(3, 60))
	require.NoError(t, err)

	readings := Readings(samples)
	require.Len(t, readings, len(samples))
	for i, r := range readings {
		require.NoError(t, r.Validate())
		assert.Equal(t, samples[i].Z, *r.Z)
		assert.WithinDuration(t, samples[i].Timestamp, r.Time(), time.Microsecond)
	}

	users, batches := ByUser(samples)
	assert.Equal(t, []string{"sim-0", "sim-1", "sim-2"}, users)
	assert.Len(t, batches["sim-1"], 300)
}
