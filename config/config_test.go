package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, ":9090", cfg.OpsAddr)
	assert.Equal(t, "building123", cfg.BuildingID)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "data", cfg.GraphDataDir)
	assert.Empty(t, cfg.BadgerDir)
	assert.Equal(t, 5.0, cfg.Navigation.FloorHeight)
	assert.Equal(t, 1.0, cfg.Navigation.ModelScale)
	assert.Equal(t, 4.0, cfg.Navigation.ModelFloorHeight)
	assert.Equal(t, 5, cfg.Navigation.PointsPerSegment)
	assert.False(t, cfg.Navigation.Dijkstra)
	assert.Equal(t, 300*time.Second, cfg.Congestion.Expiry)
	assert.Equal(t, 60*time.Second, cfg.Congestion.Freshness)
	assert.Equal(t, 20, cfg.Congestion.MaxOccupancy)
	assert.Equal(t, cfg.Congestion.Expiry, cfg.CongestionTTL)
}

func TestOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"API_ADDR":                  ":80",
		"STORE_BACKEND":             "neo4j",
		"NEO4J_URI":                 "neo4j://db:7687",
		"NEO4J_PASSWORD":            "secret",
		"FLOOR_HEIGHT":              "3.5",
		"POINTS_PER_SEGMENT":        "8",
		"DIJKSTRA":                  "true",
		"CONGESTION_EXPIRY":         "10m",
		"CONGESTION_STEP_THRESHOLD": "1.5",
		"CONGESTION_MAX_OCCUPANCY":  "40",
		"BADGER_DIR":                "",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":80", cfg.APIAddr)
	assert.Equal(t, BackendNeo4j, cfg.StoreBackend)
	assert.Equal(t, "neo4j://db:7687", cfg.Neo4j.URI)
	assert.Equal(t, "secret", cfg.Neo4j.Password)
	assert.Equal(t, "neo4j", cfg.Neo4j.User)
	assert.Equal(t, 3.5, cfg.Navigation.FloorHeight)
	assert.Equal(t, 8, cfg.Navigation.PointsPerSegment)
	assert.True(t, cfg.Navigation.Dijkstra)
	assert.Equal(t, 10*time.Minute, cfg.Congestion.Expiry)
	assert.Equal(t, 1.5, cfg.Congestion.StepThreshold)
	assert.Equal(t, 40, cfg.Congestion.MaxOccupancy)
	assert.Empty(t, cfg.BadgerDir)
}

func TestMalformedValues(t *testing.T) {
	cases := map[string]string{
		"FLOOR_HEIGHT":             "five",
		"POINTS_PER_SEGMENT":       "5.5",
		"DIJKSTRA":                 "sometimes",
		"CONGESTION_EXPIRY":        "300",
		"CONGESTION_MAX_OCCUPANCY": "0",
		"STORE_BACKEND":            "postgres",
		"MODEL_SCALE":              "-1",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			_, err := FromEnv(env(map[string]string{key: val}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
