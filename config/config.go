// Package config reads server settings from the environment, after loading
// a .env file when one exists.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mohamedthameursassi/IndoorNavServer/congestion"
	"github.com/mohamedthameursassi/IndoorNavServer/services"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendSnapshot = "snapshot"
	BackendNeo4j    = "neo4j"
)

type Neo4j struct {
	URI      string
	User     string
	Password string
	Database string
}

type Config struct {
	APIAddr      string
	OpsAddr      string
	BuildingID   string
	StoreBackend string
	GraphDataDir string
	BadgerDir    string // empty keeps user data in memory
	Neo4j        Neo4j

	CongestionTTL time.Duration
	Navigation    services.NavigationConfig
	Congestion    congestion.Config
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default environment variables")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, applying defaults for unset keys.
// A set but malformed value is an error.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}
	cfg := &Config{
		APIAddr:      r.getString("API_ADDR", ":8080"),
		OpsAddr:      r.getString("OPS_ADDR", ":9090"),
		BuildingID:   r.getString("BUILDING_ID", "building123"),
		StoreBackend: r.getString("STORE_BACKEND", BackendMemory),
		GraphDataDir: r.getString("GRAPH_DATA_DIR", "data"),
		BadgerDir:    r.getString("BADGER_DIR", ""),
		Neo4j: Neo4j{
			URI:      r.getString("NEO4J_URI", "neo4j://localhost:7687"),
			User:     r.getString("NEO4J_USER", "neo4j"),
			Password: r.getString("NEO4J_PASSWORD", ""),
			Database: r.getString("NEO4J_DATABASE", "neo4j"),
		},
	}

	nav := services.DefaultNavigationConfig()
	nav.FloorHeight = r.getFloat("FLOOR_HEIGHT", nav.FloorHeight)
	nav.ModelScale = r.getFloat("MODEL_SCALE", nav.ModelScale)
	nav.ModelFloorHeight = r.getFloat("MODEL_FLOOR_HEIGHT", nav.ModelFloorHeight)
	nav.PointsPerSegment = r.getInt("POINTS_PER_SEGMENT", nav.PointsPerSegment)
	nav.SecondsPerNode = r.getInt("SECONDS_PER_NODE", nav.SecondsPerNode)
	nav.Dijkstra = r.getBool("DIJKSTRA", nav.Dijkstra)
	cfg.Navigation = nav

	cc := congestion.DefaultConfig()
	cc.Expiry = r.getDuration("CONGESTION_EXPIRY", cc.Expiry)
	cc.Freshness = r.getDuration("CONGESTION_FRESHNESS", cc.Freshness)
	cc.StepThreshold = r.getFloat("CONGESTION_STEP_THRESHOLD", cc.StepThreshold)
	cc.StepCooldown = r.getDuration("CONGESTION_STEP_COOLDOWN", cc.StepCooldown)
	cc.MaxOccupancy = r.getInt("CONGESTION_MAX_OCCUPANCY", cc.MaxOccupancy)
	cfg.Congestion = cc
	// Stored congestion outlives the estimator window only when asked to.
	cfg.CongestionTTL = r.getDuration("CONGESTION_TTL", cc.Expiry)

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendSnapshot, BackendNeo4j:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch {
	case c.Navigation.FloorHeight < 0:
		return fmt.Errorf("config: FLOOR_HEIGHT must not be negative")
	case c.Navigation.ModelScale <= 0:
		return fmt.Errorf("config: MODEL_SCALE must be positive")
	case c.Navigation.PointsPerSegment < 1:
		return fmt.Errorf("config: POINTS_PER_SEGMENT must be at least 1")
	case c.Congestion.MaxOccupancy < 1:
		return fmt.Errorf("config: CONGESTION_MAX_OCCUPANCY must be at least 1")
	case c.Congestion.Expiry <= 0 || c.Congestion.Freshness <= 0:
		return fmt.Errorf("config: congestion windows must be positive")
	}
	return nil
}

// reader keeps the first parse error so FromEnv can read every key in one
// pass.
type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (r *reader) fail(key, v string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("config: invalid %s=%q: %w", key, v, err)
	}
}

func (r *reader) getString(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) getInt(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *reader) getFloat(key string, def float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return f
}

func (r *reader) getBool(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *reader) getDuration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}
