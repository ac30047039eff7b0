package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohamedthameursassi/IndoorNavServer/congestion"
	"github.com/mohamedthameursassi/IndoorNavServer/instructions"
	"github.com/mohamedthameursassi/IndoorNavServer/models"
	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
	"github.com/mohamedthameursassi/IndoorNavServer/pathfinding"
	"github.com/mohamedthameursassi/IndoorNavServer/projection"
	"github.com/mohamedthameursassi/IndoorNavServer/store"
	"github.com/mohamedthameursassi/IndoorNavServer/textparse"
)

type NavigationConfig struct {
	FloorHeight      float64 // heuristic height of one floor
	ModelScale       float64
	ModelFloorHeight float64
	PointsPerSegment int
	SecondsPerNode   int
	Dijkstra         bool
}

func DefaultNavigationConfig() NavigationConfig {
	return NavigationConfig{
		FloorHeight:      pathfinding.DefaultFloorHeight,
		ModelScale:       projection.DefaultScale,
		ModelFloorHeight: projection.DefaultFloorHeight,
		PointsPerSegment: 5,
		SecondsPerNode:   10,
	}
}

type cachedGraph struct {
	version   int64
	graph     *navgraph.Graph
	projector *projection.Projector
}

// NavigationService answers route requests for the buildings in its graph
// store. Built graphs are cached per building until reloaded.
type NavigationService struct {
	cfg        NavigationConfig
	graphs     store.GraphStore
	congestion store.CongestionStore
	users      store.UserStore
	parser     *textparse.Parser
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]*cachedGraph
}

func NewNavigationService(cfg NavigationConfig, graphs store.GraphStore, cs store.CongestionStore, users store.UserStore) *NavigationService {
	return &NavigationService{
		cfg:        cfg,
		graphs:     graphs,
		congestion: cs,
		users:      users,
		parser:     textparse.New(),
		now:        time.Now,
		cache:      make(map[string]*cachedGraph),
	}
}

// ComputeGraph returns the navigation graph of a building, building it from
// the store on first use.
func (s *NavigationService) ComputeGraph(ctx context.Context, buildingID string) (*navgraph.Graph, error) {
	entry, err := s.entry(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	return entry.graph, nil
}

func (s *NavigationService) entry(ctx context.Context, buildingID string) (*cachedGraph, error) {
	s.mu.RLock()
	entry, ok := s.cache[buildingID]
	s.mu.RUnlock()
	if ok {
		graphCache.WithLabelValues("hit").Inc()
		return entry, nil
	}
	graphCache.WithLabelValues("miss").Inc()
	return s.load(ctx, buildingID)
}

func (s *NavigationService) load(ctx context.Context, buildingID string) (*cachedGraph, error) {
	ctx, span := tracer.Start(ctx, "services.NavigationService.ComputeGraph",
		trace.WithAttributes(attribute.String("building_id", buildingID)))
	defer span.End()

	bg, err := s.graphs.BuildingGraph(ctx, buildingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch building graph")
		return nil, fmt.Errorf("load building %s: %w", buildingID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.cache[buildingID]; ok && cur.version == bg.Version {
		return cur, nil
	}

	g, err := navgraph.FromRecords(bg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build graph")
		return nil, err
	}
	p := projection.New(
		projection.WithScale(s.cfg.ModelScale),
		projection.WithFloorHeight(s.cfg.ModelFloorHeight),
	)
	p.RegisterGraph(g)

	entry := &cachedGraph{version: bg.Version, graph: g, projector: p}
	s.cache[buildingID] = entry
	span.SetAttributes(attribute.Int("nodes", g.Len()), attribute.Int64("version", bg.Version))
	log.Printf("Built graph for building %s (version %d): %d nodes", buildingID, bg.Version, g.Len())
	return entry, nil
}

// ReloadGraph refetches a building and rebuilds its graph when the stored
// version changed. It reports the current version and whether it changed.
func (s *NavigationService) ReloadGraph(ctx context.Context, buildingID string) (int64, bool, error) {
	s.mu.RLock()
	prev, had := s.cache[buildingID]
	s.mu.RUnlock()

	graphCache.WithLabelValues("reload").Inc()
	entry, err := s.load(ctx, buildingID)
	if err != nil {
		return 0, false, err
	}
	return entry.version, !had || prev != entry, nil
}

// InvalidateGraph drops the cached graph of a building.
func (s *NavigationService) InvalidateGraph(buildingID string) {
	s.mu.Lock()
	delete(s.cache, buildingID)
	s.mu.Unlock()
}

// Snapshot collects the latest stored congestion of a building into a
// read-only map for one search.
func (s *NavigationService) Snapshot(ctx context.Context, buildingID string) (pathfinding.Snapshot, error) {
	records, err := s.congestion.LatestCongestion(ctx, buildingID)
	if err != nil {
		return nil, fmt.Errorf("load congestion for %s: %w", buildingID, err)
	}
	snap := make(pathfinding.Snapshot, len(records))
	for _, c := range records {
		snap[congestion.NewEdgeKey(c.Node1ID, c.Node2ID)] = c.CongestionRate
	}
	return snap, nil
}

// FindRoute searches g and maps search failures onto service errors.
func (s *NavigationService) FindRoute(ctx context.Context, g *navgraph.Graph, startID, goalID string, snapshot pathfinding.Snapshot) (pathfinding.Route, error) {
	opts := []pathfinding.Option{pathfinding.WithFloorHeight(s.cfg.FloorHeight)}
	if s.cfg.Dijkstra {
		opts = append(opts, pathfinding.WithDijkstra())
	}

	_, span := tracer.Start(ctx, "services.NavigationService.FindRoute",
		trace.WithAttributes(attribute.String("start", startID), attribute.String("goal", goalID)))
	defer span.End()

	start := time.Now()
	route, err := pathfinding.FindRoute(g, startID, goalID, snapshot, opts...)
	routeDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, pathfinding.ErrNodeNotFound):
		routeQueries.WithLabelValues("not_found").Inc()
		return route, &LocationError{StartFound: g.HasNode(startID), EndFound: g.HasNode(goalID)}
	case errors.Is(err, pathfinding.ErrNoPath):
		routeQueries.WithLabelValues("no_route").Inc()
		return route, fmt.Errorf("%w: %s -> %s", ErrNoRoute, startID, goalID)
	case err != nil:
		routeQueries.WithLabelValues("error").Inc()
		return route, err
	}
	routeQueries.WithLabelValues("ok").Inc()
	routeLength.Observe(float64(len(route.Path)))
	return route, nil
}

type ProjectedRoute struct {
	Points   []projection.Point3D
	Segments []projection.Segment
}

// ProjectRoute produces the smoothed 3D polyline and the segments of path.
func ProjectRoute(p *projection.Projector, path []string, pointsPerSegment int) ProjectedRoute {
	return ProjectedRoute{
		Points:   p.Smooth(path, pointsPerSegment),
		Segments: p.Segments(path),
	}
}

// Destination resolves the destination name of a request, parsing the voice
// command when one is given.
func (s *NavigationService) Destination(req models.NavigationRequest) (string, error) {
	if req.VoiceCommand == "" {
		return req.Destination, nil
	}
	cmd := s.parser.Parse(req.VoiceCommand)
	if cmd.Type != textparse.Navigate || cmd.Destination == "" {
		return "", &CommandError{Command: cmd}
	}
	return cmd.Destination, nil
}

// resolve looks a location up as given, then in its standardized form, so
// "二楼" finds "2楼大厅".
func (s *NavigationService) resolve(g *navgraph.Graph, name string) (*navgraph.Node, error) {
	n, err := g.ResolveLocation(name)
	if err == nil {
		return n, nil
	}
	if std := s.parser.Standardize(name); std != name {
		if n, stdErr := g.ResolveLocation(std); stdErr == nil {
			return n, nil
		}
	}
	return nil, err
}

// Navigate runs a full request: destination parsing, location lookup, route
// search, projection and history.
func (s *NavigationService) Navigate(ctx context.Context, req models.NavigationRequest) (*models.NavigationResponse, error) {
	ctx, span := tracer.Start(ctx, "services.NavigationService.Navigate",
		trace.WithAttributes(
			attribute.String("building_id", req.BuildingID),
			attribute.String("user_id", req.UserID),
		))
	defer span.End()

	resp, err := s.navigate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigate")
		return nil, err
	}
	span.SetAttributes(attribute.Int("path_nodes", len(resp.Path)))
	span.SetStatus(codes.Ok, "route found")
	return resp, nil
}

func (s *NavigationService) navigate(ctx context.Context, req models.NavigationRequest) (*models.NavigationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	destination, err := s.Destination(req)
	if err != nil {
		return nil, err
	}

	entry, err := s.entry(ctx, req.BuildingID)
	if err != nil {
		return nil, err
	}
	g := entry.graph

	start, startErr := s.resolve(g, req.CurrentLocation)
	end, endErr := s.resolve(g, destination)
	if startErr != nil || endErr != nil {
		routeQueries.WithLabelValues("not_found").Inc()
		return nil, &LocationError{StartFound: startErr == nil, EndFound: endErr == nil}
	}

	snapshot, err := s.Snapshot(ctx, req.BuildingID)
	if err != nil {
		return nil, err
	}
	route, err := s.FindRoute(ctx, g, start.ID, end.ID, snapshot)
	if err != nil {
		return nil, err
	}

	projected := ProjectRoute(entry.projector, route.Path, s.cfg.PointsPerSegment)

	history := models.NavigationHistory{
		HistoryID:   uuid.NewString(),
		UserID:      req.UserID,
		StartNodeID: start.ID,
		EndNodeID:   end.ID,
		StartTime:   s.now(),
		Path:        route.Path,
	}
	if err := s.users.AddHistory(ctx, history); err != nil {
		log.Printf("Failed to save navigation history for %s: %v", req.UserID, err)
	}

	info := make(map[string]string, len(projected.Segments))
	for _, seg := range projected.Segments {
		rate := snapshot.Rate(seg.StartNodeID, seg.EndNodeID)
		info[seg.StartNodeID+"_"+seg.EndNodeID] = string(congestion.Classify(rate))
	}

	return &models.NavigationResponse{
		Path:           route.Path,
		Instructions:   instructions.Generate(g, route.Path),
		Path3D:         toModelPoints(projected.Points),
		PathSegments:   toModelSegments(projected.Segments),
		EstimatedTime:  len(route.Path) * s.cfg.SecondsPerNode,
		TotalCost:      route.Cost,
		TotalDistance:  instructions.Length(g, route.Path),
		CongestionInfo: info,
	}, nil
}

func toModelPoint(p projection.Point3D) models.Point3D {
	return models.Point3D{X: p.X, Y: p.Y, Z: p.Z}
}

func toModelPoints(pts []projection.Point3D) []models.Point3D {
	out := make([]models.Point3D, len(pts))
	for i, p := range pts {
		out[i] = toModelPoint(p)
	}
	return out
}

func toModelSegments(segs []projection.Segment) []models.PathSegment {
	out := make([]models.PathSegment, len(segs))
	for i, s := range segs {
		out[i] = models.PathSegment{
			Start:         toModelPoint(s.Start),
			End:           toModelPoint(s.End),
			IsFloorChange: s.IsFloorChange,
			StartNodeID:   s.StartNodeID,
			EndNodeID:     s.EndNodeID,
		}
	}
	return out
}
