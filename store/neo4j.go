package store

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
	"golang.org/x/sync/errgroup"

	"github.com/mohamedthameursassi/IndoorNavServer/models"
	"github.com/mohamedthameursassi/IndoorNavServer/utils"
)

const (
	nodeLabel     = "NavigationNode"
	buildingLabel = "Building"
	connectsType  = "CONNECTS"
)

// CypherRunner executes one Cypher query and buffers its result.
type CypherRunner interface {
	Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error)
}

// Neo4jExecutor runs queries through the official driver against one
// database.
type Neo4jExecutor struct {
	Driver neo4j.DriverWithContext
	DBName string
}

func NewNeo4jExecutor(uri, username, password, dbName string) (*Neo4jExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("could not create Neo4j driver: %w", err)
	}
	return &Neo4jExecutor{Driver: driver, DBName: dbName}, nil
}

func (e *Neo4jExecutor) Verify(ctx context.Context) error {
	return e.Driver.VerifyConnectivity(ctx)
}

func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.Driver.Close(ctx)
}

func (e *Neo4jExecutor) Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(
		ctx,
		e.Driver,
		query,
		params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.DBName),
	)
	if err != nil {
		return nil, fmt.Errorf("error executing neo4j query: %w", err)
	}
	return result, nil
}

// Neo4jStore reads building topology stored as (:NavigationNode) nodes
// joined by [:CONNECTS {distance}] relationships. A (:Building) node carries
// the topology version.
type Neo4jStore struct {
	runner CypherRunner
}

func NewNeo4jStore(runner CypherRunner) *Neo4jStore {
	return &Neo4jStore{runner: runner}
}

func (s *Neo4jStore) run(ctx context.Context, qb *gocypher.QueryBuilder) (*neo4j.EagerResult, error) {
	query, params, err := qb.Build()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}
	return s.runner.Run(ctx, query, params)
}

// BuildingGraph fetches nodes, edges and the version concurrently.
func (s *Neo4jStore) BuildingGraph(ctx context.Context, buildingID string) (*models.BuildingGraph, error) {
	byBuilding := map[string]interface{}{"building_id": buildingID}
	bg := &models.BuildingGraph{BuildingID: buildingID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.run(gctx, gocypher.NewQueryBuilder().
			Match(gocypher.N("n", nodeLabel).WithProperties(byBuilding)).
			Return("n"))
		if err != nil {
			return fmt.Errorf("fetch nodes: %w", err)
		}
		for _, rec := range res.Records {
			n, err := nodeFromRecord(rec, "n")
			if err != nil {
				return err
			}
			bg.Nodes = append(bg.Nodes, n)
		}
		return nil
	})

	var edges []models.NavigationEdge
	g.Go(func() error {
		res, err := s.run(gctx, gocypher.NewQueryBuilder().
			Match(
				gocypher.N("a", nodeLabel).WithProperties(byBuilding),
				gocypher.R("r", connectsType).To(),
				gocypher.N("b", nodeLabel).WithProperties(byBuilding),
			).
			Return("a", "r", "b"))
		if err != nil {
			return fmt.Errorf("fetch edges: %w", err)
		}
		for _, rec := range res.Records {
			e, err := edgeFromRecord(rec)
			if err != nil {
				return err
			}
			edges = append(edges, e)
		}
		return nil
	})

	g.Go(func() error {
		v, err := s.buildingVersion(gctx, buildingID)
		if err != nil {
			return err
		}
		bg.Version = v
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(bg.Nodes) == 0 {
		return nil, fmt.Errorf("%w: building %s", ErrNotFound, buildingID)
	}
	bg.Edges = edges
	if err := bg.Validate(); err != nil {
		return nil, fmt.Errorf("building %s: %w", buildingID, err)
	}
	return bg, nil
}

// buildingVersion reads the topology version of a building, 0 when the
// building node does not exist yet.
func (s *Neo4jStore) buildingVersion(ctx context.Context, buildingID string) (int64, error) {
	res, err := s.run(ctx, gocypher.NewQueryBuilder().
		Match(gocypher.N("b", buildingLabel).WithProperties(map[string]interface{}{"building_id": buildingID})).
		Return("b"))
	if err != nil {
		return 0, fmt.Errorf("fetch building: %w", err)
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	v, ok := res.Records[0].Get("b")
	if !ok {
		return 0, fmt.Errorf("could not find return value 'b' in query result")
	}
	if node, ok := v.(neo4j.Node); ok {
		return toInt64(node.Props["version"]), nil
	}
	return 0, nil
}

// ImportBuildingGraph replaces a building's topology. The stored version
// becomes the larger of the previous version plus one and bg.Version, and
// bg.Version is updated to match.
func (s *Neo4jStore) ImportBuildingGraph(ctx context.Context, bg *models.BuildingGraph) error {
	if err := bg.Validate(); err != nil {
		return err
	}
	byBuilding := map[string]interface{}{"building_id": bg.BuildingID}

	current, err := s.buildingVersion(ctx, bg.BuildingID)
	if err != nil {
		return err
	}
	version := current + 1
	if bg.Version > version {
		version = bg.Version
	}

	if _, err := s.run(ctx, gocypher.NewQueryBuilder().
		Match(gocypher.N("n", nodeLabel).WithProperties(byBuilding)).
		DetachDelete("n")); err != nil {
		return fmt.Errorf("clear building %s: %w", bg.BuildingID, err)
	}

	for _, n := range bg.Nodes {
		props := map[string]interface{}{
			"node_id":      n.NodeID,
			"building_id":  bg.BuildingID,
			"floor_number": int64(n.FloorNumber),
			"x":            n.X,
			"y":            n.Y,
			"node_type":    string(n.NodeType),
			"name":         n.Name,
		}
		if _, err := s.run(ctx, gocypher.NewQueryBuilder().
			Create(gocypher.N("n", nodeLabel).WithProperties(props))); err != nil {
			return fmt.Errorf("create node %s: %w", n.NodeID, err)
		}
	}

	for _, e := range bg.Edges {
		rel := map[string]interface{}{
			"edge_id":   e.EdgeID,
			"distance":  e.Distance,
			"edge_type": string(e.EdgeType),
		}
		if _, err := s.run(ctx, gocypher.NewQueryBuilder().
			Match(gocypher.N("a", nodeLabel).WithProperties(map[string]interface{}{"node_id": e.Node1ID, "building_id": bg.BuildingID})).
			Match(gocypher.N("b", nodeLabel).WithProperties(map[string]interface{}{"node_id": e.Node2ID, "building_id": bg.BuildingID})).
			Create(
				gocypher.N("a", ""),
				gocypher.R("r", connectsType).To().WithProperties(rel),
				gocypher.N("b", ""),
			)); err != nil {
			return fmt.Errorf("create edge %s-%s: %w", e.Node1ID, e.Node2ID, err)
		}
	}

	if _, err := s.run(ctx, gocypher.NewQueryBuilder().
		Merge(gocypher.N("b", buildingLabel).WithProperties(byBuilding)).
		Set(map[string]interface{}{"b.version": version}).
		Return("b")); err != nil {
		return fmt.Errorf("update building %s: %w", bg.BuildingID, err)
	}
	bg.Version = version
	log.Printf("Imported building %s into Neo4j: version %d, %d nodes, %d edges", bg.BuildingID, version, len(bg.Nodes), len(bg.Edges))
	return nil
}

func nodeFromRecord(rec *neo4j.Record, key string) (models.NavigationNode, error) {
	v, ok := rec.Get(key)
	if !ok {
		return models.NavigationNode{}, fmt.Errorf("could not find return value '%s' in query result", key)
	}
	node, ok := v.(neo4j.Node)
	if !ok {
		return models.NavigationNode{}, fmt.Errorf("return value '%s' is not a node", key)
	}
	p := node.Props
	return models.NavigationNode{
		NodeID:      toString(p["node_id"]),
		BuildingID:  toString(p["building_id"]),
		FloorNumber: int(toInt64(p["floor_number"])),
		X:           toFloat(p["x"]),
		Y:           toFloat(p["y"]),
		NodeType:    utils.ParseNodeType(toString(p["node_type"])),
		Name:        toString(p["name"]),
	}, nil
}

func edgeFromRecord(rec *neo4j.Record) (models.NavigationEdge, error) {
	a, err := nodeFromRecord(rec, "a")
	if err != nil {
		return models.NavigationEdge{}, err
	}
	b, err := nodeFromRecord(rec, "b")
	if err != nil {
		return models.NavigationEdge{}, err
	}
	v, ok := rec.Get("r")
	if !ok {
		return models.NavigationEdge{}, fmt.Errorf("could not find return value 'r' in query result")
	}
	r, ok := v.(neo4j.Relationship)
	if !ok {
		return models.NavigationEdge{}, fmt.Errorf("return value 'r' is not a relationship")
	}
	return models.NavigationEdge{
		EdgeID:   toString(r.Props["edge_id"]),
		Node1ID:  a.NodeID,
		Node2ID:  b.NodeID,
		Distance: toFloat(r.Props["distance"]),
		EdgeType: utils.ParseEdgeType(toString(r.Props["edge_type"])),
	}, nil
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	}
	return 0
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	}
	return 0
}
