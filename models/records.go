package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingField is returned when a boundary record lacks a required field.
var ErrMissingField = errors.New("models: missing required field")

// ErrInvalidField is returned when a field is present but out of range.
var ErrInvalidField = errors.New("models: invalid field")

func missing(record, field string) error {
	return fmt.Errorf("%w: %s.%s", ErrMissingField, record, field)
}

type Building struct {
	BuildingID  string `json:"building_id"`
	Name        string `json:"name"`
	Floors      int    `json:"floors"`
	Description string `json:"description,omitempty"`
}

// NavigationNode is a node record as stored by the persistence layer.
type NavigationNode struct {
	NodeID      string   `json:"node_id"`
	BuildingID  string   `json:"building_id"`
	FloorNumber int      `json:"floor_number"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	NodeType    NodeType `json:"node_type"`
	Name        string   `json:"name,omitempty"`
}

func (n NavigationNode) Validate() error {
	if n.NodeID == "" {
		return missing("node", "node_id")
	}
	return nil
}

// NavigationEdge is an undirected connection record between two nodes.
type NavigationEdge struct {
	EdgeID   string   `json:"edge_id,omitempty"`
	Node1ID  string   `json:"node1_id"`
	Node2ID  string   `json:"node2_id"`
	Distance float64  `json:"distance"`
	EdgeType EdgeType `json:"edge_type,omitempty"`
}

func (e NavigationEdge) Validate() error {
	if e.Node1ID == "" {
		return missing("edge", "node1_id")
	}
	if e.Node2ID == "" {
		return missing("edge", "node2_id")
	}
	if e.Distance < 0 {
		return fmt.Errorf("%w: edge %s-%s distance %.2f is negative", ErrInvalidField, e.Node1ID, e.Node2ID, e.Distance)
	}
	return nil
}

// BuildingGraph is everything the persistence layer returns for one building.
type BuildingGraph struct {
	BuildingID string           `json:"building_id"`
	Version    int64            `json:"version"`
	Nodes      []NavigationNode `json:"nodes"`
	Edges      []NavigationEdge `json:"edges"`
}

func (bg *BuildingGraph) Validate() error {
	for _, n := range bg.Nodes {
		if err := n.Validate(); err != nil {
			return err
		}
	}
	for _, e := range bg.Edges {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CongestionData is a persisted congestion rate for an edge.
type CongestionData struct {
	CongestionID   string    `json:"congestion_id"`
	BuildingID     string    `json:"building_id"`
	Node1ID        string    `json:"node1_id"`
	Node2ID        string    `json:"node2_id"`
	CongestionRate float64   `json:"congestion_rate"`
	Timestamp      time.Time `json:"timestamp"`
}

func (c CongestionData) Validate() error {
	switch {
	case c.BuildingID == "":
		return missing("congestion", "building_id")
	case c.Node1ID == "":
		return missing("congestion", "node1_id")
	case c.Node2ID == "":
		return missing("congestion", "node2_id")
	case c.Timestamp.IsZero():
		return missing("congestion", "timestamp")
	}
	if c.CongestionRate < 0 || c.CongestionRate > 1 {
		return fmt.Errorf("%w: congestion rate %.3f outside [0,1]", ErrInvalidField, c.CongestionRate)
	}
	return nil
}

type NavigationHistory struct {
	HistoryID   string    `json:"history_id"`
	UserID      string    `json:"user_id"`
	StartNodeID string    `json:"start_node_id"`
	EndNodeID   string    `json:"end_node_id"`
	StartTime   time.Time `json:"start_time"`
	Path        []string  `json:"path"`
}

func (h NavigationHistory) Validate() error {
	switch {
	case h.UserID == "":
		return missing("history", "user_id")
	case h.StartNodeID == "":
		return missing("history", "start_node_id")
	case h.EndNodeID == "":
		return missing("history", "end_node_id")
	}
	return nil
}

type FavoriteDestination struct {
	FavoriteID string    `json:"favorite_id"`
	UserID     string    `json:"user_id"`
	NodeID     string    `json:"node_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

func (f FavoriteDestination) Validate() error {
	switch {
	case f.UserID == "":
		return missing("favorite", "user_id")
	case f.NodeID == "":
		return missing("favorite", "node_id")
	case f.Name == "":
		return missing("favorite", "name")
	}
	return nil
}

// UserSettings mirrors the per-user preferences of the mini program.
type UserSettings struct {
	VoiceVolume int    `json:"voice_volume"`
	WakeWord    string `json:"wake_word"`
}

// DefaultUserSettings returns the settings a new user starts with.
func DefaultUserSettings() UserSettings {
	return UserSettings{VoiceVolume: 80, WakeWord: "小导小导"}
}

func (s UserSettings) Validate() error {
	if s.VoiceVolume < 0 || s.VoiceVolume > 100 {
		return fmt.Errorf("%w: voice_volume %d outside [0,100]", ErrInvalidField, s.VoiceVolume)
	}
	return nil
}
