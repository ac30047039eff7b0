package models

// NodeType classifies a navigation node.
type NodeType string

const (
	Room     NodeType = "room"
	Junction NodeType = "junction"
	Stairs   NodeType = "stairs"
	Elevator NodeType = "elevator"
	Entrance NodeType = "entrance"
	Unknown  NodeType = "unknown"
)

// EdgeType classifies how an edge is traversed.
type EdgeType string

const (
	Hallway      EdgeType = "hallway"
	StairFlight  EdgeType = "stairs"
	ElevatorRide EdgeType = "elevator"
	UnknownEdge  EdgeType = "unknown"
)
