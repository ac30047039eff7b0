package utils

import (
	"strings"

	"github.com/mohamedthameursassi/IndoorNavServer/models"
)

func ParseNodeType(input string) models.NodeType {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "room", "classroom", "office":
		return models.Room
	case "junction", "corridor", "hallway":
		return models.Junction
	case "stairs", "stair", "staircase":
		return models.Stairs
	case "elevator", "lift":
		return models.Elevator
	case "entrance", "exit":
		return models.Entrance
	default:
		return models.Unknown
	}
}

func ParseEdgeType(input string) models.EdgeType {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "hallway", "corridor", "":
		return models.Hallway
	case "stairs", "stair":
		return models.StairFlight
	case "elevator", "lift":
		return models.ElevatorRide
	default:
		return models.UnknownEdge
	}
}
