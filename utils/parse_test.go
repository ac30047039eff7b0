package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mohamedthameursassi/IndoorNavServer/models"
)

func TestParseNodeType(t *testing.T) {
	assert.Equal(t, models.Room, ParseNodeType("Room"))
	assert.Equal(t, models.Stairs, ParseNodeType(" staircase "))
	assert.Equal(t, models.Elevator, ParseNodeType("lift"))
	assert.Equal(t, models.Junction, ParseNodeType("corridor"))
	assert.Equal(t, models.Unknown, ParseNodeType("balcony"))
}

func TestParseEdgeType(t *testing.T) {
	assert.Equal(t, models.Hallway, ParseEdgeType(""))
	assert.Equal(t, models.StairFlight, ParseEdgeType("STAIRS"))
	assert.Equal(t, models.ElevatorRide, ParseEdgeType("elevator"))
	assert.Equal(t, models.UnknownEdge, ParseEdgeType("zipline"))
}
