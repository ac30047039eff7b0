package models

import (
	"fmt"
	"math"
	"time"
)

// NavigationRequest asks for a route from a named location to either a named
// destination or whatever a voice command resolves to.
type NavigationRequest struct {
	UserID          string `json:"user_id" binding:"required"`
	BuildingID      string `json:"building_id" binding:"required"`
	CurrentLocation string `json:"current_location" binding:"required"`
	Destination     string `json:"destination,omitempty"`
	VoiceCommand    string `json:"voice_command,omitempty"`
}

func (r NavigationRequest) Validate() error {
	switch {
	case r.UserID == "":
		return missing("navigation request", "user_id")
	case r.BuildingID == "":
		return missing("navigation request", "building_id")
	case r.CurrentLocation == "":
		return missing("navigation request", "current_location")
	case r.Destination == "" && r.VoiceCommand == "":
		return missing("navigation request", "destination")
	}
	return nil
}

// AccelerometerReading is one raw sample as sent by the mini program.
// Pointer fields let a missing value be told apart from zero.
type AccelerometerReading struct {
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Z          *float64 `json:"z"`
	Timestamp  *float64 `json:"timestamp"` // unix seconds
	LocationID string   `json:"location_id"`
}

// Time converts the unix-seconds timestamp.
func (a AccelerometerReading) Time() time.Time {
	if a.Timestamp == nil {
		return time.Time{}
	}
	sec, frac := math.Modf(*a.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

func (a AccelerometerReading) Validate() error {
	switch {
	case a.X == nil:
		return missing("accelerometer reading", "x")
	case a.Y == nil:
		return missing("accelerometer reading", "y")
	case a.Z == nil:
		return missing("accelerometer reading", "z")
	case a.Timestamp == nil:
		return missing("accelerometer reading", "timestamp")
	case a.LocationID == "":
		return missing("accelerometer reading", "location_id")
	}
	return nil
}

type CongestionUpdateRequest struct {
	UserID            string                 `json:"user_id" binding:"required"`
	BuildingID        string                 `json:"building_id" binding:"required"`
	AccelerometerData []AccelerometerReading `json:"accelerometer_data"`
}

// Validate checks every reading; one bad reading rejects the request.
func (r CongestionUpdateRequest) Validate() error {
	switch {
	case r.UserID == "":
		return missing("congestion update", "user_id")
	case r.BuildingID == "":
		return missing("congestion update", "building_id")
	}
	for i, a := range r.AccelerometerData {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("reading %d: %w", i, err)
		}
	}
	return nil
}

type FavoriteRequest struct {
	NodeID string `json:"node_id" binding:"required"`
	Name   string `json:"name" binding:"required"`
}
