package models

type ApiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type PathSegment struct {
	Start         Point3D `json:"start"`
	End           Point3D `json:"end"`
	IsFloorChange bool    `json:"is_floor_change"`
	StartNodeID   string  `json:"start_node_id"`
	EndNodeID     string  `json:"end_node_id"`
}

type NavigationResponse struct {
	Path           []string          `json:"path"`
	Instructions   []string          `json:"instructions"`
	Path3D         []Point3D         `json:"path_3d"`
	PathSegments   []PathSegment     `json:"path_segments"`
	EstimatedTime  int               `json:"estimated_time"` // seconds
	TotalCost      float64           `json:"total_cost"`
	TotalDistance  float64           `json:"total_distance"`
	CongestionInfo map[string]string `json:"congestion_info"`
}

type CongestionUpdateResponse struct {
	Success          bool               `json:"success"`
	UpdatedLocations int                `json:"updated_locations"`
	Rates            map[string]float64 `json:"rates,omitempty"`
}

type FavoriteResponse struct {
	Success    bool   `json:"success"`
	FavoriteID string `json:"favorite_id"`
}
