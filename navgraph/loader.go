package navgraph

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mohamedthameursassi/IndoorNavServer/models"
)

// DecodeSnapshotJSON parses a building snapshot in JSON form.
func DecodeSnapshotJSON(data []byte) (*models.BuildingGraph, error) {
	var bg models.BuildingGraph
	if err := json.Unmarshal(data, &bg); err != nil {
		return nil, fmt.Errorf("failed to parse graph JSON: %w", err)
	}
	return &bg, nil
}

// DecodeSnapshotGob reads a building snapshot previously written by WriteSnapshotGob.
func DecodeSnapshotGob(r io.Reader) (*models.BuildingGraph, error) {
	var bg models.BuildingGraph
	if err := gob.NewDecoder(r).Decode(&bg); err != nil {
		return nil, fmt.Errorf("failed to decode graph gob: %w", err)
	}
	return &bg, nil
}

// LoadSnapshotFile loads a .json or .gob building snapshot. When the snapshot
// carries no building id the file name is used.
func LoadSnapshotFile(path string) (*models.BuildingGraph, error) {
	log.Printf("Loading graph from: %s", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open graph file: %w", err)
	}
	defer file.Close()

	var bg *models.BuildingGraph
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("could not read graph file: %w", err)
		}
		bg, err = DecodeSnapshotJSON(data)
		if err != nil {
			return nil, err
		}
	case ".gob":
		bg, err = DecodeSnapshotGob(file)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported graph file type: %s", filepath.Ext(path))
	}

	if bg.BuildingID == "" {
		bg.BuildingID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := bg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph file %s: %w", path, err)
	}
	log.Printf("Loaded graph %s: %d nodes, %d edges", bg.BuildingID, len(bg.Nodes), len(bg.Edges))
	return bg, nil
}

// LoadSnapshotsFromDirectory loads every .json and .gob snapshot under folder,
// keyed by building id.
func LoadSnapshotsFromDirectory(folder string) (map[string]*models.BuildingGraph, error) {
	graphs := make(map[string]*models.BuildingGraph)

	err := filepath.Walk(folder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(info.Name()))
		if info.IsDir() || (ext != ".json" && ext != ".gob") {
			return nil
		}
		bg, err := LoadSnapshotFile(path)
		if err != nil {
			return fmt.Errorf("error loading graph from %s: %w", path, err)
		}
		graphs[bg.BuildingID] = bg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return graphs, nil
}

// WriteSnapshotGob encodes bg to path.
func WriteSnapshotGob(path string, bg *models.BuildingGraph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create gob file %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(bg); err != nil {
		return fmt.Errorf("failed to encode graph to gob: %w", err)
	}
	return nil
}

// ConvertJSONToGob rewrites a JSON snapshot as gob.
func ConvertJSONToGob(inputPath, outputPath string) (*models.BuildingGraph, error) {
	bg, err := LoadSnapshotFile(inputPath)
	if err != nil {
		return nil, err
	}
	if err := WriteSnapshotGob(outputPath, bg); err != nil {
		return nil, err
	}
	return bg, nil
}
