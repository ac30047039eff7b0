package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mohamedthameursassi/IndoorNavServer/models"
	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
)

// SnapshotStore serves building graphs from <dir>/<building>.gob or
// <dir>/<building>.json. A snapshot's version is its modification time, so
// replacing the file invalidates cached graphs.
type SnapshotStore struct {
	dir string
}

func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

func (s *SnapshotStore) BuildingGraph(ctx context.Context, buildingID string) (*models.BuildingGraph, error) {
	if err := validFileID(buildingID); err != nil {
		return nil, err
	}
	for _, ext := range []string{".gob", ".json"} {
		path := filepath.Join(s.dir, buildingID+ext)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		bg, err := navgraph.LoadSnapshotFile(path)
		if err != nil {
			return nil, err
		}
		if bg.BuildingID != buildingID {
			return nil, fmt.Errorf("snapshot %s holds building %s", path, bg.BuildingID)
		}
		bg.Version = info.ModTime().UnixNano()
		return bg, nil
	}
	return nil, fmt.Errorf("%w: no snapshot for building %s in %s", ErrNotFound, buildingID, s.dir)
}

// validFileID rejects building ids that would resolve outside the snapshot
// directory.
func validFileID(buildingID string) error {
	if buildingID == "" || buildingID == "." || strings.Contains(buildingID, "..") ||
		strings.ContainsAny(buildingID, `/\`) || filepath.IsAbs(buildingID) {
		return fmt.Errorf("%w: building id %q", models.ErrInvalidField, buildingID)
	}
	return nil
}
