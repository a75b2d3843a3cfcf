// Package trash loads curated quality definition profiles from a local
// checkout of the TRaSH-Guides metadata repository. Profiles are addressed
// by trash ID and provide default bitrate bounds that explicit local
// definitions override.
package trash

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// qualitySizeDir is the location of the Sonarr quality definition files
// inside a TRaSH-Guides metadata checkout.
const qualitySizeDir = "docs/json/sonarr/quality-size"

// QualitySizeFile is one curated quality definition profile.
type QualitySizeFile struct {
	TrashID   string             `json:"trash_id"`
	Type      string             `json:"type"`
	Qualities []QualitySizeEntry `json:"qualities"`
}

// QualitySizeEntry holds the curated bounds for one quality. Preferred
// and Max are null in the dataset when unbounded.
type QualitySizeEntry struct {
	Quality   string   `json:"quality"`
	Min       float64  `json:"min"`
	Preferred *float64 `json:"preferred"`
	Max       *float64 `json:"max"`
}

// NotFoundError indicates that no quality definition file declares the
// requested trash ID. This is a configuration error, not a transient one.
type NotFoundError struct {
	TrashID string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unable to find quality definition file with trash ID %q", e.TrashID)
}

// Loader reads curated metadata from a directory. The directory is
// resolved once per run and passed in explicitly.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at a TRaSH-Guides metadata checkout.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// QualitySize finds the quality definition profile declaring the given
// trash ID. The match is case-insensitive. Files that fail to parse are
// skipped; if no file matches, a NotFoundError is returned.
func (l *Loader) QualitySize(trashID string) (*QualitySizeFile, error) {
	dir := filepath.Join(l.dir, filepath.FromSlash(qualitySizeDir))
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read quality definition directory: %w", err)
	}

	want := strings.ToLower(trashID)
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Name(), err)
		}
		var qs QualitySizeFile
		if err := json.Unmarshal(data, &qs); err != nil {
			continue
		}
		if strings.ToLower(qs.TrashID) == want {
			return &qs, nil
		}
	}

	return nil, &NotFoundError{TrashID: trashID}
}
