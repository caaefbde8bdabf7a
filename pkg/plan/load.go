package plan

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/JMS2088/gablok/pkg/geo"
)

// SceneFile is the file name LoadProject looks for in a project directory.
const SceneFile = "scene.yaml"

// footprintEps is the tolerance for dropping repeated or collinear
// footprint vertices on load.
const footprintEps = 1e-6

// Load reads a scene from a YAML file and normalizes it.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}

	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scene YAML: %w", err)
	}
	if err := Normalize(&s); err != nil {
		return nil, fmt.Errorf("normalizing scene: %w", err)
	}
	return &s, nil
}

// LoadProject loads a scene from a project directory.
// It looks for scene.yaml in the given directory.
func LoadProject(projectDir string) (*Scene, error) {
	return Load(filepath.Join(projectDir, SceneFile))
}

// Save writes the scene as YAML.
func Save(path string, s *Scene) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding scene YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing scene file: %w", err)
	}
	return nil
}

// Normalize prepares an editor-supplied scene for the wall engine: room
// footprints lose repeated and collinear vertices and are wound
// counterclockwise, opening types are checked, and strips without a handle
// get one. A footprint that collapses is left empty so the engine can skip
// the room.
func Normalize(s *Scene) error {
	for i := range s.Rooms {
		r := &s.Rooms[i]
		if r.HasFootprint() {
			r.Footprint = NormalizeFootprint(r.Footprint)
			if r.Footprint == nil {
				r.Footprint = []geo.Point2D{}
			}
		}
		for j, o := range r.Openings {
			if err := o.Type.Validate(); err != nil {
				return fmt.Errorf("room %q opening %d: %w", r.ID, j, err)
			}
		}
	}
	for i := range s.Strips {
		if s.Strips[i].ID == "" {
			s.Strips[i].ID = NewStripID()
		}
	}
	return nil
}

// NormalizeFootprint cleans a footprint polygon; see geo.Polygon.Normalize.
// Footprints with non-finite vertices are returned unchanged for the engine
// to reject.
func NormalizeFootprint(pts []geo.Point2D) []geo.Point2D {
	poly := geo.NewPolygon(pts...)
	if !poly.IsFinite() {
		return pts
	}
	return poly.Normalize(footprintEps).Vertices
}
