package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JMS2088/gablok/internal/store"
	"github.com/JMS2088/gablok/pkg/plan"
)

const testSceneYAML = `rooms:
  - id: r1
    height: 3
    footprint:
      - {x: 0, z: 0}
      - {x: 4, z: 0}
      - {x: 4, z: 3}
      - {x: 0, z: 3}
garages:
  - id: g1
    x: 10
    z: 10
    width: 6
    depth: 4
`

func writeProject(t *testing.T) string {
	t.Helper()
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, plan.SceneFile), []byte(testSceneYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func loadStrips(t *testing.T, dir string) []plan.WallStrip {
	t.Helper()
	s, err := plan.LoadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	return s.Strips
}

func TestRunRebuildWritesScene(t *testing.T) {
	dir := writeProject(t)

	if err := runRebuild("", dir, rebuildOptions{dryRun: true}); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if n := len(loadStrips(t, dir)); n != 0 {
		t.Fatalf("dry run wrote %d strips", n)
	}

	if err := runRebuild("", dir, rebuildOptions{thickness: 0.25}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	strips := loadStrips(t, dir)
	if len(strips) != 7 {
		t.Fatalf("expected 7 strips, got %d", len(strips))
	}
	for _, st := range strips {
		if st.Thickness != 0.25 {
			t.Errorf("strip %s thickness = %v, want 0.25", st.ID, st.Thickness)
		}
	}

	// A second rebuild keeps the same handles.
	if err := runRebuild("", dir, rebuildOptions{thickness: 0.25}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	again := loadStrips(t, dir)
	for i := range strips {
		if strips[i].ID != again[i].ID {
			t.Errorf("strip %d id changed from %s to %s", i, strips[i].ID, again[i].ID)
		}
	}
}

func TestRunRebuildPersists(t *testing.T) {
	dir := writeProject(t)
	t.Setenv("GABLOK_DB", filepath.Join(t.TempDir(), "snap.db"))
	t.Setenv("GABLOK_SNAPSHOT_KEEP", "1")

	for range 2 {
		if err := runRebuild("", dir, rebuildOptions{dryRun: true, persist: true}); err != nil {
			t.Fatalf("rebuild: %v", err)
		}
	}

	ctx := context.Background()
	st, err := store.Open(ctx, os.Getenv("GABLOK_DB"))
	if err != nil {
		t.Fatalf("snapshot database not usable: %v", err)
	}
	defer st.Close()
	snaps, err := st.Snapshots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].StripCount != 7 {
		t.Errorf("expected one retained snapshot of 7 strips, got %+v", snaps)
	}
}

func TestRunCheck(t *testing.T) {
	dir := writeProject(t)

	if err := runCheck("", dir, false); err == nil {
		t.Fatal("expected errors for a scene without walls")
	}
	if err := runCheck("", dir, true); err != nil {
		t.Fatalf("check after rebuild: %v", err)
	}
}

func TestRunPurge(t *testing.T) {
	dir := writeProject(t)
	if err := runRebuild("", dir, rebuildOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := runPurge("", dir, purgeOptions{box: []float64{1, 2}}); err == nil {
		t.Fatal("expected error for short box")
	}
	if err := runPurge("", dir, purgeOptions{box: []float64{1, -0.1, 2, 0.1}, dedupe: true}); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n := len(loadStrips(t, dir)); n != 6 {
		t.Errorf("expected 6 strips after purge, got %d", n)
	}
}

func TestRunExport(t *testing.T) {
	dir := writeProject(t)
	out := filepath.Join(t.TempDir(), "walls.geojson")

	if err := runExport("", dir, exportOptions{rebuild: true, out: out}); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), `"LineString"`); got != 7 {
		t.Errorf("expected 7 LineString features, got %d", got)
	}

	if err := runExport("", dir, exportOptions{level: 2, levelSet: true, out: out}); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, _ = os.ReadFile(out)
	if strings.Contains(string(data), `"LineString"`) {
		t.Error("level 2 has no walls")
	}
}

func TestRunExportSplitByLevel(t *testing.T) {
	dir := writeProject(t)
	outDir := filepath.Join(t.TempDir(), "levels")

	if err := runExport("", dir, exportOptions{rebuild: true, split: true}); err == nil {
		t.Fatal("expected an error without --out")
	}
	if err := runExport("", dir, exportOptions{rebuild: true, split: true, out: outDir}); err != nil {
		t.Fatalf("export: %v", err)
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "level-0.geojson" {
		t.Fatalf("unexpected files: %v", entries)
	}
	data, _ := os.ReadFile(filepath.Join(outDir, "level-0.geojson"))
	if got := strings.Count(string(data), `"LineString"`); got != 7 {
		t.Errorf("expected 7 LineString features, got %d", got)
	}
}
