package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/JMS2088/gablok/internal/config"
	"github.com/JMS2088/gablok/internal/server"
	"github.com/JMS2088/gablok/internal/store"
	"github.com/JMS2088/gablok/pkg/export"
	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/perimeter"
	"github.com/JMS2088/gablok/pkg/plan"
	"github.com/JMS2088/gablok/pkg/validation"
)

type rebuildOptions struct {
	thickness float64
	dryRun    bool
	persist   bool
}

type purgeOptions struct {
	level  int
	box    []float64
	dedupe bool
	dryRun bool
}

type exportOptions struct {
	level    int
	levelSet bool
	openings bool
	rebuild  bool
	split    bool
	out      string
}

type serveOptions struct {
	project string
	port    string
	portSet bool
	db      string
	dbSet   bool
}

// loadScene loads the config and the project scene.
func loadScene(configPath, projectPath string) (*config.Config, *plan.Scene, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	s, err := plan.LoadProject(projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading scene: %w", err)
	}
	return cfg, s, nil
}

func newEngine(cfg *config.Config, s *plan.Scene, hooks perimeter.Hooks) *perimeter.Engine {
	return perimeter.New(s,
		perimeter.WithConfig(cfg.Perimeter),
		perimeter.WithHooks(hooks),
		perimeter.WithLogger(log.New(os.Stderr, "gablok: ", log.LstdFlags)))
}

func saveScene(projectPath string, s *plan.Scene) error {
	path := filepath.Join(projectPath, plan.SceneFile)
	if err := plan.Save(path, s); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d walls)\n", path, len(s.Strips))
	return nil
}

func runRebuild(configPath, projectPath string, opts rebuildOptions) error {
	cfg, s, err := loadScene(configPath, projectPath)
	if err != nil {
		return err
	}

	e := newEngine(cfg, s, perimeter.Hooks{})
	res := e.RebuildPerimeter(opts.thickness)
	printRebuildResult(res)
	if !res.Report.Empty() {
		fmt.Println()
		printValidationReport(res.Report)
	}

	if opts.persist {
		ctx := context.Background()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveStrips(ctx, e.Strips()); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		fmt.Printf("Saved snapshot to %s\n", cfg.DBPath)
	}

	if opts.dryRun {
		return nil
	}
	return saveScene(projectPath, e.Scene())
}

func runCheck(configPath, projectPath string, rebuild bool) error {
	cfg, s, err := loadScene(configPath, projectPath)
	if err != nil {
		return err
	}

	input := validation.ValidateScene(s)
	if rebuild {
		e := newEngine(cfg, s, perimeter.Hooks{})
		e.RebuildPerimeter(0)
		s = e.Scene()
	}
	walls := perimeter.Validate(s, cfg.Perimeter.WeldTolerance)

	for _, level := range perimeter.Levels(s) {
		printConsistency(perimeter.CheckConsistency(s, level, cfg.Perimeter.WeldTolerance))
	}
	fmt.Println()

	fmt.Println("Input")
	fmt.Println("=====")
	printValidationReport(input)
	fmt.Println()
	fmt.Println("Walls")
	fmt.Println("=====")
	printValidationReport(walls)

	if !input.Valid || !walls.Valid {
		return errors.New("scene has validation errors")
	}
	return nil
}

func runPurge(configPath, projectPath string, opts purgeOptions) error {
	if len(opts.box) != 4 {
		return fmt.Errorf("--box needs 4 values, got %d", len(opts.box))
	}
	cfg, s, err := loadScene(configPath, projectPath)
	if err != nil {
		return err
	}

	e := newEngine(cfg, s, perimeter.Hooks{})
	b := geo.NewBounds(opts.box[0], opts.box[1], opts.box[2], opts.box[3])
	removed := e.PurgeBox(opts.level, b)
	fmt.Printf("Removed %d wall(s) touching [%.3f, %.3f]-[%.3f, %.3f] on level %d\n",
		removed, b.MinX(), b.MinZ(), b.MaxX(), b.MaxZ(), opts.level)
	if opts.dedupe {
		fmt.Printf("Removed %d duplicate wall(s)\n", e.Dedupe())
	}

	if opts.dryRun {
		return nil
	}
	return saveScene(projectPath, e.Scene())
}

func runExport(configPath, projectPath string, opts exportOptions) error {
	cfg, s, err := loadScene(configPath, projectPath)
	if err != nil {
		return err
	}

	strips := s.Strips
	if opts.rebuild {
		e := newEngine(cfg, s, perimeter.Hooks{})
		e.RebuildPerimeter(0)
		strips = e.Strips()
	}

	if opts.split {
		return writeLevels(strips, opts)
	}

	eo := export.Options{Openings: opts.openings}
	if opts.levelSet {
		eo.Levels = []int{opts.level}
	}
	fc := export.Strips(strips, eo)

	var w io.Writer = os.Stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, fc); err != nil {
		return err
	}
	if opts.out != "" {
		fmt.Printf("Wrote %d feature(s) to %s\n", len(fc.Features), opts.out)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	st.SetKeep(cfg.SnapshotKeep)
	return st, nil
}

// writeLevels writes one level-<n>.geojson file per level into opts.out.
func writeLevels(strips []plan.WallStrip, opts exportOptions) error {
	if opts.out == "" {
		return errors.New("--split needs --out to name a directory")
	}
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for level, fc := range export.ByLevel(strips, opts.openings) {
		if opts.levelSet && level != opts.level {
			continue
		}
		path := filepath.Join(opts.out, fmt.Sprintf("level-%d.geojson", level))
		if err := writeCollection(path, fc); err != nil {
			return err
		}
		fmt.Printf("Wrote %d feature(s) to %s\n", len(fc.Features), path)
	}
	return nil
}

func writeCollection(path string, fc *geojson.FeatureCollection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := export.Write(f, fc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runServe(ctx context.Context, configPath string, opts serveOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.portSet {
		cfg.Port = opts.port
	}
	if opts.dbSet {
		cfg.DBPath = opts.db
	}
	project := opts.project
	if project == "" {
		project = cfg.ProjectDir
	}

	logger := log.New(os.Stderr, "gablok: ", log.LstdFlags)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := plan.LoadProject(project)
	switch {
	case err == nil:
		logger.Printf("Project: %s", project)
	case errors.Is(err, os.ErrNotExist):
		s = &plan.Scene{}
		logger.Printf("No %s in %s, starting empty", plan.SceneFile, project)
	default:
		return fmt.Errorf("loading scene: %w", err)
	}

	if len(s.Strips) == 0 {
		saved, err := st.LoadStrips(ctx)
		switch {
		case err == nil:
			s.Strips = saved
			logger.Printf("Restored %d wall(s) from %s", len(saved), cfg.DBPath)
		case !errors.Is(err, store.ErrNoSnapshot):
			return fmt.Errorf("restoring snapshot: %w", err)
		}
	}

	hub := server.NewHub()
	engine := perimeter.New(s,
		perimeter.WithConfig(cfg.Perimeter),
		perimeter.WithLogger(logger),
		perimeter.WithHooks(perimeter.Hooks{
			Persist: st.SaveStrips,
			Render:  hub.Render,
			Diagnostics: func(d perimeter.Diagnostic) {
				logger.Printf("%s: removed=%d added=%d moved=%d before=%d after=%d",
					d.Kind, d.Removed, d.Added, d.Moved, d.Before, d.After)
			},
		}))

	srv := server.New(engine, hub, logger, server.WithHistory(st))
	return srv.Start(ctx, cfg.Addr(),
		time.Duration(cfg.ReadTimeout)*time.Second,
		time.Duration(cfg.WriteTimeout)*time.Second)
}
