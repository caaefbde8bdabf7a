package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "gablok",
		Short:        "Keeps floor-plan walls in sync with rooms and garages",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default gablok.yaml if present)")

	rootCmd.AddCommand(rebuildCmd(&configPath))
	rootCmd.AddCommand(checkCmd(&configPath))
	rootCmd.AddCommand(purgeCmd(&configPath))
	rootCmd.AddCommand(exportCmd(&configPath))
	rootCmd.AddCommand(serveCmd(&configPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func rebuildCmd(configPath *string) *cobra.Command {
	var opts rebuildOptions

	cmd := &cobra.Command{
		Use:   "rebuild [project-path]",
		Short: "Regenerate room and garage walls and write the scene back",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRebuild(*configPath, args[0], opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.thickness, "thickness", "t", 0, "wall thickness in meters (default from config)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the result without writing scene.yaml")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "also save a snapshot to the database")
	return cmd
}

func checkCmd(configPath *string) *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "check [project-path]",
		Short: "Validate a scene and compare its walls with the expected perimeter",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCheck(*configPath, args[0], rebuild)
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "check the result of a rebuild instead of the stored walls")
	return cmd
}

func purgeCmd(configPath *string) *cobra.Command {
	var opts purgeOptions

	cmd := &cobra.Command{
		Use:   "purge [project-path]",
		Short: "Remove every wall touching a box on one level",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runPurge(*configPath, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.level, "level", "l", 0, "floor level")
	cmd.Flags().Float64SliceVar(&opts.box, "box", nil, "box as min-x,min-z,max-x,max-z")
	cmd.Flags().BoolVar(&opts.dedupe, "dedupe", false, "also drop duplicate walls")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report without writing scene.yaml")
	_ = cmd.MarkFlagRequired("box")
	return cmd
}

func exportCmd(configPath *string) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export [project-path]",
		Short: "Write the walls as GeoJSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.levelSet = cmd.Flags().Changed("level")
			return runExport(*configPath, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.level, "level", "l", 0, "only this floor level")
	cmd.Flags().BoolVar(&opts.openings, "openings", false, "include doors and windows")
	cmd.Flags().BoolVar(&opts.rebuild, "rebuild", false, "rebuild before exporting")
	cmd.Flags().BoolVar(&opts.split, "split", false, "write one file per level into the --out directory")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file, or directory with --split (default stdout)")
	return cmd
}

func serveCmd(configPath *string) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Start the wall engine server for the editor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.project = args[0]
			}
			opts.portSet = cmd.Flags().Changed("port")
			opts.dbSet = cmd.Flags().Changed("db")
			return runServe(cmd.Context(), *configPath, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.port, "port", "p", "8080", "HTTP server port")
	cmd.Flags().StringVar(&opts.db, "db", "gablok.db", "SQLite snapshot database")
	return cmd
}
