// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Create a config file from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the config file",
						Value: "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// libraryCommand handles track catalog operations
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Manage the track catalog",
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "Walk a directory and catalog the audio files in it",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.LibraryScan,
			},
			{
				Name:  "list",
				Usage: "List cataloged tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only tracks by this artist",
					},
					&cli.StringFlag{
						Name:  "genre",
						Usage: "Only tracks with this genre",
					},
					&cli.StringFlag{
						Name:  "missing",
						Usage: "Only tracks missing an analysis field (energy, mood, genre, key, loudness)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.LibraryList,
			},
			{
				Name:  "prune",
				Usage: "Drop catalog entries whose files no longer exist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "List what would be removed without removing",
					},
				},
				Action: r.LibraryPrune,
			},
			{
				Name:  "export",
				Usage: "Export the catalog as CSV, Markdown, or plain text",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (base name for csv, directory for markdown, file for text)",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only tracks by this artist",
					},
					&cli.StringFlag{
						Name:  "genre",
						Usage: "Only tracks with this genre",
					},
				},
				Action: r.LibraryExport,
			},
		},
	}
}

// analyzeCommand handles checkpointed batch analysis jobs
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Run batch analysis over the library",
		Commands: []*cli.Command{
			{
				Name:  "energy",
				Usage: "Rate tracks 1-10 by danceable intensity",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Directory or file to analyze (default: library root)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Items per checkpoint commit",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Recompute even when a cached value exists",
					},
					&cli.StringFlag{
						Name:  "resume",
						Usage: "Resume a previous task by id instead of starting fresh",
					},
				},
				Action: r.AnalyzeEnergy,
			},
			{
				Name:  "mood",
				Usage: "Tag tracks with mood labels",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Directory or file to analyze (default: library root)",
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Mood model (mtg-jamendo or heuristic)",
					},
					&cli.BoolFlag{
						Name:  "online",
						Usage: "Try tag services before the local model",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Items per checkpoint commit",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Recompute even when a cached value exists",
					},
					&cli.StringFlag{
						Name:  "resume",
						Usage: "Resume a previous task by id instead of starting fresh",
					},
				},
				Action: r.AnalyzeMood,
			},
			{
				Name:  "genre",
				Usage: "Assign canonical genres from tags and online lookups",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Directory or file to analyze (default: library root)",
					},
					&cli.BoolFlag{
						Name:  "online",
						Usage: "Resolve genres through Last.fm/MusicBrainz/Spotify",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Items per checkpoint commit",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Recompute even when a cached value exists",
					},
					&cli.StringFlag{
						Name:  "resume",
						Usage: "Resume a previous task by id instead of starting fresh",
					},
				},
				Action: r.AnalyzeGenre,
			},
			{
				Name:  "mik",
				Usage: "Import Mixed In Key energy and key tags",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Directory or file to analyze (default: library root)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Items per checkpoint commit",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Recompute even when a cached value exists",
					},
					&cli.StringFlag{
						Name:  "resume",
						Usage: "Resume a previous task by id instead of starting fresh",
					},
				},
				Action: r.AnalyzeMIK,
			},
		},
	}
}

// measureCommand measures integrated loudness without touching audio data
func measureCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "measure",
		Usage: "Measure integrated loudness (LUFS) for library tracks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Directory or file to measure (default: library root)",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Items per checkpoint commit",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Remeasure even when a cached value exists",
			},
			&cli.StringFlag{
				Name:  "resume",
				Usage: "Resume a previous task by id instead of starting fresh",
			},
		},
		Action: r.Measure,
	}
}

// normalizeCommand rewrites audio files toward a target loudness
func normalizeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Rewrite audio files to a target loudness (destructive)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Directory or file to normalize (default: library root)",
			},
			&cli.FloatFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Target integrated loudness in LUFS (default: -14)",
			},
			&cli.BoolFlag{
				Name:  "backup",
				Usage: "Keep a .bak copy next to each rewritten file",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Items per checkpoint commit",
			},
			&cli.StringFlag{
				Name:  "resume",
				Usage: "Resume a previous task by id instead of starting fresh",
			},
		},
		Action: r.Normalize,
	}
}

// tasksCommand handles checkpoint inspection and task lifecycle operations
func tasksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tasks",
		Aliases: []string{"task"},
		Usage:   "Inspect and manage checkpointed tasks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List task checkpoints, most recent first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "resumable",
						Usage: "Only tasks that can be resumed",
					},
					&cli.BoolFlag{
						Name:  "incomplete",
						Usage: "Only tasks that have not reached a final status",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TasksList,
			},
			{
				Name:  "show",
				Usage: "Show one task checkpoint in detail",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TasksShow,
			},
			{
				Name:  "resume",
				Usage: "Resume a paused or interrupted task",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.TasksResume,
			},
			{
				Name:  "cancel",
				Usage: "Cancel a task, keeping its checkpoint",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.TasksCancel,
			},
			{
				Name:  "cleanup",
				Usage: "Delete finished checkpoints older than a cutoff",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"d"},
						Usage:   "Delete terminal checkpoints older than this many days",
						Value:   30,
					},
				},
				Action: r.TasksCleanup,
			},
			{
				Name:  "ui",
				Usage: "Interactive task monitor",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.TasksUI,
			},
		},
	}
}

// cacheCommand handles analysis cache maintenance
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and prune the analysis cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache entry counts and storage size",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:  "clear",
				Usage: "Delete every cache entry",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.CacheClear,
			},
			{
				Name:  "invalidate",
				Usage: "Invalidate cache entries by path, kind, or both",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Invalidate entries for this file",
					},
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "Invalidate entries of this kind (a trailing colon matches a kind family)",
					},
				},
				Action: r.CacheInvalidate,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive task management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive task monitor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.TasksUI,
	}
}
