// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// newApp builds the root command. Without a subcommand it runs an upload.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "ibup",
		Usage:     "Upload a local music collection to iBroadcast",
		Version:   "0.1.0",
		ArgsUsage: "<login-token>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "login-token"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Print raw server responses and failure details",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.StringSliceFlag{
				Name:    "directory",
				Aliases: []string{"d"},
				Usage:   "Directory in which to search for music files. Repeat to search in multiple directories (default: current directory)",
			},
			&cli.StringSliceFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "Apply this tag to every uploaded file, creating it if needed. Repeat for multiple tags",
			},
			&cli.StringSliceFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Add every uploaded file to this playlist, creating it if needed. Repeat for multiple playlists",
			},
			&cli.BoolFlag{
				Name:  "no-parallel",
				Usage: "Disable parallel uploads",
			},
			&cli.BoolFlag{
				Name:  "no-skip-duplicates",
				Usage: "Upload a file even when the service already has its content",
			},
			&cli.BoolFlag{
				Name:  "skip-hidden",
				Usage: "Ignore files and directories whose name starts with a dot",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Upload without asking for confirmation",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Confirm with an interactive file list",
			},
			&cli.BoolFlag{
				Name:  "color",
				Usage: "Color the section headings of the summary",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a run report to this path",
			},
			&cli.StringFlag{
				Name:  "report-format",
				Usage: "Report format: json, csv, markdown, txt or sqlite",
			},
		},
		Before:   r.before,
		Action:   r.Upload,
		Commands: r.register(),
	}
}

// setupCommand writes a default configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write a default config.toml",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Where to write the configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// tokenCommand opens the page where login tokens are issued.
func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "token",
		Usage:  "Open the apps page in a browser to get a login token",
		Action: r.Token,
	}
}

// filetypesCommand lists the extensions the account accepts.
func filetypesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "filetypes",
		Usage:     "List the supported file extensions",
		ArgsUsage: "<login-token>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "login-token"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Filetypes,
	}
}

// libraryCommand lists remote tags and playlists.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "library",
		Aliases:   []string{"lib"},
		Usage:     "List the tags and playlists in the remote library",
		ArgsUsage: "<login-token>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "login-token"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Library,
	}
}

// historyCommand reads runs back from a SQLite report.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List the runs recorded in a SQLite report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to the report database (default: report.path from the config)",
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Print a single run",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Format for --run: json, csv, markdown or txt",
				Value: "txt",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run list as JSON",
			},
		},
		Action: r.History,
	}
}
