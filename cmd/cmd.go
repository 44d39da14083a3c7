// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// setupCommand handles first-run setup of the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the database",
		Action: r.Setup,
	}
}

// authCommand handles the Spotify session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Spotify in the browser and store the session",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser redirect",
						Value: 2 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening it",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the stored session and its expiry",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored session",
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand lists the user's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"ls"},
		Usage:   "List your Spotify playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "Load every playlist instead of the first page",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to show (loads more pages as needed)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv or markdown",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the listing to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
		},
		Action: r.Playlists,
	}
}

// combineCommand runs an aggregation
func combineCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "combine",
		Usage: "Combine playlists into a new deduplicated playlist",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "Playlist ID to include (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "Include every playlist",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Name of the new playlist (default from config)",
			},
			&cli.BoolFlag{
				Name:  "public",
				Usage: "Make the new playlist public",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the new playlist in the browser",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run result as JSON",
			},
		},
		Action: r.Combine,
	}
}

// runsCommand shows recorded run history
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Show combine run history",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "state",
				Usage: "Only show runs in this state (done, failed)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
		},
		Action: r.Runs,
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show a single run",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.RunShow,
			},
			{
				Name:  "delete",
				Usage: "Remove a run from the history",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.RunDelete,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist selection.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive playlist picker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/combitify-tui.log",
			},
		},
		Action: r.TUI,
	}
}
