package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/combitify/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		os.Exit(exitCode(logger, err))
	}
}

// newApp builds the root command with global flags and every subcommand.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "combitify",
		Usage:   "Combine Spotify playlists into one deduplicated playlist",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to a .env file with SPOTIFY_CLIENT_ID, SPOTIFY_REDIRECT_URI or COMBITIFY_DB_PATH",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}

// exitCode logs err with a hint for the errors users can fix themselves.
func exitCode(logger *log.Logger, err error) int {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired):
		logger.Error("not logged in or session expired, run `combitify auth login` first", "error", err)
	case errors.Is(err, shared.ErrMissingCredentials):
		logger.Error("spotify client id missing, set credentials.spotify.client_id in config.toml or SPOTIFY_CLIENT_ID", "error", err)
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted")
		return 130
	default:
		logger.Errorf("application error: %v", err)
	}
	return 1
}
