package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/combitify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the template when missing, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		if err := config.ApplyEnv(""); err != nil {
			return err
		}
		r.config = config
		r.writePlain("✓ Config file created at %s\n", configPath)
	} else {
		r.writePlain("✓ Using config file %s\n", configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if err := r.ensureServices(); err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)

	if !r.config.HasSpotifyClient() {
		r.writePlainln("Next steps:")
		r.writePlain("1. Create an app at https://developer.spotify.com/dashboard with redirect URI %s\n", r.config.Credentials.Spotify.RedirectURI)
		r.writePlain("2. Set credentials.spotify.client_id in %s (or SPOTIFY_CLIENT_ID)\n", configPath)
		r.writePlain("3. Run 'combitify auth login'\n")
		return nil
	}

	r.writePlainln("Next: run 'combitify auth login'")
	return nil
}
