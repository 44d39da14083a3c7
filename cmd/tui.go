package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/shared"
	"github.com/desertthunder/combitify/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for picking and combining playlists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())

	engine, err := r.newEngine("", false, fileLogger)
	if err != nil {
		return err
	}

	session, err := engine.Session(ctx)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, engine, ui.Options{
		Theme:       models.ParseTheme(r.config.UI.Theme),
		DisplayName: session.DisplayName,
		SaveTheme:   r.saveTheme,
		OpenURL:     r.openURL,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if result := model.Result(); result != nil && result.URL() != "" {
		r.writePlain("Combined playlist: %s\n", result.URL())
	}

	return nil
}

// saveTheme writes the theme to the config file.
func (r *Runner) saveTheme(theme models.Theme) error {
	r.config.UI.Theme = string(theme)

	if r.configPath == "" {
		return nil
	}
	return shared.SaveConfig(r.configPath, r.config)
}
