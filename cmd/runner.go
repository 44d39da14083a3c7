package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/combitify/internal/repositories"
	"github.com/desertthunder/combitify/internal/services"
	"github.com/desertthunder/combitify/internal/shared"
	"github.com/desertthunder/combitify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// authorizer is implemented by providers that can build an implicit grant authorize URL.
type authorizer interface {
	AuthorizeURL(state string) (string, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, repositories and provider are created on first use so that commands like
// setup work before anything is configured.
type Runner struct {
	config     *shared.Config
	configPath string
	provider   services.Provider
	db         *sql.DB
	ownsDB     bool
	sessions   *repositories.SessionRepository
	runs       *repositories.RunRepository
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	openURL    func(string) error
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Provider   services.Provider
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	OpenURL    func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		provider:   opts.Provider,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		openURL:    opts.OpenURL,
		now:        time.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, combineCommand, runsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration named by the global flags and applies the log level.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	configPath := cmd.String("config")
	config, err := shared.ResolveConfig(configPath)
	if err != nil {
		return ctx, err
	}
	if err := config.ApplyEnv(cmd.String("env")); err != nil {
		return ctx, err
	}
	if err := config.Validate(); err != nil {
		return ctx, err
	}

	r.config = config
	r.configPath = configPath
	r.logger.Debug("configuration loaded", "path", configPath, "database", config.Database.Path)
	return ctx, nil
}

// after releases the database opened by [Runner.ensureServices].
func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close closes the database when the runner opened it.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.sessions = nil
	r.runs = nil
	return err
}

// ensureServices opens the database and builds the repositories and provider on first use.
func (r *Runner) ensureServices() error {
	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
		r.ownsDB = true
	}

	if r.sessions == nil {
		r.sessions = repositories.NewSessionRepository(r.db)
	}
	if r.runs == nil {
		r.runs = repositories.NewRunRepository(r.db)
	}

	if r.provider == nil {
		client := r.httpClient
		if client == nil {
			client = &http.Client{Timeout: time.Duration(r.config.HTTP.RequestTimeoutSeconds) * time.Second}
		}

		spotify := r.config.Credentials.Spotify
		r.provider = services.NewSpotifyService(services.SpotifyOptions{
			ClientID:    spotify.ClientID,
			RedirectURI: spotify.RedirectURI,
			Scopes:      spotify.Scopes,
			HTTPClient:  client,
			Logger:      shared.WithLogger(r.logger, "service", "spotify"),
		})
	}

	return nil
}

// newEngine builds an [tasks.Engine] from the aggregation settings, with name and public overriding
// the configured destination when set.
func (r *Runner) newEngine(name string, public bool, logger *log.Logger) (*tasks.Engine, error) {
	if err := r.ensureServices(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = r.logger
	}

	agg := r.config.Aggregation
	if name == "" {
		name = agg.PlaylistName
	}

	return tasks.NewEngine(r.provider, r.sessions, tasks.EngineOptions{
		PlaylistName:    name,
		Public:          agg.Public || public,
		PageSize:        agg.PageSize,
		ChunkSize:       agg.ChunkSize,
		WritesPerSecond: agg.WritesPerSecond,
		Recorder:        r.runs,
		Logger:          shared.WithLogger(logger, "component", "engine"),
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeRaw(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
