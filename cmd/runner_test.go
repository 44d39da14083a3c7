package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/repositories"
	"github.com/desertthunder/combitify/internal/shared"
	tu "github.com/desertthunder/combitify/internal/testing"
)

// cliEnv runs commands against an in-memory database and a mock provider.
type cliEnv struct {
	runner     *Runner
	provider   *tu.MockProvider
	db         *sql.DB
	output     *bytes.Buffer
	opened     []string
	configPath string
	envPath    string
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newCLIEnv(t *testing.T, provider *tu.MockProvider) *cliEnv {
	t.Helper()

	dir := t.TempDir()
	env := &cliEnv{
		provider:   provider,
		db:         setupTestDB(t),
		output:     &bytes.Buffer{},
		configPath: filepath.Join(dir, "config.toml"),
		envPath:    filepath.Join(dir, "missing.env"),
	}
	env.runner = NewRunner(RunnerOpts{
		Provider: provider,
		DB:       env.db,
		Logger:   shared.NopLogger(),
		Output:   env.output,
		OpenURL: func(url string) error {
			env.opened = append(env.opened, url)
			return nil
		},
	})
	return env
}

func (e *cliEnv) run(args ...string) error {
	full := append([]string{"combitify", "--config", e.configPath, "--env", e.envPath}, args...)
	return newApp(e.runner).Run(context.Background(), full)
}

// login stores a session that is valid for an hour.
func (e *cliEnv) login(t *testing.T, displayName string) {
	t.Helper()

	session := &models.Session{
		AccessToken: "BQD-test",
		ExpiresAt:   time.Now().Add(time.Hour),
		UserID:      "user-1",
		DisplayName: displayName,
	}
	if err := repositories.NewSessionRepository(e.db).Save(context.Background(), session); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}
}

func (e *cliEnv) runRepository() *repositories.RunRepository {
	return repositories.NewRunRepository(e.db)
}

// mockProvider serves n playlists of two tracks each; every playlist shares its second track.
func mockProvider(n int) *tu.MockProvider {
	common := models.TrackIdentifier("spotify:track:" + strings.Repeat("s", 22))
	provider := &tu.MockProvider{
		User:   &models.User{ID: "user-1", DisplayName: "Ada"},
		Tracks: map[string][]models.TrackIdentifier{},
	}
	for i := range n {
		id := fmt.Sprintf("pl%d", i)
		provider.Playlists = append(provider.Playlists, models.PlaylistSummary{
			ID:         id,
			Name:       fmt.Sprintf("Mix %d", i),
			URL:        "https://open.spotify.com/playlist/" + id,
			TrackCount: 2,
		})
		provider.Tracks[id] = []models.TrackIdentifier{
			models.TrackIdentifier(fmt.Sprintf("spotify:track:%022d", i)),
			common,
		}
	}
	return provider
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			provider := &tu.MockProvider{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "custom.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Provider:   provider,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Errorf("expected configPath custom.toml, got %q", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.provider != provider {
				t.Error("expected provider to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.openURL == nil {
				t.Error("expected default browser opener")
			}
			if runner.httpClient != nil {
				t.Error("expected httpClient to stay nil until services are built")
			}
		})
	})

	t.Run("ensureServices", func(t *testing.T) {
		t.Run("builds repositories on an injected database", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{DB: setupTestDB(t), Provider: &tu.MockProvider{}})

			if err := runner.ensureServices(); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.sessions == nil || runner.runs == nil {
				t.Error("expected repositories to be created")
			}
			if runner.ownsDB {
				t.Error("expected injected database not to be owned")
			}
			if err := runner.Close(); err != nil {
				t.Errorf("expected no error closing, got %v", err)
			}
			if runner.db == nil {
				t.Error("expected injected database to stay open")
			}
		})

		t.Run("opens the configured database and spotify provider", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Database.Path = filepath.Join(t.TempDir(), "combitify.db")
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NopLogger()})

			if err := runner.ensureServices(); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.provider == nil || runner.provider.Name() != "Spotify" {
				t.Errorf("expected spotify provider, got %v", runner.provider)
			}
			if !runner.ownsDB {
				t.Error("expected runner to own the database")
			}
			if err := runner.Close(); err != nil {
				t.Errorf("expected no error closing, got %v", err)
			}
			if runner.db != nil {
				t.Error("expected database to be released")
			}
			tu.AssertFileExists(t, config.Database.Path)
		})
	})

	t.Run("newEngine", func(t *testing.T) {
		env := newCLIEnv(t, mockProvider(2))
		env.login(t, "Ada")

		engine, err := env.runner.newEngine("Override", true, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		catalog := models.NewPlaylistCatalog()
		if err := engine.LoadAllPlaylists(context.Background(), catalog); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}
		catalog.SelectAll()

		if _, err := engine.Run(context.Background(), catalog.Selected(), nil); err != nil {
			t.Fatalf("expected run to succeed, got %v", err)
		}
		if call := env.provider.CreateCalls[0]; call.Name != "Override" || !call.Public {
			t.Errorf("expected public playlist named Override, got %+v", call)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln surrounds the line with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("done %d", 3); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "\ndone 3\n" {
				t.Errorf("expected %q, got %q", "\ndone 3\n", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			for name, err := range map[string]error{
				"writePlain":   runner.writePlain("test"),
				"writePlainln": runner.writePlainln("test"),
				"writeRaw":     runner.writeRaw([]byte("test")),
			} {
				if err == nil || !strings.Contains(err.Error(), "failed to write output") {
					t.Errorf("%s: expected write error, got %v", name, err)
				}
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, name := range []string{"setup", "auth", "playlists", "combine", "runs", "tui"} {
			if !names[name] {
				t.Errorf("expected %s command to be registered", name)
			}
		}
	})

	t.Run("before", func(t *testing.T) {
		t.Run("loads config file and applies environment", func(t *testing.T) {
			env := newCLIEnv(t, mockProvider(0))
			content := "[aggregation]\nplaylist_name = \"From File\"\npage_size = 10\nchunk_size = 50\n\n[ui]\ntheme = \"light\"\n"
			if err := os.WriteFile(env.configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			t.Setenv(shared.EnvSpotifyClientID, "env-client")

			if err := env.run("runs"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			config := env.runner.config
			if config.Aggregation.PlaylistName != "From File" || config.Aggregation.PageSize != 10 {
				t.Errorf("expected file values, got %+v", config.Aggregation)
			}
			if config.Credentials.Spotify.ClientID != "env-client" {
				t.Errorf("expected client id from environment, got %q", config.Credentials.Spotify.ClientID)
			}
			if config.UI.Theme != "light" {
				t.Errorf("expected light theme, got %q", config.UI.Theme)
			}
			if env.runner.configPath != env.configPath {
				t.Errorf("expected configPath %q, got %q", env.configPath, env.runner.configPath)
			}
		})

		t.Run("reads the env file", func(t *testing.T) {
			env := newCLIEnv(t, mockProvider(0))
			if err := os.WriteFile(env.envPath, []byte("COMBITIFY_TEST_MARKER=from-file\n"), 0644); err != nil {
				t.Fatalf("failed to write env file: %v", err)
			}
			t.Cleanup(func() { os.Unsetenv("COMBITIFY_TEST_MARKER") })

			if err := env.run("runs"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := os.Getenv("COMBITIFY_TEST_MARKER"); got != "from-file" {
				t.Errorf("expected env file to be loaded, got %q", got)
			}
		})

		t.Run("rejects invalid config", func(t *testing.T) {
			env := newCLIEnv(t, mockProvider(0))
			if err := os.WriteFile(env.configPath, []byte("[aggregation]\npage_size = 0\n"), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			err := env.run("runs")
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("verbose enables debug logging", func(t *testing.T) {
			env := newCLIEnv(t, mockProvider(0))

			if err := env.run("--verbose", "runs"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if env.runner.logger.GetLevel() != log.DebugLevel {
				t.Errorf("expected debug level, got %v", env.runner.logger.GetLevel())
			}
		})
	})

	t.Run("saveTheme", func(t *testing.T) {
		t.Run("writes theme to config file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			runner := NewRunner(RunnerOpts{ConfigPath: path})

			if err := runner.saveTheme(models.ThemeLight); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			config, err := shared.LoadConfig(path)
			if err != nil {
				t.Fatalf("failed to load saved config: %v", err)
			}
			if config.UI.Theme != "light" {
				t.Errorf("expected light theme, got %q", config.UI.Theme)
			}
			if config.Aggregation.PlaylistName != runner.config.Aggregation.PlaylistName {
				t.Error("expected the rest of the config to be preserved")
			}
		})

		t.Run("without config path only updates memory", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if err := runner.saveTheme(models.ThemeLight); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config.UI.Theme != "light" {
				t.Errorf("expected light theme, got %q", runner.config.UI.Theme)
			}
		})

		t.Run("handles SaveConfig failure", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing", "config.toml")
			runner := NewRunner(RunnerOpts{ConfigPath: path})

			if err := runner.saveTheme(models.ThemeDark); err == nil {
				t.Error("expected error writing to a missing directory")
			}
		})
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not authenticated", err: fmt.Errorf("%w: session expired", shared.ErrNotAuthenticated), want: 1},
		{name: "missing credentials", err: shared.ErrMissingCredentials, want: 1},
		{name: "interrupted", err: fmt.Errorf("run: %w", context.Canceled), want: 130},
		{name: "other", err: errors.New("boom"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(shared.NopLogger(), tt.err); got != tt.want {
				t.Errorf("expected exit code %d, got %d", tt.want, got)
			}
		})
	}
}
