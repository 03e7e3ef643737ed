package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		input   string
		want    core.Stage
		wantErr bool
	}{
		{"extraction", core.StageExtraction, false},
		{"summarization", core.StageSummarization, false},
		{"embedding", core.StageEmbedding, false},
		{"notify", core.StageNotify, false},
		{"Extraction", core.StageExtraction, false},
		{"EMBEDDING", core.StageEmbedding, false},
		{"bogus", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseStage(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid stage")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmitCommandValidation(t *testing.T) {
	app := &cli.App{
		Name: "nexus",
		Commands: []*cli.Command{
			{
				Name:   "submit",
				Action: submitCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Required: true,
					},
				},
			},
		},
	}

	t.Run("missing db flag fails", func(t *testing.T) {
		err := app.Run([]string{"nexus", "submit", "12345"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("no item IDs fails", func(t *testing.T) {
		err := app.Run([]string{"nexus", "submit", "--db", t.TempDir()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "item ID")
	})

	t.Run("non-numeric item ID fails", func(t *testing.T) {
		err := app.Run([]string{"nexus", "submit", "--db", t.TempDir(), "not-a-number"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid item ID")
	})
}

func TestSubmitAndStatusAgainstDatabase(t *testing.T) {
	dbPath := t.TempDir()

	app := &cli.App{
		Name: "nexus",
		Commands: []*cli.Command{
			{
				Name:   "submit",
				Action: submitCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Aliases: []string{"d"}, Required: true},
				},
			},
			{
				Name:   "status",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Aliases: []string{"d"}, Required: true},
				},
			},
			{
				Name:   "clear-failed",
				Action: clearFailedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Aliases: []string{"d"}, Required: true},
					&cli.StringFlag{Name: "stage"},
				},
			},
		},
	}

	// Each command opens and closes its own copy of the database
	require.NoError(t, app.Run([]string{"nexus", "submit", "--db", dbPath, "42"}))
	require.NoError(t, app.Run([]string{"nexus", "status", "--db", dbPath}))
	require.NoError(t, app.Run([]string{"nexus", "clear-failed", "--db", dbPath}))

	err := app.Run([]string{"nexus", "clear-failed", "--db", dbPath, "--stage", "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid stage")
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		testCases := []string{
			"DEBUG",
			"Info",
			"WaRn",
			"ERROR",
		}

		for _, tc := range testCases {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				level := c.String("log-level")
				assert.Equal(t, "debug", level)
				return nil
			},
		}

		err := app.Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
