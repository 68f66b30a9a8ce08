package testsupport

import (
	"path/filepath"
	"testing"

	"pairkeep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ExportDir = filepath.Join(base, "export")
	cfg.Workspace.ID = "ws-test"
	cfg.Workspace.Member = "tester"
	cfg.Backend.APIToken = "test-token"
	cfg.LLM.APIKey = "test-key"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithWorkspace overrides the workspace id on the test config.
func WithWorkspace(id string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workspace.ID = id
	}
}

// WithNtfyTopic enables ntfy notifications against the supplied topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
		cfg.Notifications.Organization = true
		cfg.Notifications.Errors = true
	}
}
