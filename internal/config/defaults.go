package config

const (
	defaultStateDir           = "~/.local/share/pairkeep"
	defaultLogDir             = "~/.local/share/pairkeep/logs"
	defaultExportDir          = "~/pairkeep/export"
	defaultBackendBaseURL     = "https://api.pairkeep.app/v1"
	defaultBackendTimeout     = 15
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMReferer         = "https://github.com/pairkeep/pairkeep"
	defaultLLMTitle           = "Pairkeep Organizer"
	defaultLLMTimeoutSeconds  = 60
	defaultNotifyTimeout      = 10
	defaultRunPollInterval    = 5
	defaultErrorRetryInterval = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultMetricsBind        = "127.0.0.1:9187"
	defaultCalendarName       = "Pairkeep"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		Backend: Backend{
			BaseURL:        defaultBackendBaseURL,
			TimeoutSeconds: defaultBackendTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Organization:   true,
			Errors:         true,
		},
		Workflow: Workflow{
			RunPollInterval:    defaultRunPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Metrics: Metrics{
			Bind: defaultMetricsBind,
		},
		Calendar: Calendar{
			Name: defaultCalendarName,
		},
	}
}
