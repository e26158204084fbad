// agentlens watches live agent session event streams, relays them over
// SSE backed by PostgreSQL NOTIFY, and replays recorded sessions.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agentlens/agentlens/pkg/config"
	"github.com/agentlens/agentlens/pkg/logging"
	"github.com/agentlens/agentlens/pkg/version"
)

var (
	configPath string
	envFile    string
)

func main() {
	root := &cobra.Command{
		Use:          "agentlens",
		Short:        "Live dashboard and relay for agent session event streams",
		Version:      version.Full(),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "path to .env file")

	root.AddCommand(newWatchCmd())
	root.AddCommand(newRelayCmd())
	root.AddCommand(newReplayCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the environment file and configuration shared by all
// subcommands. logOutput overrides where logs go; the watch command
// points it at a file so log lines do not corrupt the terminal UI.
func setup(logOutput *os.File) (config.Config, func(), error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			slog.Warn("Could not load .env file, continuing with existing environment",
				"path", envFile, "error", err)
		}
	} else {
		// Best-effort default; absence is normal.
		_ = godotenv.Load()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	logCfg := logging.Config{
		Level:     logging.ParseLevel(cfg.LogLevel),
		SentryDSN: cfg.SentryDSN,
		Env:       cfg.Env,
		Version:   version.Full(),
	}
	if logOutput != nil {
		logCfg.Output = logOutput
	}
	shutdown, err := logging.Init(logCfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, shutdown, nil
}
