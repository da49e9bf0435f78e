package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/settee/pkg/backend"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize settee configuration and storage",
		Long:  "Create the configuration directory and a default config.yaml, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := resolveConfigDir()
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}

	s, err := loadSettings(configDir)
	if err != nil {
		return sysError(err)
	}
	dataDir, err := resolveDataDir(s.DataDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	if err := writeConfigIfMissing(configDir, dataDir); err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	// Attach then Detach to create the data directory and its files.
	cfg := s.Config
	cfg.DataDir = dataDir
	b, err := backend.Open(cfg)
	if err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := b.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "settee initialized (config %s, %s backend)\n", configDir, cfg.Backend)
	return nil
}
