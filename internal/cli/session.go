package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/settee/pkg/backend"
	"github.com/mesh-intelligence/settee/pkg/model"
	"github.com/mesh-intelligence/settee/pkg/types"
)

// session is an attached backend and the database mapped over it.
type session struct {
	backend types.Backend
	db      *model.Database
}

// openSession loads config.yaml, attaches the configured backend and builds
// the database. The caller must call close.
func openSession(cmd *cobra.Command) (*session, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return nil, sysError(err)
	}
	reg, err := buildRegistry(s)
	if err != nil {
		return nil, userError(fmt.Errorf("config: %w", err))
	}
	cfg := s.Config
	if cfg.Backend == types.BackendSQLite {
		cfg.DataDir, err = resolveDataDir(s.DataDir)
		if err != nil {
			return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
		}
	}
	b, err := backend.Open(cfg)
	if err != nil {
		return nil, sysError(err)
	}
	db := model.NewDatabase(b,
		model.WithRegistry(reg),
		model.WithLogger(newLogger(cmd.ErrOrStderr())),
	)
	return &session{backend: b, db: db}, nil
}

func (s *session) close() {
	_ = s.backend.Detach()
}
