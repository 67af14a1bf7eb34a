package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/config"
	"github.com/aristath/covenantmonitor/internal/database"
)

// InitializeDatabases opens compliance.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// compliance.db - covenant definitions, submissions and draw requests
	complianceDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "compliance.db"),
		Profile: database.ProfileLedger,
		Name:    "compliance",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize compliance database: %w", err)
	}

	if err := complianceDB.Migrate(); err != nil {
		complianceDB.Close()
		return nil, fmt.Errorf("failed to migrate compliance database: %w", err)
	}
	container.ComplianceDB = complianceDB

	log.Info().Str("path", complianceDB.Path()).Msg("Database initialized")
	return container, nil
}
