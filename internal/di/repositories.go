package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/config"
	"github.com/aristath/covenantmonitor/internal/modules/covenants"
	"github.com/aristath/covenantmonitor/internal/modules/draws"
	"github.com/aristath/covenantmonitor/internal/modules/submissions"
)

// InitializeRepositories creates all repositories on the container's databases
func InitializeRepositories(container *Container, cfg *config.Config, log zerolog.Logger) error {
	conn := container.ComplianceDB.Conn()

	covenantRepo, err := covenants.NewRepository(conn, cfg.CovenantCacheSize, log)
	if err != nil {
		return fmt.Errorf("failed to create covenant repository: %w", err)
	}
	container.CovenantRepo = covenantRepo
	container.SubmissionRepo = submissions.NewRepository(conn, log)
	container.DrawRepo = draws.NewRepository(conn, log)

	return nil
}
