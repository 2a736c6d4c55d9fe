package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/config"
	"github.com/stocklab/stocklab/internal/database"
)

// InitializeDatabases opens both databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// stocklab.db - persistent domain data
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "stocklab",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stocklab database: %w", err)
	}
	container.DB = db

	// cache.db - provider responses, safe to delete
	cacheDB, err := database.New(database.Config{
		Path:    cfg.CachePath(),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	for _, d := range container.Databases() {
		if err := d.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", d.Name(), err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("Databases initialized and schemas applied")
	return container, nil
}
