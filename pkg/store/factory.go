package store

import (
	"github.com/tgshare/sharebot/internal/config"
	"github.com/tgshare/sharebot/internal/database"
	"github.com/tgshare/sharebot/internal/logging"
)

// New picks the store backend from config: postgres when a data source is
// configured, otherwise the in-memory store. The memory store loses state on
// restart and is meant for evaluation runs only.
func New(cfg *config.DBConfig) (Store, error) {
	if cfg.DataSource == "" {
		logging.DefaultLogger().Warn("no db data source configured, using in-memory store")
		return NewMemoryStore(), nil
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateDB(db); err != nil {
		return nil, err
	}
	return NewSQLStore(db), nil
}
