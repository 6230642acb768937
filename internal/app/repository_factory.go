package app

import (
	"github.com/intervsched/scheduler/internal/scheduling/domain"
	"github.com/intervsched/scheduler/internal/scheduling/infrastructure/persistence"
	"github.com/intervsched/scheduler/internal/shared/infrastructure/database"
)

// RepositoryFactory selects the driver-specific repository implementation
// for an open database.Connection, the same switch-by-driver shape orbita
// uses for its own repositories.
type RepositoryFactory struct {
	conn database.Connection
}

// NewRepositoryFactory creates a new repository factory over conn.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// LoadRepository returns the load-counter repository for the factory's
// connection driver (SPEC_FULL §4.7).
func (f *RepositoryFactory) LoadRepository() domain.LoadRepository {
	if f.conn.Driver() == database.DriverSQLite {
		return persistence.NewSQLiteLoadRepository(f.conn)
	}
	return persistence.NewPostgresLoadRepository(f.conn)
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.conn.Driver()
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
