package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/paaster/internal/server/repositories/objects"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Objects(db *sql.DB) objects.Repository
}
