package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/medauth/internal/dbx"
	"github.com/dmitrijs2005/medauth/internal/server/repositories/profiles"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Profiles(db dbx.DBTX) profiles.Repository
}
