package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vinocave/internal/dbx"
	"github.com/dmitrijs2005/vinocave/internal/server/repositories/documents"
	"github.com/dmitrijs2005/vinocave/internal/server/repositories/owners"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Owners(db dbx.DBTX) owners.Repository
	Documents(db dbx.DBTX) documents.Repository
}
