package repomanager

import (
	"context"
	"database/sql"

	"github.com/skydexapp/skydex/internal/dbx"
	"github.com/skydexapp/skydex/internal/server/repositories/cards"
	"github.com/skydexapp/skydex/internal/server/repositories/imagehashes"
	"github.com/skydexapp/skydex/internal/server/repositories/litrecords"
	"github.com/skydexapp/skydex/internal/server/repositories/states"
	"github.com/skydexapp/skydex/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	States(db dbx.DBTX) states.Repository
	Cards(db dbx.DBTX) cards.Repository
	LitRecords(db dbx.DBTX) litrecords.Repository
	ImageHashes(db dbx.DBTX) imagehashes.Repository
}
