package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/STPREETHI/learning-portal/core"
	"github.com/STPREETHI/learning-portal/core/classroom"
	"github.com/STPREETHI/learning-portal/core/user"
	"github.com/STPREETHI/learning-portal/storage/database"
	boltrepos "github.com/STPREETHI/learning-portal/storage/database/bolt"
	inmemdb "github.com/STPREETHI/learning-portal/storage/database/inmem"
	mongorepos "github.com/STPREETHI/learning-portal/storage/database/mongo"
	sqlxrepos "github.com/STPREETHI/learning-portal/storage/database/sqlx"
)

// Storage engines
const (
	EngineMemory   = "memory"
	EnginePostgres = "postgres"
	EngineMongo    = "mongo"
	EngineBolt     = "bolt"
)

// Repositories bundles the repositories of the configured engine.
type Repositories struct {
	Users      user.Repository
	Classrooms classroom.Repository

	close func(ctx context.Context) error
}

func (r *Repositories) Close(ctx context.Context) error {
	if r.close == nil {
		return nil
	}
	return r.close(ctx)
}

// Open sets up the storage engine named by conf.Database.Engine.
// Postgres databases are created and migrated when needed.
func Open(ctx context.Context, conf *core.Config) (*Repositories, error) {
	switch conf.Database.Engine {
	case EngineMemory, "":
		db := inmemdb.Open()
		return &Repositories{
			Users:      inmemdb.NewUserRepository(db),
			Classrooms: inmemdb.NewClassroomRepository(db),
		}, nil

	case EnginePostgres:
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Repositories{
			Users:      sqlxrepos.NewUserRepository(db),
			Classrooms: sqlxrepos.NewClassroomRepository(db),
			close:      func(context.Context) error { return db.Close() },
		}, nil

	case EngineMongo:
		db, err := mongorepos.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Users:      mongorepos.NewUserRepository(db),
			Classrooms: mongorepos.NewClassroomRepository(db),
			close:      func(ctx context.Context) error { return mongorepos.Close(ctx, db) },
		}, nil

	case EngineBolt:
		path := conf.Database.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(conf.WorkDir, path)
		}
		db, err := boltrepos.Open(path)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Users:      boltrepos.NewUserRepository(db),
			Classrooms: boltrepos.NewClassroomRepository(db),
			close:      func(context.Context) error { return db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown storage engine %q", conf.Database.Engine)
}
