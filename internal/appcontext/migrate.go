package appcontext

import (
	"errors"
	"log"

	"github.com/RoyceAzure/lab/bikemarket/internal/config"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/bikemarket/migrations"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func newMigrate(cf *config.Config) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", src, db.PostgresURL(cf.DbName, cf.DbHost, cf.DbPort, cf.DbUser, cf.DbPas))
}

// RunDBMigration up 或 down 全部版本, 已是最新時不算錯誤
func RunDBMigration(cf *config.Config, down bool) error {
	log.Printf("Start db migration")
	m, err := newMigrate(cf)
	if err != nil {
		return err
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	log.Printf("Finish db migration")
	return nil
}
