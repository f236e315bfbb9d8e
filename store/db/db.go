package db

import (
	"github.com/pkg/errors"

	"github.com/lifetales/lifetales/internal/profile"
	"github.com/lifetales/lifetales/store"
	"github.com/lifetales/lifetales/store/db/postgres"
	"github.com/lifetales/lifetales/store/db/sqlite"
)

// NewDBDriver creates a new db driver based on the profile.
// SQLite serves single-user local installs; PostgreSQL serves hosted ones.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
