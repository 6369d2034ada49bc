package database

import (
	"context"
	"net/url"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/plantcare/core"
)

func TestDSN(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{
		Engine:        "postgres",
		Host:          "db",
		Port:          5432,
		User:          "app",
		Password:      "p@ss",
		AdminUser:     "root",
		AdminPassword: "secret",
		Name:          "plantcare",
		DisableTLS:    true,
	}}

	u, err := url.Parse(DSN("plantcare", false, conf))
	require.NoError(t, err)
	assert.Equal(t, "app", u.User.Username())
	pwd, _ := u.User.Password()
	assert.Equal(t, "p@ss", pwd)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/plantcare", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))

	u, err = url.Parse(DSN("postgres", true, conf))
	require.NoError(t, err)
	assert.Equal(t, "root", u.User.Username())

	conf.Database.AdminUser = ""
	conf.Database.DisableTLS = false
	u, err = url.Parse(DSN("postgres", true, conf))
	require.NoError(t, err)
	assert.Equal(t, "app", u.User.Username())
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestCreateDB(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{User: "app", Password: "it's", Name: "plantcare"}}

	t.Run("missing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT true FROM pg_database").WithArgs("plantcare").
			WillReturnRows(sqlmock.NewRows([]string{"bool"}))
		mock.ExpectExec(`CREATE DATABASE "plantcare"`).WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, createDB(context.Background(), db, conf))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT true FROM pg_roles").WithArgs("app").
			WillReturnRows(sqlmock.NewRows([]string{"bool"}).AddRow(true))

		require.NoError(t, createAppUser(context.Background(), db, conf))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("new role quotes password", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT true FROM pg_roles WHERE rolname = $1").WithArgs("app").
			WillReturnRows(sqlmock.NewRows([]string{"bool"}))
		mock.ExpectExec(`CREATE USER "app" CREATEDB ENCRYPTED PASSWORD 'it''s'`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, createAppUser(context.Background(), db, conf))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
