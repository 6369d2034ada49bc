package sqlxrepos

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/plantcare/core"
	"github.com/trezcool/plantcare/core/plant"
	"github.com/trezcool/plantcare/core/user"
)

const (
	userID  = "4a9e5b3e-8a9d-4c3e-9d55-3f3c1a0e6b11"
	plantID = "7d0f0d7c-2b64-4a0c-a1cf-8f6f3a1b2c33"
)

var tstamp = time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestUserRepository_QueryUsers(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows(userColumns).
		AddRow(userID, "Jane", "jane@test.cd", tstamp, tstamp)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, created_at, updated_at FROM "user" WHERE (name ILIKE $1 OR email ILIKE $2) ORDER BY created_at ASC, id ASC`)).
		WithArgs("%jan%", "%jan%").
		WillReturnRows(rows)

	users, err := repo.QueryUsers(context.Background(), &user.QueryFilter{Search: "jan"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, user.User{ID: userID, Name: "Jane", Email: "jane@test.cd", CreatedAt: tstamp, UpdatedAt: tstamp}, users[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_QueryUsers_StoreUnavailable(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT .* FROM "user"`).WillReturnError(sql.ErrConnDone)

	_, err := repo.QueryUsers(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestUserRepository_CheckEmailUniqueness(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "user" WHERE email = $1 AND id NOT IN ($2)`)).
		WithArgs("jane@test.cd", userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := repo.CheckEmailUniqueness(context.Background(), "jane@test.cd", userID, "not-a-uuid")
	assert.Equal(t, user.ErrEmailExists, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "user" (id,name,email,created_at,updated_at) VALUES ($1,$2,$3,$4,$5)`)).
		WithArgs(sqlmock.AnyArg(), "Jane", "jane@test.cd", tstamp, tstamp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "user"`).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	usr, err := repo.CreateUser(context.Background(), user.User{Name: "Jane", Email: "jane@test.cd", CreatedAt: tstamp, UpdatedAt: tstamp})
	require.NoError(t, err)
	assert.True(t, validID(usr.ID))

	_, err = repo.CreateUser(context.Background(), user.User{Name: "Jane", Email: "jane@test.cd", CreatedAt: tstamp, UpdatedAt: tstamp})
	assert.Equal(t, user.ErrEmailExists, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	_, err := repo.GetUser(ctx, user.GetFilter{ID: "42"})
	assert.Equal(t, user.ErrNotFound, err)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "user" WHERE email = $1`)).
		WithArgs("nobody@test.cd").
		WillReturnRows(sqlmock.NewRows(userColumns))
	_, err = repo.GetUser(ctx, user.GetFilter{Email: "nobody@test.cd"})
	assert.Equal(t, user.ErrNotFound, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlantRepository_ListPlantsByOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlantRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows(plantColumns).
		AddRow(plantID, userID, "Fern", "Nephrolepis", tstamp, 7, tstamp, tstamp)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, owner_id, name, species, last_watered, watering_frequency_days, created_at, updated_at FROM plant WHERE owner_id = $1 ORDER BY created_at ASC, id ASC`)).
		WithArgs(userID).
		WillReturnRows(rows)

	plants, err := repo.ListPlantsByOwner(ctx, userID)
	require.NoError(t, err)
	require.Len(t, plants, 1)
	assert.Equal(t, "Fern", plants[0].Name)
	assert.Equal(t, 7, plants[0].WateringFrequencyDays)
	assert.True(t, plants[0].LastWatered.Equal(tstamp))

	mock.ExpectQuery(`FROM plant WHERE owner_id`).WillReturnError(errors.New("connection reset"))
	_, err = repo.ListPlantsByOwner(ctx, userID)
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)

	plants, err = repo.ListPlantsByOwner(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, plants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlantRepository_AddCareEvent(t *testing.T) {
	watered := tstamp.Add(-time.Hour)

	t.Run("water updates last watered", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPlantRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO care_event (id,plant_id,kind,date,notes,created_by,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`)).
			WithArgs(sqlmock.AnyArg(), plantID, "water", watered, "soaked", userID, tstamp).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE plant SET last_watered = $1, updated_at = $2 WHERE id = $3`)).
			WithArgs(watered, tstamp, plantID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		evt, err := repo.AddCareEvent(context.Background(), plant.CareEvent{
			PlantID: plantID, Kind: plant.CareEventWater, Date: watered, Notes: "soaked", CreatedBy: userID, CreatedAt: tstamp,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, evt.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fertilize leaves plant alone", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPlantRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO care_event`).
			WithArgs(sqlmock.AnyArg(), plantID, "fertilize", watered, "", nil, tstamp).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := repo.AddCareEvent(context.Background(), plant.CareEvent{
			PlantID: plantID, Kind: plant.CareEventFertilize, Date: watered, CreatedAt: tstamp,
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on failure", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPlantRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO care_event`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE plant`).WillReturnError(errors.New("deadlock detected"))
		mock.ExpectRollback()

		_, err := repo.AddCareEvent(context.Background(), plant.CareEvent{
			PlantID: plantID, Kind: plant.CareEventWater, Date: watered, CreatedAt: tstamp,
		})
		assert.ErrorIs(t, err, core.ErrStoreUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPlantRepository_DeletePlant(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlantRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM plant WHERE id = $1`)).
		WithArgs(plantID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Equal(t, plant.ErrNotFound, repo.DeletePlant(context.Background(), plantID))
	assert.Equal(t, plant.ErrNotFound, repo.DeletePlant(context.Background(), "nope"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
