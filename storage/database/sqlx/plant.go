package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/plantcare/core"
	"github.com/trezcool/plantcare/core/plant"
)

const (
	plantTable     = "plant"
	careEventTable = "care_event"
)

var (
	plantColumns = []string{
		"id", "owner_id", "name", "species", "last_watered", "watering_frequency_days", "created_at", "updated_at",
	}
	careEventColumns = []string{
		"id", "plant_id", "kind", "date", "notes", "COALESCE(created_by::text, '') AS created_by", "created_at",
	}
)

type plantRepository struct {
	db core.DB
}

var _ plant.Repository = (*plantRepository)(nil) // interface compliance check

func NewPlantRepository(db core.DB) *plantRepository {
	return &plantRepository{db: db}
}

func (repo *plantRepository) CreatePlant(ctx context.Context, p plant.Plant) (plant.Plant, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if !validID(p.OwnerID) {
		return plant.Plant{}, errors.Errorf("invalid owner id %q", p.OwnerID)
	}
	query, args, err := psql.Insert(plantTable).
		Columns(plantColumns...).
		Values(p.ID, p.OwnerID, p.Name, p.Species, p.LastWatered.UTC(), p.WateringFrequencyDays, p.CreatedAt.UTC(), p.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return plant.Plant{}, core.NewStoreError("building plant insert", err)
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return plant.Plant{}, storeErr(err, "inserting plant", nil)
	}
	return p, nil
}

func (repo *plantRepository) GetPlant(ctx context.Context, id string) (plant.Plant, error) {
	if !validID(id) {
		return plant.Plant{}, plant.ErrNotFound
	}
	query, args, err := psql.Select(plantColumns...).From(plantTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return plant.Plant{}, core.NewStoreError("building plant query", err)
	}

	var p plant.Plant
	if err = repo.db.GetContext(ctx, &p, query, args...); err != nil {
		return plant.Plant{}, storeErr(err, "getting plant", plant.ErrNotFound)
	}
	return p, nil
}

func (repo *plantRepository) ListPlantsByOwner(ctx context.Context, ownerID string) ([]plant.Plant, error) {
	plants := make([]plant.Plant, 0)
	if !validID(ownerID) {
		return plants, nil
	}
	query, args, err := psql.Select(plantColumns...).
		From(plantTable).
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, core.NewStoreError("building plants query", err)
	}
	if err = repo.db.SelectContext(ctx, &plants, query, args...); err != nil {
		return nil, storeErr(err, "listing plants", nil)
	}
	return plants, nil
}

func (repo *plantRepository) UpdatePlant(ctx context.Context, p plant.Plant) (plant.Plant, error) {
	if !validID(p.ID) {
		return plant.Plant{}, plant.ErrNotFound
	}
	query, args, err := psql.Update(plantTable).
		SetMap(map[string]interface{}{
			"name":                    p.Name,
			"species":                 p.Species,
			"last_watered":            p.LastWatered.UTC(),
			"watering_frequency_days": p.WateringFrequencyDays,
			"updated_at":              p.UpdatedAt.UTC(),
		}).
		Where(sq.Eq{"id": p.ID}).
		Suffix("RETURNING " + joinColumns(plantColumns)).
		ToSql()
	if err != nil {
		return plant.Plant{}, core.NewStoreError("building plant update", err)
	}

	var updated plant.Plant
	if err = repo.db.GetContext(ctx, &updated, query, args...); err != nil {
		return plant.Plant{}, storeErr(err, "updating plant", plant.ErrNotFound)
	}
	return updated, nil
}

func (repo *plantRepository) DeletePlant(ctx context.Context, id string) error {
	if !validID(id) {
		return plant.ErrNotFound
	}
	query, args, err := psql.Delete(plantTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return core.NewStoreError("building plant delete", err)
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storeErr(err, "deleting plant", nil)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storeErr(err, "deleting plant", nil)
	} else if n == 0 {
		return plant.ErrNotFound
	}
	return nil
}

// AddCareEvent inserts evt and, for a water event, moves the plant's LastWatered in the same transaction.
func (repo *plantRepository) AddCareEvent(ctx context.Context, evt plant.CareEvent) (_ plant.CareEvent, err error) {
	if !validID(evt.PlantID) {
		return plant.CareEvent{}, plant.ErrNotFound
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return plant.CareEvent{}, storeErr(err, "starting care event transaction", nil)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var createdBy interface{}
	if validID(evt.CreatedBy) {
		createdBy = evt.CreatedBy
	}
	query, args, err := psql.Insert(careEventTable).
		Columns("id", "plant_id", "kind", "date", "notes", "created_by", "created_at").
		Values(evt.ID, evt.PlantID, string(evt.Kind), evt.Date.UTC(), evt.Notes, createdBy, evt.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return plant.CareEvent{}, core.NewStoreError("building care event insert", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return plant.CareEvent{}, storeErr(err, "inserting care event", nil)
	}

	if evt.Kind == plant.CareEventWater {
		query, args, err = psql.Update(plantTable).
			Set("last_watered", evt.Date.UTC()).
			Set("updated_at", evt.CreatedAt.UTC()).
			Where(sq.Eq{"id": evt.PlantID}).
			ToSql()
		if err != nil {
			return plant.CareEvent{}, core.NewStoreError("building plant update", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return plant.CareEvent{}, storeErr(err, "updating last watered", nil)
		}
	}

	if err = tx.Commit(); err != nil {
		return plant.CareEvent{}, storeErr(err, "committing care event", nil)
	}
	if createdBy == nil {
		evt.CreatedBy = ""
	}
	return evt, nil
}

func (repo *plantRepository) ListCareEvents(ctx context.Context, plantID string) ([]plant.CareEvent, error) {
	events := make([]plant.CareEvent, 0)
	if !validID(plantID) {
		return events, nil
	}
	query, args, err := psql.Select(careEventColumns...).
		From(careEventTable).
		Where(sq.Eq{"plant_id": plantID}).
		OrderBy("date DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, core.NewStoreError("building care events query", err)
	}
	if err = repo.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, storeErr(err, "listing care events", nil)
	}
	return events, nil
}
