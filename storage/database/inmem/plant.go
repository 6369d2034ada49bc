package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/plantcare/core/plant"
)

type plantRepository struct {
	db *plantTable
}

var _ plant.Repository = (*plantRepository)(nil) // interface compliance check

func NewPlantRepository(db *DB) *plantRepository {
	return &plantRepository{db: db.plant}
}

func (db *DB) deletePlantsOf(ownerID string) {
	tbl := db.plant
	tbl.mutex.Lock()
	defer tbl.mutex.Unlock()
	for id, r := range tbl.table {
		if r.p.OwnerID == ownerID {
			delete(tbl.table, id)
			delete(tbl.events, id)
		}
	}
}

func (repo *plantRepository) CreatePlant(_ context.Context, p plant.Plant) (plant.Plant, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	repo.db.seq++
	repo.db.table[p.ID] = &plantRow{seq: repo.db.seq, p: p}
	return p, nil
}

func (repo *plantRepository) GetPlant(_ context.Context, id string) (plant.Plant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return r.p, nil
	}
	return plant.Plant{}, plant.ErrNotFound
}

func (repo *plantRepository) ListPlantsByOwner(_ context.Context, ownerID string) ([]plant.Plant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]*plantRow, 0)
	for _, r := range repo.db.table {
		if r.p.OwnerID == ownerID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	plants := make([]plant.Plant, 0, len(rows))
	for _, r := range rows {
		plants = append(plants, r.p)
	}
	return plants, nil
}

func (repo *plantRepository) UpdatePlant(_ context.Context, p plant.Plant) (plant.Plant, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.table[p.ID]
	if !ok {
		return plant.Plant{}, plant.ErrNotFound
	}
	p.OwnerID = r.p.OwnerID
	p.CreatedAt = r.p.CreatedAt
	r.p = p
	return p, nil
}

func (repo *plantRepository) DeletePlant(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return plant.ErrNotFound
	}
	delete(repo.db.table, id)
	delete(repo.db.events, id)
	return nil
}

func (repo *plantRepository) AddCareEvent(_ context.Context, evt plant.CareEvent) (plant.CareEvent, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.table[evt.PlantID]
	if !ok {
		return plant.CareEvent{}, plant.ErrNotFound
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	repo.db.events[evt.PlantID] = append(repo.db.events[evt.PlantID], evt)
	if evt.Kind == plant.CareEventWater {
		r.p.LastWatered = evt.Date
		r.p.UpdatedAt = evt.CreatedAt
	}
	return evt, nil
}

func (repo *plantRepository) ListCareEvents(_ context.Context, plantID string) ([]plant.CareEvent, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	src := repo.db.events[plantID]
	events := make([]plant.CareEvent, len(src))
	copy(events, src)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.After(events[j].Date) })
	return events, nil
}
