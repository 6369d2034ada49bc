package plant_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/plantcare/core"
	. "github.com/trezcool/plantcare/core/plant"
	"github.com/trezcool/plantcare/storage/database/inmem"
	"github.com/trezcool/plantcare/tests"
)

var now = time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, Repository) {
	t.Helper()
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	InitValidators(validate, translator)

	repo := inmemdb.NewPlantRepository(inmemdb.Open())
	return NewService(repo, validate, translator, testutil.NewClock(now)), repo
}

func intPtr(i int) *int { return &i }

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "error = %v, want *core.ValidationError", err)
	flds := make(map[string]string, len(vErr.Fields))
	for _, f := range vErr.Fields {
		flds[f.Field] = f.Error
	}
	return flds
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "owner", NewPlant{Name: "  Fern ", Species: "Nephrolepis"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Fern", p.Name)
	assert.Equal(t, DefaultWateringFrequencyDays, p.WateringFrequencyDays)
	assert.True(t, p.LastWatered.Equal(now))

	last := now.AddDate(0, 0, -2)
	p, err = svc.Create(ctx, "owner", NewPlant{Name: "Cactus", Species: "Cereus", LastWatered: &last, WateringFrequencyDays: intPtr(14)})
	require.NoError(t, err)
	assert.Equal(t, 14, p.WateringFrequencyDays)
	assert.True(t, p.LastWatered.Equal(last))

	tests := []struct {
		name     string
		np       NewPlant
		wantFlds []string
	}{
		{name: "missing name", np: NewPlant{Species: "x"}, wantFlds: []string{"name"}},
		{name: "blank species", np: NewPlant{Name: "x", Species: "   "}, wantFlds: []string{"species"}},
		{name: "zero frequency", np: NewPlant{Name: "x", Species: "x", WateringFrequencyDays: intPtr(0)}, wantFlds: []string{"watering_frequency_days"}},
		{name: "negative frequency", np: NewPlant{Name: "x", Species: "x", WateringFrequencyDays: intPtr(-1)}, wantFlds: []string{"watering_frequency_days"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "owner", tt.np)
			flds := fieldErrors(t, err)
			for _, f := range tt.wantFlds {
				assert.Contains(t, flds, f)
			}
		})
	}
}

func TestService_UpdateDelete(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "owner", NewPlant{Name: "Fern", Species: "Nephrolepis"})
	require.NoError(t, err)

	name := "Boston Fern"
	p, err = svc.Update(ctx, p.ID, UpdatePlant{Name: &name, WateringFrequencyDays: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, "Boston Fern", p.Name)
	assert.Equal(t, "Nephrolepis", p.Species)
	assert.Equal(t, 3, p.WateringFrequencyDays)
	assert.Equal(t, "owner", p.OwnerID)

	_, err = svc.Update(ctx, p.ID, UpdatePlant{WateringFrequencyDays: intPtr(0)})
	assert.Contains(t, fieldErrors(t, err), "watering_frequency_days")

	_, err = svc.Update(ctx, "missing", UpdatePlant{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Water(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "owner", NewPlant{Name: "Fern", Species: "Nephrolepis", LastWatered: timePtr(now.AddDate(0, 0, -10))})
	require.NoError(t, err)

	at := now.Add(-time.Hour)
	evt, err := svc.Water(ctx, p.ID, at, "  soaked ", "owner")
	require.NoError(t, err)
	assert.Equal(t, CareEventWater, evt.Kind)
	assert.Equal(t, "soaked", evt.Notes)

	p, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, p.LastWatered.Equal(at))

	_, err = svc.AddCareEvent(ctx, NewCareEvent{PlantID: p.ID, Kind: CareEventFertilize})
	require.NoError(t, err)
	p2, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, p2.LastWatered.Equal(at), "fertilizing must not change LastWatered")

	events, err := svc.CareEvents(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, CareEventFertilize, events[0].Kind) // most recent first

	_, err = svc.AddCareEvent(ctx, NewCareEvent{PlantID: p.ID, Kind: "prune"})
	assert.Contains(t, fieldErrors(t, err), "kind")

	_, err = svc.Water(ctx, "missing", at, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_DueStatus(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	testutil.CreatePlant(t, repo, "owner", "Due", time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC), 7)
	testutil.CreatePlant(t, repo, "owner", "NotDue", time.Date(2024, 6, 9, 9, 0, 0, 0, time.UTC), 7)
	testutil.CreatePlant(t, repo, "owner", "Broken", time.Date(2024, 6, 9, 9, 0, 0, 0, time.UTC), 0)
	testutil.CreatePlant(t, repo, "other", "Elsewhere", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), 7)

	statuses, err := svc.DueStatus(ctx, "owner", now, time.UTC)
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.Equal(t, "Due", statuses[0].Name)
	assert.True(t, statuses[0].IsDue)
	assert.Equal(t, "NotDue", statuses[1].Name)
	assert.False(t, statuses[1].IsDue)
	assert.True(t, statuses[1].NextWateringDate.Equal(time.Date(2024, 6, 16, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Broken", statuses[2].Name)
	assert.Contains(t, statuses[2].Err, ErrInvalidFrequency.Error())
}

func timePtr(t time.Time) *time.Time { return &t }
