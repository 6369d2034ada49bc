package plant

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/plantcare/core"
)

var (
	// errors
	ErrNotFound = errors.New("plant not found")
)

type (
	Repository interface {
		CreatePlant(ctx context.Context, p Plant) (Plant, error)
		GetPlant(ctx context.Context, id string) (Plant, error)
		// ListPlantsByOwner returns the owner's plants in creation order.
		ListPlantsByOwner(ctx context.Context, ownerID string) ([]Plant, error)
		UpdatePlant(ctx context.Context, p Plant) (Plant, error)
		DeletePlant(ctx context.Context, id string) error
		// AddCareEvent stores evt. A water event also sets the plant's LastWatered to evt.Date.
		AddCareEvent(ctx context.Context, evt CareEvent) (CareEvent, error)
		// ListCareEvents returns the plant's events, most recent first.
		ListCareEvents(ctx context.Context, plantID string) ([]CareEvent, error)
	}

	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
		clock      core.Clock
	}
)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator, clock core.Clock) *Service {
	if clock == nil {
		clock = core.SystemClock
	}
	return &Service{repo: repo, validate: validate, translator: translator, clock: clock}
}

func (svc *Service) Create(ctx context.Context, ownerID string, np NewPlant) (Plant, error) {
	np.clean()
	if err := svc.validate.Struct(np); err != nil {
		return Plant{}, core.TranslateValidationErrors(err, svc.translator)
	}

	now := svc.clock.Now().UTC()
	p := Plant{
		ID:                    uuid.NewString(),
		OwnerID:               core.CleanString(ownerID),
		Name:                  np.Name,
		Species:               np.Species,
		LastWatered:           now,
		WateringFrequencyDays: DefaultWateringFrequencyDays,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if np.LastWatered != nil {
		p.LastWatered = *np.LastWatered
	}
	if np.WateringFrequencyDays != nil {
		p.WateringFrequencyDays = *np.WateringFrequencyDays
	}
	return svc.repo.CreatePlant(ctx, p)
}

func (svc *Service) Get(ctx context.Context, id string) (Plant, error) {
	return svc.repo.GetPlant(ctx, core.CleanString(id))
}

func (svc *Service) ListForOwner(ctx context.Context, ownerID string) ([]Plant, error) {
	return svc.repo.ListPlantsByOwner(ctx, core.CleanString(ownerID))
}

func (svc *Service) Update(ctx context.Context, id string, up UpdatePlant) (Plant, error) {
	up.clean()
	if err := svc.validate.Struct(up); err != nil {
		return Plant{}, core.TranslateValidationErrors(err, svc.translator)
	}
	p, err := svc.Get(ctx, id)
	if err != nil {
		return Plant{}, err
	}

	if up.Name != nil {
		p.Name = *up.Name
	}
	if up.Species != nil {
		p.Species = *up.Species
	}
	if up.LastWatered != nil {
		p.LastWatered = *up.LastWatered
	}
	if up.WateringFrequencyDays != nil {
		p.WateringFrequencyDays = *up.WateringFrequencyDays
	}
	p.UpdatedAt = svc.clock.Now().UTC()
	return svc.repo.UpdatePlant(ctx, p)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeletePlant(ctx, core.CleanString(id))
}

// Water records a watering of the plant at `at` (now when zero) by user `by`.
func (svc *Service) Water(ctx context.Context, id string, at time.Time, notes, by string) (CareEvent, error) {
	return svc.AddCareEvent(ctx, NewCareEvent{
		PlantID:   id,
		Kind:      CareEventWater,
		Date:      at,
		Notes:     notes,
		CreatedBy: by,
	})
}

func (svc *Service) AddCareEvent(ctx context.Context, ne NewCareEvent) (CareEvent, error) {
	ne.clean()
	if err := svc.validate.Struct(ne); err != nil {
		return CareEvent{}, core.TranslateValidationErrors(err, svc.translator)
	}
	if _, err := svc.Get(ctx, ne.PlantID); err != nil {
		return CareEvent{}, err
	}

	now := svc.clock.Now().UTC()
	if ne.Date.IsZero() {
		ne.Date = now
	}
	evt := CareEvent{
		ID:        uuid.NewString(),
		PlantID:   ne.PlantID,
		Kind:      ne.Kind,
		Date:      ne.Date,
		Notes:     ne.Notes,
		CreatedBy: ne.CreatedBy,
		CreatedAt: now,
	}
	return svc.repo.AddCareEvent(ctx, evt)
}

func (svc *Service) CareEvents(ctx context.Context, plantID string) ([]CareEvent, error) {
	return svc.repo.ListCareEvents(ctx, core.CleanString(plantID))
}

// DueStatus evaluates every plant of the owner at now, with calendar days taken in loc.
// Plants with an invalid frequency are returned with Err set instead of failing the listing.
func (svc *Service) DueStatus(ctx context.Context, ownerID string, now time.Time, loc *time.Location) ([]PlantStatus, error) {
	plants, err := svc.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	statuses := make([]PlantStatus, 0, len(plants))
	for _, p := range plants {
		st := PlantStatus{Plant: p}
		res, err := Evaluate(p, now, loc)
		if err != nil {
			st.Err = err.Error()
		} else {
			st.NextWateringDate = res.NextWateringDate
			st.IsDue = res.IsDue
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
