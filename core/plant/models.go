package plant

import (
	"time"

	"github.com/trezcool/plantcare/core"
)

// DefaultWateringFrequencyDays applies when a new plant does not set its own frequency.
const DefaultWateringFrequencyDays = 7

type Plant struct {
	ID                    string    `json:"id" db:"id"`
	OwnerID               string    `json:"owner_id" db:"owner_id"`
	Name                  string    `json:"name" db:"name"`
	Species               string    `json:"species" db:"species"`
	LastWatered           time.Time `json:"last_watered" db:"last_watered"`
	WateringFrequencyDays int       `json:"watering_frequency_days" db:"watering_frequency_days"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewPlant contains information needed to create a new Plant.
type NewPlant struct {
	Name                  string     `json:"name" validate:"required,notblank"`
	Species               string     `json:"species" validate:"required,notblank"`
	LastWatered           *time.Time `json:"last_watered"`
	WateringFrequencyDays *int       `json:"watering_frequency_days"`
}

func (np *NewPlant) clean() {
	np.Name = core.CleanString(np.Name)
	np.Species = core.CleanString(np.Species)
}

// UpdatePlant defines what information may be provided to modify an existing Plant.
// nil fields are left untouched.
type UpdatePlant struct {
	Name                  *string    `json:"name" validate:"omitempty,notblank"`
	Species               *string    `json:"species" validate:"omitempty,notblank"`
	LastWatered           *time.Time `json:"last_watered"`
	WateringFrequencyDays *int       `json:"watering_frequency_days"`
}

func (up *UpdatePlant) clean() {
	if up.Name != nil {
		name := core.CleanString(*up.Name)
		up.Name = &name
	}
	if up.Species != nil {
		species := core.CleanString(*up.Species)
		up.Species = &species
	}
}

type CareEventKind string

const (
	CareEventWater     CareEventKind = "water"
	CareEventFertilize CareEventKind = "fertilize"
)

// CareEvent is one recorded care action on a plant.
type CareEvent struct {
	ID        string        `json:"id" db:"id"`
	PlantID   string        `json:"plant_id" db:"plant_id"`
	Kind      CareEventKind `json:"kind" db:"kind"`
	Date      time.Time     `json:"date" db:"date"`
	Notes     string        `json:"notes" db:"notes"`
	CreatedBy string        `json:"created_by" db:"created_by"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"` // UTC
}

type NewCareEvent struct {
	PlantID   string        `json:"plant_id" validate:"required"`
	Kind      CareEventKind `json:"kind" validate:"required,carekind"`
	Date      time.Time     `json:"date"`
	Notes     string        `json:"notes" validate:"max=1000"`
	CreatedBy string        `json:"created_by"`
}

func (ne *NewCareEvent) clean() {
	ne.PlantID = core.CleanString(ne.PlantID)
	ne.Kind = CareEventKind(core.CleanString(string(ne.Kind), true /* lower */))
	ne.Notes = core.CleanString(ne.Notes)
	ne.CreatedBy = core.CleanString(ne.CreatedBy)
}

// PlantStatus is a plant along with its evaluated watering schedule.
type PlantStatus struct {
	Plant
	NextWateringDate time.Time `json:"next_watering_date"`
	IsDue            bool      `json:"is_due"`
	Err              string    `json:"error,omitempty"`
}
