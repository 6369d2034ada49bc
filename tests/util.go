package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/plantcare/core/plant"
	"github.com/trezcool/plantcare/core/user"
)

func CreateUser(t *testing.T, repo user.Repository, name, email string, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreatePlant stores a plant as-is, without validation, so that invalid frequencies can be seeded.
func CreatePlant(t *testing.T, repo plant.Repository, ownerID, name string, lastWatered time.Time, freqDays int) plant.Plant {
	t.Helper()
	now := time.Now().UTC()
	p := plant.Plant{
		ID:                    uuid.NewString(),
		OwnerID:               ownerID,
		Name:                  name,
		Species:               "Monstera deliciosa",
		LastWatered:           lastWatered,
		WateringFrequencyDays: freqDays,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	p, err := repo.CreatePlant(context.Background(), p)
	if err != nil {
		t.Fatalf("createPlant() failed: %v", err)
	}
	return p
}

// Clock is a settable core.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *Clock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
