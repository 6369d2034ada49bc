package inmemdb

import (
	"sync"

	"github.com/trezcool/plantcare/core/plant"
	"github.com/trezcool/plantcare/core/user"
)

type (
	DB struct {
		user  *userTable
		plant *plantTable
	}

	userTable struct {
		mutex sync.RWMutex
		seq   int
		table map[string]*userRow
	}
	userRow struct {
		seq int
		usr user.User
	}

	// plantTable also holds care events so that watering and LastWatered change together.
	plantTable struct {
		mutex  sync.RWMutex
		seq    int
		table  map[string]*plantRow
		events map[string][]plant.CareEvent // {plantID: events}
	}
	plantRow struct {
		seq int
		p   plant.Plant
	}
)

func Open() *DB {
	return &DB{
		user:  &userTable{table: make(map[string]*userRow)},
		plant: &plantTable{table: make(map[string]*plantRow), events: make(map[string][]plant.CareEvent)},
	}
}
