package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/plantcare/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

// query returns users in insertion order.
func (repo *userRepository) query() []user.User {
	rows := make([]*userRow, 0, len(repo.db.user.table))
	for _, r := range repo.db.user.table {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.usr)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...string) error {
	tbl := repo.db.user
	tbl.mutex.RLock()
	defer tbl.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email && !isExcluded(usr.ID, excludedIDs) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	tbl := repo.db.user
	tbl.mutex.Lock()
	defer tbl.mutex.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	tbl.seq++
	tbl.table[usr.ID] = &userRow{seq: tbl.seq, usr: usr}
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter) ([]user.User, error) {
	tbl := repo.db.user
	tbl.mutex.RLock()
	defer tbl.mutex.RUnlock()

	users := repo.query()
	if filter == nil || filter.IsEmpty() {
		return users, nil
	}

	search := strings.ToLower(filter.Search)
	res := make([]user.User, 0, len(users))
	for _, usr := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(usr.Name), search) &&
			!strings.Contains(strings.ToLower(usr.Email), search) {
			continue
		}
		if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		res = append(res, usr)
	}
	return res, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	tbl := repo.db.user
	tbl.mutex.RLock()
	defer tbl.mutex.RUnlock()

	if filter.ID != "" {
		if r, ok := tbl.table[filter.ID]; ok {
			return r.usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.query() {
			if usr.Email == filter.Email {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	tbl := repo.db.user
	tbl.mutex.Lock()
	defer tbl.mutex.Unlock()

	r, ok := tbl.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	r.usr.Name = usr.Name
	r.usr.Email = usr.Email
	r.usr.UpdatedAt = usr.UpdatedAt
	return r.usr, nil
}

// DeleteUsersByID also deletes the users' plants, like the database cascade.
func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) (int, error) {
	tbl := repo.db.user
	tbl.mutex.Lock()
	defer tbl.mutex.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := tbl.table[id]; ok {
			delete(tbl.table, id)
			repo.db.deletePlantsOf(id)
			n++
		}
	}
	return n, nil
}

func isExcluded(id string, excludedIDs []string) bool {
	for _, ex := range excludedIDs {
		if ex == id {
			return true
		}
	}
	return false
}
