package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/trezcool/plantcare/core"
	"github.com/trezcool/plantcare/core/user"
)

const userTable = `"user"`

var userColumns = []string{"id", "name", "email", "created_at", "updated_at"}

type userRepository struct {
	db core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DBExecutor) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	q := psql.Select("COUNT(*)").From(userTable).Where(sq.Eq{"email": email})
	if ids := filterIDs(excludedIDs); len(ids) > 0 {
		q = q.Where(sq.NotEq{"id": ids})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return core.NewStoreError("building user uniqueness query", err)
	}

	var n int
	if err = repo.db.GetContext(ctx, &n, query, args...); err != nil {
		return storeErr(err, "checking user uniqueness", nil)
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	query, args, err := psql.Insert(userTable).
		Columns(userColumns...).
		Values(usr.ID, usr.Name, usr.Email, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return user.User{}, core.NewStoreError("building user insert", err)
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, storeErr(err, "inserting user", nil)
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter) ([]user.User, error) {
	q := psql.Select(userColumns...).From(userTable).OrderBy(core.DBOrdering{Field: "created_at", Ascending: true}.String(), "id ASC")
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Or{sq.ILike{"name": val}, sq.ILike{"email": val}})
		}
		if !filter.CreatedFrom.IsZero() {
			q = q.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
		}
		if !filter.CreatedTo.IsZero() {
			q = q.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
		}
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, core.NewStoreError("building users query", err)
	}

	users := make([]user.User, 0)
	if err = repo.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, storeErr(err, "querying users", nil)
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := psql.Select(userColumns...).From(userTable)
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		q = q.Where(sq.Eq{"id": filter.ID})
	case filter.Email != "":
		q = q.Where(sq.Eq{"email": filter.Email})
	default:
		return user.User{}, user.ErrNotFound
	}
	query, args, err := q.ToSql()
	if err != nil {
		return user.User{}, core.NewStoreError("building user query", err)
	}

	var usr user.User
	if err = repo.db.GetContext(ctx, &usr, query, args...); err != nil {
		return user.User{}, storeErr(err, "getting user", user.ErrNotFound)
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if !validID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	query, args, err := psql.Update(userTable).
		Set("name", usr.Name).
		Set("email", usr.Email).
		Set("updated_at", usr.UpdatedAt.UTC()).
		Where(sq.Eq{"id": usr.ID}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return user.User{}, core.NewStoreError("building user update", err)
	}

	var updated user.User
	if err = repo.db.GetContext(ctx, &updated, query, args...); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, storeErr(err, "updating user", user.ErrNotFound)
	}
	return updated, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	ids = filterIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := psql.Delete(userTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, core.NewStoreError("building user delete", err)
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storeErr(err, "deleting users", nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr(err, "deleting users", nil)
	}
	return int(n), nil
}

// filterIDs drops ids that cannot match a UUID column.
func filterIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}
