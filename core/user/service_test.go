package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/plantcare/core"
	. "github.com/trezcool/plantcare/core/user"
	"github.com/trezcool/plantcare/storage/database/inmem"
)

func setup() *Service {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	return NewService(inmemdb.NewUserRepository(inmemdb.Open()), validate, translator)
}

func TestService_Create(t *testing.T) {
	svc := setup()
	ctx := context.Background()

	usr, err := svc.Create(ctx, NewUser{Name: " Jane ", Email: " Jane@Test.CD "})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "Jane", usr.Name)
	assert.Equal(t, "jane@test.cd", usr.Email)

	tests := []struct {
		name    string
		nu      NewUser
		wantFld string
	}{
		{name: "duplicate email", nu: NewUser{Name: "J", Email: "jane@test.cd"}, wantFld: "email"},
		{name: "invalid email", nu: NewUser{Name: "J", Email: "jane"}, wantFld: "email"},
		{name: "blank name", nu: NewUser{Name: "  ", Email: "j@test.cd"}, wantFld: "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.nu)
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Create() error = %v, want *core.ValidationError", err)
			}
			require.NotEmpty(t, vErr.Fields)
			assert.Equal(t, tt.wantFld, vErr.Fields[0].Field)
		})
	}
}

func TestService_Queries(t *testing.T) {
	svc := setup()
	ctx := context.Background()

	jane, err := svc.Create(ctx, NewUser{Name: "Jane", Email: "jane@test.cd"})
	require.NoError(t, err)
	john, err := svc.Create(ctx, NewUser{Name: "John", Email: "john@test.cd"})
	require.NoError(t, err)

	users, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, jane.ID, users[0].ID)
	assert.Equal(t, john.ID, users[1].ID)

	users, err = svc.Filter(ctx, QueryFilter{Search: "JOHN"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, john.ID, users[0].ID)

	got, err := svc.GetByEmail(ctx, "JANE@test.cd")
	require.NoError(t, err)
	assert.Equal(t, jane.ID, got.ID)

	_, err = svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, john.ID, UpdateUser{Email: "jane@test.cd"})
	assert.Error(t, err)
	upd, err := svc.Update(ctx, john.ID, UpdateUser{Name: "Johnny"})
	require.NoError(t, err)
	assert.Equal(t, "Johnny", upd.Name)
	assert.Equal(t, "john@test.cd", upd.Email)

	n, err := svc.Delete(ctx, jane.ID, "missing")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
