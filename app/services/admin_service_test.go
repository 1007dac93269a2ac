package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/pkg/paginate"
)

type fakeUserStore struct {
	users   map[string]models.User
	blocked map[string]string // id -> reason
	deleted []string
	edits   map[string]bson.M
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	f := &fakeUserStore{
		users:   make(map[string]models.User),
		blocked: make(map[string]string),
		edits:   make(map[string]bson.M),
	}
	for _, u := range users {
		f.users[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeUserStore) List(context.Context, repositories.UserFilter, int, int) ([]models.User, paginate.Pagination, error) {
	return nil, paginate.Pagination{}, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return u, repositories.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) Block(_ context.Context, id, reason, _ string) error {
	if _, ok := f.users[id]; !ok {
		return repositories.ErrNotFound
	}
	f.blocked[id] = reason
	return nil
}

func (f *fakeUserStore) Unblock(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.blocked, id)
	return nil
}

func (f *fakeUserStore) UpdateFields(_ context.Context, id string, fields bson.M) error {
	if _, ok := f.users[id]; !ok {
		return repositories.ErrNotFound
	}
	f.edits[id] = fields
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func adminFixture() (*AdminService, *fakeUserStore, models.User, models.User, models.User) {
	admin := models.User{ID: primitive.NewObjectID(), Name: "Root", Role: models.RoleAdmin}
	otherAdmin := models.User{ID: primitive.NewObjectID(), Name: "Deputy", Role: models.RoleAdmin}
	customer := models.User{ID: primitive.NewObjectID(), Name: "Ada", Role: models.RoleCustomer}

	store := newFakeUserStore(admin, otherAdmin, customer)
	return NewAdminService(store), store, admin, otherAdmin, customer
}

func TestBlockUser(t *testing.T) {
	svc, store, admin, _, customer := adminFixture()

	err := svc.BlockUser(context.Background(), admin.ID.Hex(), customer.ID.Hex(), "chargeback fraud")
	require.NoError(t, err)
	assert.Equal(t, "chargeback fraud", store.blocked[customer.ID.Hex()])
}

func TestBlockUserRejectsSelf(t *testing.T) {
	svc, store, admin, _, _ := adminFixture()

	err := svc.BlockUser(context.Background(), admin.ID.Hex(), admin.ID.Hex(), "oops")
	require.ErrorIs(t, err, ErrSelfAction)
	assert.Empty(t, store.blocked)
}

func TestBlockUserRejectsOtherAdmin(t *testing.T) {
	svc, store, admin, otherAdmin, _ := adminFixture()

	err := svc.BlockUser(context.Background(), admin.ID.Hex(), otherAdmin.ID.Hex(), "lockout attempt")
	require.ErrorIs(t, err, ErrAdminProtected)
	assert.Empty(t, store.blocked)
}

func TestUnblockUser(t *testing.T) {
	svc, store, admin, _, customer := adminFixture()
	store.blocked[customer.ID.Hex()] = "temp"

	require.NoError(t, svc.UnblockUser(context.Background(), admin.ID.Hex(), customer.ID.Hex()))
	assert.Empty(t, store.blocked)
}

func TestDeleteUserGuards(t *testing.T) {
	svc, store, admin, otherAdmin, customer := adminFixture()

	require.ErrorIs(t, svc.DeleteUser(context.Background(), admin.ID.Hex(), admin.ID.Hex()), ErrSelfAction)
	require.ErrorIs(t, svc.DeleteUser(context.Background(), admin.ID.Hex(), otherAdmin.ID.Hex()), ErrAdminProtected)

	require.NoError(t, svc.DeleteUser(context.Background(), admin.ID.Hex(), customer.ID.Hex()))
	assert.Equal(t, []string{customer.ID.Hex()}, store.deleted)
}

func TestUpdateUserRejectsAdminTargets(t *testing.T) {
	svc, store, admin, otherAdmin, _ := adminFixture()

	_, err := svc.UpdateUser(context.Background(), admin.ID.Hex(), otherAdmin.ID.Hex(), UserUpdate{Name: "Renamed"})
	require.ErrorIs(t, err, ErrAdminProtected)

	_, err = svc.UpdateUser(context.Background(), admin.ID.Hex(), admin.ID.Hex(), UserUpdate{Name: "Renamed"})
	require.ErrorIs(t, err, ErrSelfAction)
	assert.Empty(t, store.edits)
}

func TestUpdateUserAppliesPartialEdit(t *testing.T) {
	svc, store, admin, _, customer := adminFixture()

	verified := true
	_, err := svc.UpdateUser(context.Background(), admin.ID.Hex(), customer.ID.Hex(), UserUpdate{
		Name:       "Ada L.",
		IsVerified: &verified,
	})
	require.NoError(t, err)

	fields := store.edits[customer.ID.Hex()]
	assert.Equal(t, "Ada L.", fields["name"])
	assert.Equal(t, true, fields["is_verified"])
	assert.NotContains(t, fields, "email")
	assert.NotContains(t, fields, "role")
}

func TestUpdateProfileAllowsSelf(t *testing.T) {
	svc, store, admin, _, _ := adminFixture()

	_, err := svc.UpdateProfile(context.Background(), admin.ID.Hex(), ProfileUpdate{Name: "Root 2"})
	require.NoError(t, err)
	assert.Equal(t, "Root 2", store.edits[admin.ID.Hex()]["name"])
}

func TestUpdateProfileHashesPassword(t *testing.T) {
	svc, store, admin, _, _ := adminFixture()

	_, err := svc.UpdateProfile(context.Background(), admin.ID.Hex(), ProfileUpdate{Password: "hunter2hunter2"})
	require.NoError(t, err)

	hash, _ := store.edits[admin.ID.Hex()]["password"].(string)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "hunter2hunter2", hash)
}

func TestGetUserNotFound(t *testing.T) {
	svc, _, _, _, _ := adminFixture()

	_, err := svc.GetUser(context.Background(), primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, ErrNotFound)
}
