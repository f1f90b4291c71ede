package crud_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bitechdev/AdminSpec/pkg/crud"
	"github.com/bitechdev/AdminSpec/pkg/models"
)

func addressCount(t *testing.T, db *gorm.DB, userID int64) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}

func TestServiceCreateWithRelations(t *testing.T) {
	db := openTestDB(t)
	role := seedRole(t, db, "admin")
	svc := crud.NewService(db, &models.User{})

	payload := map[string]any{
		"name":     "alice",
		"email":    "alice@example.com",
		"password": "secret",
		"ignored":  "field",
		"role_ids": []any{role.ID},
		"addresses": []any{
			map[string]any{"name": "Home", "city": "Springfield", "bogus": "dropped"},
		},
	}
	rec, err := svc.Create(context.Background(), payload, crud.Options{WithCount: []string{"addresses"}})
	require.NoError(t, err)

	user := rec.(*models.User)
	assert.NotZero(t, user.ID)
	require.Len(t, user.Roles, 1, "synced relation is reloaded on the response")
	assert.Equal(t, "admin", user.Roles[0].Name)
	require.NotNil(t, user.AddressesCount)
	assert.EqualValues(t, 1, *user.AddressesCount)
	assert.EqualValues(t, 1, addressCount(t, db, user.ID))
}

func TestServiceCreateHashesPassword(t *testing.T) {
	db := openTestDB(t)
	svc := crud.NewService(db, &models.User{})

	rec, err := svc.Create(context.Background(), map[string]any{
		"name": "alice", "email": "alice@example.com", "password": "plaintext",
	}, crud.Options{})
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, db.First(&stored, rec.(*models.User).ID).Error)
	assert.NotEqual(t, "plaintext", stored.Password)
	assert.Contains(t, stored.Password, "$2")
}

func TestServiceCreateRejectsEmptyPayload(t *testing.T) {
	db := openTestDB(t)
	svc := crud.NewService(db, &models.User{})

	_, err := svc.Create(context.Background(), map[string]any{"bogus": "x"}, crud.Options{})
	assert.ErrorIs(t, err, crud.ErrNoWritableFields)
}

// A failing relation sync must roll back the primary row written in
// the same call.
func TestServiceCreateRollsBackOnSyncFailure(t *testing.T) {
	db := openTestDB(t)
	svc := crud.NewService(db, &models.User{})

	_, err := svc.Create(context.Background(), map[string]any{
		"name":     "alice",
		"email":    "alice@example.com",
		"password": "secret",
		"role_ids": []any{int64(9999)},
	}, crud.Options{})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "alice@example.com").Count(&count).Error)
	assert.Zero(t, count, "primary row must not survive a failed sync")
}

func TestServiceUpdateNotModified(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice", "alice@example.com")
	svc := crud.NewService(db, &models.User{})

	_, err := svc.Update(context.Background(), user.ID, map[string]any{
		"name":  "alice",
		"email": "alice@example.com",
	}, crud.Options{})
	require.Error(t, err)
	assert.True(t, crud.IsKind(err, crud.KindNotModified))
}

// Identical scalars with a differing relation set is a real change and
// must not surface as NotModified.
func TestServiceUpdateRelationOnlyChange(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice", "alice@example.com")
	role := seedRole(t, db, "admin")
	svc := crud.NewService(db, &models.User{})

	rec, err := svc.Update(context.Background(), user.ID, map[string]any{
		"name":     "alice",
		"role_ids": []any{role.ID},
	}, crud.Options{})
	require.NoError(t, err)
	require.Len(t, rec.(*models.User).Roles, 1)

	// same scalars, same relation set: now a genuine no-op
	_, err = svc.Update(context.Background(), user.ID, map[string]any{
		"name":     "alice",
		"role_ids": []any{role.ID},
	}, crud.Options{})
	assert.True(t, crud.IsKind(err, crud.KindNotModified))
}

func TestServiceUpdateDetachAll(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice", "alice@example.com")
	role := seedRole(t, db, "admin")
	svc := crud.NewService(db, &models.User{})

	_, err := svc.Update(context.Background(), user.ID, map[string]any{"role_ids": []any{role.ID}}, crud.Options{})
	require.NoError(t, err)

	// an explicitly empty list means detach everything
	rec, err := svc.Update(context.Background(), user.ID, map[string]any{"role_ids": []any{}}, crud.Options{})
	require.NoError(t, err)
	assert.Empty(t, rec.(*models.User).Roles)
	assert.Empty(t, pivotRoleIDs(t, db, user.ID))
}

// Updates never create one-to-many children; repeating an update with
// a child payload must not multiply rows.
func TestServiceUpdateDoesNotCreateChildren(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice", "alice@example.com")
	svc := crud.NewService(db, &models.User{})

	_, err := svc.Update(context.Background(), user.ID, map[string]any{
		"name":      "alicia",
		"addresses": []any{map[string]any{"name": "Home", "city": "Springfield"}},
	}, crud.Options{})
	require.NoError(t, err)
	assert.Zero(t, addressCount(t, db, user.ID))
}

func TestServiceUpdateNotFound(t *testing.T) {
	db := openTestDB(t)
	svc := crud.NewService(db, &models.User{})

	_, err := svc.Update(context.Background(), 999, map[string]any{"name": "x"}, crud.Options{})
	assert.True(t, crud.IsKind(err, crud.KindNotFound))
}

func TestServiceFirstOrCreate(t *testing.T) {
	db := openTestDB(t)
	existing := seedUser(t, db, "alice", "alice@example.com")
	svc := crud.NewService(db, &models.User{})

	rec, err := svc.FirstOrCreate(context.Background(),
		map[string]any{"email": "alice@example.com"},
		map[string]any{"name": "other", "password": "secret"},
		crud.Options{})
	require.NoError(t, err)
	found := rec.(*models.User)
	assert.Equal(t, existing.ID, found.ID)
	assert.Equal(t, "alice", found.Name, "a match returns the stored row untouched")

	rec, err = svc.FirstOrCreate(context.Background(),
		map[string]any{"email": "bob@example.com"},
		map[string]any{"name": "bob", "password": "secret"},
		crud.Options{})
	require.NoError(t, err)
	created := rec.(*models.User)
	assert.NotEqual(t, existing.ID, created.ID)
	assert.Equal(t, "bob", created.Name)
}

// Child creation runs on the create branch only; a match-and-update
// with the same child payload must not duplicate children.
func TestServiceUpdateOrCreateChildCreation(t *testing.T) {
	db := openTestDB(t)
	svc := crud.NewService(db, &models.User{})
	childPayload := []any{map[string]any{"name": "Home", "city": "Springfield"}}

	rec, err := svc.UpdateOrCreate(context.Background(),
		map[string]any{"email": "alice@example.com"},
		map[string]any{"name": "alice", "password": "secret", "addresses": childPayload},
		crud.Options{})
	require.NoError(t, err)
	user := rec.(*models.User)
	assert.EqualValues(t, 1, addressCount(t, db, user.ID), "create branch creates children")

	rec, err = svc.UpdateOrCreate(context.Background(),
		map[string]any{"email": "alice@example.com"},
		map[string]any{"name": "renamed", "addresses": childPayload},
		crud.Options{})
	require.NoError(t, err)
	updated := rec.(*models.User)
	assert.Equal(t, user.ID, updated.ID)
	assert.Equal(t, "renamed", updated.Name)
	assert.EqualValues(t, 1, addressCount(t, db, user.ID), "update branch must not create children")
}

func TestServiceUpdateOrCreateNotModified(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "alice", "alice@example.com")
	svc := crud.NewService(db, &models.User{})

	_, err := svc.UpdateOrCreate(context.Background(),
		map[string]any{"email": "alice@example.com"},
		map[string]any{"name": "alice"},
		crud.Options{})
	assert.True(t, crud.IsKind(err, crud.KindNotModified))
}

func TestServiceInsert(t *testing.T) {
	db := openTestDB(t)
	svc := crud.NewService(db, &models.Role{})

	recs, err := svc.Insert(context.Background(), []map[string]any{
		{"name": "admin", "description": "full access"},
		{"name": "viewer"},
	}, crud.Options{})
	require.NoError(t, err)
	require.Len(t, recs.([]any), 2)

	var count int64
	require.NoError(t, db.Model(&models.Role{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestServiceInsertAbortsAtomically(t *testing.T) {
	db := openTestDB(t)
	svc := crud.NewService(db, &models.Role{})

	_, err := svc.Insert(context.Background(), []map[string]any{
		{"name": "admin"},
		{"name": "admin"}, // duplicate name
	}, crud.Options{})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Role{}).Count(&count).Error)
	assert.Zero(t, count, "mid-batch failure rolls back the whole batch")
}

func TestServiceDeleteMultipleSanitizesIDs(t *testing.T) {
	db := openTestDB(t)
	r1 := seedRole(t, db, "a")
	r2 := seedRole(t, db, "b")
	seedRole(t, db, "c")
	svc := crud.NewService(db, &models.Role{})

	deleted, err := svc.DeleteMultiple(context.Background(), []any{
		float64(r1.ID), strconv.FormatInt(r2.ID, 10), float64(-5), "abc", nil,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	deleted, err = svc.DeleteMultiple(context.Background(), []any{"abc", float64(0)})
	require.NoError(t, err)
	assert.Zero(t, deleted, "entirely invalid id list is a no-op")
}

func TestServiceRestore(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice", "alice@example.com")
	addr := seedAddress(t, db, user.ID, "Springfield")
	svc := crud.NewService(db, &models.Address{})

	require.NoError(t, svc.Delete(context.Background(), addr.ID))

	rec, err := svc.Restore(context.Background(), addr.ID, map[string][]string{"with": {"user"}})
	require.NoError(t, err)
	restored := rec.(*models.Address)
	assert.Equal(t, "Springfield", restored.City)
	require.NotNil(t, restored.User)
	assert.Equal(t, "alice", restored.User.Name)
}
