package users

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/staffmanager/internal/entities"
)

func newRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewRepository(db), db
}

func addUser(t *testing.T, db *gorm.DB, name string, role entities.UserRole) *entities.User {
	t.Helper()
	u := &entities.User{Username: name, Email: name + "@library.test", Role: role}
	require.NoError(t, db.Create(u).Error)
	return u
}

func roleOf(t *testing.T, db *gorm.DB, id uint) entities.UserRole {
	t.Helper()
	var u entities.User
	require.NoError(t, db.First(&u, id).Error)
	return u.Role
}

func TestListUsers_SortedByUsername(t *testing.T) {
	repo, db := newRepo(t)
	addUser(t, db, "zoe", entities.UserRoleStaff)
	addUser(t, db, "adam", entities.UserRoleAdmin)

	list, err := repo.ListUsers()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "adam", list[0].Username)
	assert.Equal(t, "zoe", list[1].Username)
}

func TestSetRole(t *testing.T) {
	repo, db := newRepo(t)
	admin := addUser(t, db, "admin", entities.UserRoleAdmin)
	clerk := addUser(t, db, "clerk", entities.UserRoleStaff)

	assert.ErrorIs(t, repo.SetRole(admin.ID, entities.UserRoleStaff), ErrLastAdmin)
	assert.Equal(t, entities.UserRoleAdmin, roleOf(t, db, admin.ID), "rolled back")

	require.NoError(t, repo.SetRole(admin.ID, entities.UserRoleAdmin), "no change is fine")

	require.NoError(t, repo.SetRole(clerk.ID, entities.UserRoleAdmin))
	require.NoError(t, repo.SetRole(admin.ID, entities.UserRoleStaff))
	assert.Equal(t, entities.UserRoleStaff, roleOf(t, db, admin.ID))

	assert.ErrorIs(t, repo.SetRole(admin.ID, entities.UserRole("Owner")), ErrInvalidRole)
	assert.ErrorIs(t, repo.SetRole(999, entities.UserRoleStaff), gorm.ErrRecordNotFound)
}

func TestDeleteUser(t *testing.T) {
	repo, db := newRepo(t)
	admin := addUser(t, db, "admin", entities.UserRoleAdmin)
	clerk := addUser(t, db, "clerk", entities.UserRoleStaff)

	assert.ErrorIs(t, repo.DeleteUser(admin.ID), ErrLastAdmin)
	roleOf(t, db, admin.ID)

	require.NoError(t, repo.DeleteUser(clerk.ID))
	var n int64
	require.NoError(t, db.Model(&entities.User{}).Where("id = ?", clerk.ID).Count(&n).Error)
	assert.Zero(t, n)
}
