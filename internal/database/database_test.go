package database

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/soundshare-api/internal/config"
	"github.com/yukikurage/soundshare-api/internal/models"
	"github.com/yukikurage/soundshare-api/internal/utils"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func connectMemory(t *testing.T) {
	t.Helper()
	cfg := &config.Config{DBDriver: "sqlite", DBName: ":memory:"}
	require.NoError(t, Connect(cfg, quietLogger()))
	t.Cleanup(func() { SetDB(nil) })
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		d, err := Dialector(&config.Config{DBDriver: driver, DBName: ":memory:"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}

	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMigrateIsIdempotent(t *testing.T) {
	connectMemory(t)

	require.NoError(t, Migrate(quietLogger()))
	require.NoError(t, Migrate(quietLogger()))

	migrator := GetDB().Migrator()
	for _, idx := range compositeIndexes {
		assert.True(t, migrator.HasIndex(idx.table, idx.name), idx.name)
	}
	for _, model := range AllModels() {
		assert.True(t, migrator.HasTable(model))
	}
}

func TestScopes(t *testing.T) {
	connectMemory(t)
	require.NoError(t, Migrate(quietLogger()))
	db := GetDB()

	for _, login := range []string{"ann", "bob", "cat"} {
		require.NoError(t, db.Create(&models.User{
			Login:        login,
			Email:        login + "@example.com",
			PasswordHash: "x",
		}).Error)
	}
	require.NoError(t, db.Where("login = ?", "bob").Delete(&models.User{}).Error)

	var live, all []models.User
	require.NoError(t, db.Scopes(WithDeleted(false)).Find(&live).Error)
	require.NoError(t, db.Scopes(WithDeleted(true)).Find(&all).Error)
	assert.Len(t, live, 2)
	assert.Len(t, all, 3)

	var page []models.User
	err := db.Scopes(WithDeleted(true), Paginate(utils.PaginationParams{Page: 2, Limit: 2, Offset: 2})).
		Order("id ASC").
		Find(&page).Error
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "cat", page[0].Login)
}
