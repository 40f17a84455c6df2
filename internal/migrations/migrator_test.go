package migrations

import (
	"testing"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrator_RunIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewMigrator(db)

	require.NoError(t, m.Run())
	require.NoError(t, m.Run())

	var count int64
	db.Model(&MigrationRecord{}).Count(&count)
	assert.Equal(t, int64(len(GetMigrations())), count)
	assert.True(t, db.Migrator().HasIndex("user_activities", "idx_user_activities_actor_created"))
}

func TestMigrator_Rollback(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewMigrator(db)
	require.NoError(t, m.Run())

	require.NoError(t, m.Rollback())

	var count int64
	db.Model(&MigrationRecord{}).Count(&count)
	assert.Equal(t, int64(len(GetMigrations())-1), count)
	assert.False(t, db.Migrator().HasIndex("user_badges", "idx_user_badges_user_unlocked"))
}

func TestMigrator_Pending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewMigrator(db)

	pending, err := m.Pending()
	require.NoError(t, err)
	assert.Len(t, pending, len(GetMigrations()))

	require.NoError(t, m.Run())
	pending, err = m.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, m.Rollback())
	pending, err = m.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "002_add_badge_timeline_index", pending[0].ID)
}
