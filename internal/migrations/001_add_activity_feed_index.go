package migrations

import (
	"gorm.io/gorm"
)

// Migration001AddActivityFeedIndex backs the profile activity feed:
// WHERE actor_id = ? ORDER BY created_at DESC LIMIT n
func Migration001AddActivityFeedIndex() Migration {
	return Migration{
		ID:   "001_add_activity_feed_index",
		Name: "Add (actor_id, created_at) index on user_activities",
		Up: func(db *gorm.DB) error {
			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_user_activities_actor_created
				ON user_activities (actor_id, created_at DESC)
			`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP INDEX IF EXISTS idx_user_activities_actor_created`).Error
		},
	}
}
