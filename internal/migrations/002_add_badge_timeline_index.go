package migrations

import (
	"gorm.io/gorm"
)

// Migration002AddBadgeTimelineIndex serves the ordered badge list on the profile.
func Migration002AddBadgeTimelineIndex() Migration {
	return Migration{
		ID:        "002_add_badge_timeline_index",
		Name:      "Add (user_id, unlocked_at) index on user_badges",
		DependsOn: []string{"001_add_activity_feed_index"},
		Up: func(db *gorm.DB) error {
			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_user_badges_user_unlocked
				ON user_badges (user_id, unlocked_at)
			`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP INDEX IF EXISTS idx_user_badges_user_unlocked`).Error
		},
	}
}
