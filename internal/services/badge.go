package services

import (
	"fmt"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
)

// CheckBadges awards every badge whose threshold the user now meets and
// returns the newly unlocked ones.
func CheckBadges(userID string) ([]models.Badge, error) {
	var newBadges []models.Badge

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	var existingBadgeIDs []string
	database.DB.Model(&models.UserBadge{}).Where("user_id = ?", userID).Pluck("badge_id", &existingBadgeIDs)

	existingSet := make(map[string]bool)
	for _, id := range existingBadgeIDs {
		existingSet[id] = true
	}

	stats := map[models.BadgeCondition]int{
		models.ConditionSolved: user.QuestionsSolved,
		models.ConditionXP:     user.XP,
	}

	var systemBadges []models.Badge
	if err := database.DB.Find(&systemBadges).Error; err != nil {
		return nil, err
	}

	for _, badge := range systemBadges {
		if existingSet[badge.ID] {
			continue
		}

		progress, ok := stats[badge.Condition]
		if !ok || progress < badge.Threshold {
			continue
		}

		userBadge := models.UserBadge{
			UserID:     userID,
			BadgeID:    badge.ID,
			UnlockedAt: time.Now(),
		}
		if err := database.DB.Create(&userBadge).Error; err == nil {
			newBadges = append(newBadges, badge)
			LogActivity(userID, models.ActivityAchievement, badge.ID, fmt.Sprintf("Unlocked badge %s", badge.Name))
		}
	}

	return newBadges, nil
}

func UserBadges(userID string) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	err := database.DB.Preload("Badge").Where("user_id = ?", userID).Order("unlocked_at asc").Find(&badges).Error
	return badges, err
}
