package seeds

import (
	"errors"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var SystemBadges = []models.Badge{
	{
		Name:        "Problem Solver",
		Description: "Solved your first practice problem.",
		Icon:        "check-circle",
		Condition:   models.ConditionSolved,
		Threshold:   1,
	},
	{
		Name:        "Apprentice Solver",
		Description: "Solved 5 practice problems.",
		Icon:        "zap",
		Condition:   models.ConditionSolved,
		Threshold:   5,
	},
	{
		Name:        "Algorithm Architect",
		Description: "Solved 25 practice problems.",
		Icon:        "shield-check",
		Condition:   models.ConditionSolved,
		Threshold:   25,
	},
	{
		Name:        "Rising Star",
		Description: "Earned 100 XP in the arena.",
		Icon:        "star",
		Condition:   models.ConditionXP,
		Threshold:   100,
	},
	{
		Name:        "Arena Veteran",
		Description: "Earned 500 XP in the arena.",
		Icon:        "sword",
		Condition:   models.ConditionXP,
		Threshold:   500,
	},
}

// SeedBadges inserts the system badges that do not exist yet. Safe to run on every boot.
func SeedBadges() error {
	created := 0
	for _, b := range SystemBadges {
		var existing models.Badge
		err := database.DB.Where("name = ?", b.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		b.ID = uuid.New().String()
		if err := database.DB.Create(&b).Error; err != nil {
			logger.Error().Err(err).Str("badge", b.Name).Msg("Failed to create badge")
			continue
		}
		created++
	}
	if created > 0 {
		logger.Info().Int("created", created).Msg("Seeded system badges")
	}
	return nil
}
