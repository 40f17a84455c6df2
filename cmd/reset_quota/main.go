// Command reset_quota clears every user's daily generation counter, e.g.
// after an upstream outage burned quota on failed generations.
package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/config"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/services"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
)

func main() {
	email := flag.String("email", "", "reset only this user")
	yes := flag.Bool("yes", false, "skip the 3 second safety delay")
	flag.Parse()

	config.LoadConfig()
	logger.Init(config.AppConfig.Env, config.AppConfig.LogLevel)
	if err := database.Connect(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	today := services.Today(time.Now())

	if *email != "" {
		var user models.User
		if err := database.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(*email))).First(&user).Error; err != nil {
			logger.Fatal().Err(err).Str("email", *email).Msg("Failed to find user")
		}
		if err := database.DB.Model(&user).Updates(map[string]interface{}{
			"daily_quota_used": 0,
			"quota_date":       today,
		}).Error; err != nil {
			logger.Fatal().Err(err).Msg("Failed to reset quota")
		}
		fmt.Printf("Reset daily quota for %s\n", user.Email)
		return
	}

	if !*yes {
		fmt.Println("WARNING: this resets the daily quota of EVERY user.")
		fmt.Println("Proceeding in 3 seconds...")
		time.Sleep(3 * time.Second)
	}

	n, err := services.ResetAllDailyQuotas(today)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to reset quotas")
	}
	fmt.Printf("Reset daily quota for %d users\n", n)
}
