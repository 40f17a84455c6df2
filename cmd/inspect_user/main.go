// Command inspect_user prints a user's progress and quota counters.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/config"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/services"
)

func main() {
	email := flag.String("email", "", "user email (required)")
	flag.Parse()
	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	config.LoadConfig()
	if err := database.Connect(); err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}

	var user models.User
	if err := database.DB.Where("email = ?", *email).First(&user).Error; err != nil {
		fmt.Fprintf(os.Stderr, "User %s not found: %v\n", *email, err)
		os.Exit(1)
	}

	today := services.Today(time.Now())
	fmt.Printf("User:        %s <%s> (ID: %s, provider: %s)\n", user.Name, user.Email, user.ID, user.AuthProvider)
	fmt.Printf("Joined:      %s\n", user.JoinedAt.Format(time.RFC3339))
	fmt.Printf("XP:          %d\n", user.XP)
	fmt.Printf("Solved:      %d\n", user.QuestionsSolved)
	fmt.Printf("Quota date:  %q (today %s)\n", user.QuotaDate, today)
	fmt.Printf("Quota used:  %d\n", user.DailyQuotaUsed)
	fmt.Printf("Remaining:   %d of %d\n", services.RemainingDaily(&user, today, config.AppConfig.DailyFreeQuota), config.AppConfig.DailyFreeQuota)

	badges, err := services.UserBadges(user.ID)
	if err == nil {
		fmt.Printf("Badges:      %d\n", len(badges))
		for _, b := range badges {
			fmt.Printf("  - %s (%s)\n", b.Badge.Name, b.UnlockedAt.Format("2006-01-02"))
		}
	}

	activity, err := services.RecentActivity(user.ID, 5)
	if err == nil && len(activity) > 0 {
		fmt.Println("Recent activity:")
		for _, a := range activity {
			fmt.Printf("  %s  %-18s %s\n", a.CreatedAt.Format("2006-01-02 15:04"), a.Type, a.Message)
		}
	}
}
