package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"gorm.io/gorm"
)

var ErrDailyQuotaExhausted = errors.New("daily quota exhausted")

// Today returns the quota date for now in the server's local calendar.
func Today(now time.Time) string {
	return now.Format(models.QuotaDateLayout)
}

// GetOrCreateUser returns the user with the given email, creating it on first
// sight. The returned bool is true when the user was created.
func GetOrCreateUser(email, provider, name string) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, errors.New("email is required")
	}
	if provider == "" {
		provider = "email"
	}

	var user models.User
	err := database.DB.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	user = models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		AuthProvider: provider,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		// Lost a race with a concurrent login for the same email.
		if findErr := database.DB.Where("email = ?", email).First(&user).Error; findErr == nil {
			return &user, false, nil
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return &user, true, nil
}

func GetUser(userID string) (*models.User, error) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ReconcileDailyQuota resets the counter when the stored quota date is not
// today. It is a no-op on every later call for the same date.
func ReconcileDailyQuota(userID, today string) error {
	err := database.DB.Model(&models.User{}).
		Where("id = ? AND (quota_date IS NULL OR quota_date <> ?)", userID, today).
		Updates(map[string]interface{}{
			"daily_quota_used": 0,
			"quota_date":       today,
		}).Error
	if err != nil {
		return fmt.Errorf("reconcile daily quota: %w", err)
	}
	return nil
}

// ConsumeDailyQuota reconciles and then spends one generation. The increment
// is conditional on the counter being under limit, so concurrent requests can
// never push it past the limit.
func ConsumeDailyQuota(userID, today string, limit int) error {
	if err := ReconcileDailyQuota(userID, today); err != nil {
		return err
	}

	res := database.DB.Model(&models.User{}).
		Where("id = ? AND quota_date = ? AND daily_quota_used < ?", userID, today, limit).
		Update("daily_quota_used", gorm.Expr("daily_quota_used + 1"))
	if res.Error != nil {
		return fmt.Errorf("consume daily quota: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := GetUser(userID); err != nil {
			return err
		}
		return ErrDailyQuotaExhausted
	}
	return nil
}

// RemainingDaily is the number of generations left for today.
func RemainingDaily(user *models.User, today string, limit int) int {
	if user.QuotaDate != today {
		return limit
	}
	if left := limit - user.DailyQuotaUsed; left > 0 {
		return left
	}
	return 0
}

// DailyQuotaStatus reconciles and returns the fresh user with today's remaining count.
func DailyQuotaStatus(userID, today string, limit int) (*models.User, int, error) {
	if err := ReconcileDailyQuota(userID, today); err != nil {
		return nil, 0, err
	}
	user, err := GetUser(userID)
	if err != nil {
		return nil, 0, err
	}
	return user, RemainingDaily(user, today, limit), nil
}

// MarkSolved credits one solved question and xp experience points.
func MarkSolved(userID string, xp int) (*models.User, error) {
	res := database.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"xp":               gorm.Expr("xp + ?", xp),
			"questions_solved": gorm.Expr("questions_solved + 1"),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("mark solved: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetUser(userID)
}

// ResetAllDailyQuotas clears every user's counter. Used by the maintenance command.
func ResetAllDailyQuotas(today string) (int64, error) {
	res := database.DB.Model(&models.User{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			"daily_quota_used": 0,
			"quota_date":       today,
		})
	return res.RowsAffected, res.Error
}
