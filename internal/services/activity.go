package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// ActivityPublisher streams activity events to downstream consumers.
type ActivityPublisher interface {
	Publish(ctx context.Context, activity models.UserActivity) error
	Close() error
}

// Publisher is nil unless KAFKA_BROKERS is configured.
var Publisher ActivityPublisher

type KafkaActivityPublisher struct {
	writer *kafka.Writer
}

func NewKafkaActivityPublisher(brokers, topic string) *KafkaActivityPublisher {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	return &KafkaActivityPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(addrs...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaActivityPublisher) Publish(ctx context.Context, activity models.UserActivity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(activity.ActorID),
		Value: payload,
		Time:  activity.CreatedAt,
	})
}

func (p *KafkaActivityPublisher) Close() error {
	return p.writer.Close()
}

func LogActivity(actorID string, activityType models.ActivityType, targetID string, message string) {
	activity := models.UserActivity{
		Type:      activityType,
		ActorID:   actorID,
		TargetID:  targetID,
		Message:   message,
		CreatedAt: time.Now(),
	}

	if err := database.DB.Create(&activity).Error; err != nil {
		logger.Error().Err(err).Str("type", string(activityType)).Msg("Failed to log activity")
		return
	}

	if Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := Publisher.Publish(ctx, activity); err != nil {
		logger.Warn().Err(err).Str("type", string(activityType)).Msg("Failed to publish activity")
	}
}

// RecentActivity returns a user's latest activity, newest first.
func RecentActivity(userID string, limit int) ([]models.UserActivity, error) {
	var items []models.UserActivity
	err := database.DB.Where("actor_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&items).Error
	return items, err
}
