package config

import (
	"strings"
	"sync"
	"time"
)

const (
	TopicResumeUpload    = "resume-upload"
	TopicFeedbackRequest = "feedback-request"
)

type KafkaConfig struct {
	Brokers     []string
	GroupID     string
	Topics      []string
	PollTimeout time.Duration
}

var (
	kafkaConfig *KafkaConfig
	kafkaOnce   sync.Once
)

func LoadKafkaConfig() *KafkaConfig {
	kafkaOnce.Do(func() {
		v := env()
		v.SetDefault("KAFKA_BROKER", "localhost:9092")
		v.SetDefault("KAFKA_GROUP_ID", "aip")
		v.SetDefault("KAFKA_POLL_TIMEOUT", 100*time.Millisecond)

		var brokers []string
		for _, b := range strings.Split(v.GetString("KAFKA_BROKER"), ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		kafkaConfig = &KafkaConfig{
			Brokers:     brokers,
			GroupID:     v.GetString("KAFKA_GROUP_ID"),
			Topics:      []string{TopicResumeUpload, TopicFeedbackRequest},
			PollTimeout: v.GetDuration("KAFKA_POLL_TIMEOUT"),
		}
	})
	return kafkaConfig
}
