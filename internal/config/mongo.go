package config

import (
	"sync"
	"time"
)

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

var (
	mongoConfig *MongoConfig
	mongoOnce   sync.Once
)

func LoadMongoConfig() *MongoConfig {
	mongoOnce.Do(func() {
		v := env()
		v.SetDefault("DB_URI", "mongodb://localhost:27017")
		v.SetDefault("DB_NAME", "automated_interview_platform_db")
		v.SetDefault("DB_COLLECTION", "users")
		v.SetDefault("DB_TIMEOUT", 10*time.Second)
		mongoConfig = &MongoConfig{
			URI:        v.GetString("DB_URI"),
			Database:   v.GetString("DB_NAME"),
			Collection: v.GetString("DB_COLLECTION"),
			Timeout:    v.GetDuration("DB_TIMEOUT"),
		}
	})
	return mongoConfig
}
