package config

import (
	"log"
	"sync"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Name    string
	Env     string
	Debug   bool
	OpsPort string
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

// env returns a viper instance bound to the process environment.
func env() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		v := env()
		v.SetDefault("APP_NAME", "interview-worker")
		v.SetDefault("DEBUG", false)
		if v.GetString("APP_ENV") == "" {
			log.Printf("Warning: APP_ENV not set, defaulting to development")
			v.Set("APP_ENV", "development")
		}
		appConfig = &AppConfig{
			Name:    v.GetString("APP_NAME"),
			Env:     v.GetString("APP_ENV"),
			Debug:   v.GetBool("DEBUG"),
			OpsPort: v.GetString("OPS_PORT"),
		}
	})
	return appConfig
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
