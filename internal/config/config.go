package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config comes from the environment (a local .env is honored when present).
// The datastore fields are accepted for parity with the deployment layout;
// the chat core never touches a datastore.
type Config struct {
	Port          string        `mapstructure:"PORT"`
	Environment   string        `mapstructure:"APP_ENV"`
	Secret        string        `mapstructure:"SECRET"`
	PingInterval  time.Duration `mapstructure:"PING_INTERVAL"`
	ClientTimeout time.Duration `mapstructure:"CLIENT_TIMEOUT"`
	RedisHost     string        `mapstructure:"REDIS_HOST"`
	RedisPortChat string        `mapstructure:"REDIS_PORT_CHAT"`
	MongoDbName   string        `mapstructure:"MONGO_DB_NAME"`
	MongoDbUrl    string        `mapstructure:"MONGO_DB_URL"`
}

func Get(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigFile(path + "/.env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PING_INTERVAL", "5s")
	v.SetDefault("CLIENT_TIMEOUT", "10s")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT_CHAT", "6379")

	// a missing .env is fine, the environment still applies
	if err := v.ReadInConfig(); err != nil {
		log.Debug().Err(err).Str("module", "config").Msg("no .env file, using environment only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
