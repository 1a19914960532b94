package bootstrap

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort        string        `mapstructure:"SERVER_PORT"`
	RedisUrl          string        `mapstructure:"REDIS_URL"`
	LiveGameTTL       time.Duration `mapstructure:"LIVE_GAME_TTL"`
	MongoUri          string        `mapstructure:"MONGO_URI"`
	MongoDatabase     string        `mapstructure:"MONGO_DATABASE"`
	PostgresUrl       string        `mapstructure:"POSTGRES_URL"`
	ArchiveBackend    string        `mapstructure:"ARCHIVE_BACKEND"`
	AIServiceAddr     string        `mapstructure:"AI_SERVICE_ADDR"`
	AIListenAddr      string        `mapstructure:"AI_LISTEN_ADDR"`
	AITiersFile       string        `mapstructure:"AI_TIERS_FILE"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	LogFormat         string        `mapstructure:"LOG_FORMAT"`
	IsLocalCors       bool          `mapstructure:"LOCAL_CORS"`
	DefaultBoardSize  int           `mapstructure:"DEFAULT_BOARD_SIZE"`
	AllowedBoardSizes []int         `mapstructure:"ALLOWED_BOARD_SIZES"`
}

const (
	ArchiveMongo    = "mongo"
	ArchivePostgres = "postgres"
	ArchiveNone     = "none"
)

var defaults = map[string]any{
	"SERVER_PORT":         "8080",
	"REDIS_URL":           "localhost:6379",
	"LIVE_GAME_TTL":       "24h",
	"MONGO_URI":           "mongodb://localhost:27017",
	"MONGO_DATABASE":      "goban",
	"POSTGRES_URL":        "",
	"ARCHIVE_BACKEND":     ArchiveNone,
	"AI_SERVICE_ADDR":     "",
	"AI_LISTEN_ADDR":      ":8082",
	"AI_TIERS_FILE":       "",
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "json",
	"LOCAL_CORS":          false,
	"DEFAULT_BOARD_SIZE":  19,
	"ALLOWED_BOARD_SIZES": "9,13,19",
}

// Setup reads cfgPath (a .env style file) on top of the defaults. Environment
// variables win over both. A missing file is not an error.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		err := v.ReadInConfig()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
