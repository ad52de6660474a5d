package app

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		UserIDHeader     string `toml:"user_id_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
	} `toml:"auth"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Engine struct {
		ChallengeTournamentID string  `toml:"challenge_tournament_id"`
		TieTolerance          float64 `toml:"tie_tolerance"`
	} `toml:"engine"`

	Leaderboard struct {
		RedisURL string   `toml:"redis_url"`
		CacheTTL Duration `toml:"cache_ttl"`
	} `toml:"leaderboard"`

	Export []ExportConfig `toml:"export"`
}

// ExportConfig describes one spreadsheet that receives a tournament's standings.
type ExportConfig struct {
	TournamentID    string `toml:"tournament_id"`
	Schedule        string `toml:"schedule"`
	CredentialsPath string `toml:"credentials_path"`
	SheetID         string `toml:"sheet_id"`
	SheetName       string `toml:"sheet_name"`
	StartCell       string `toml:"start_cell"`
	TimestampCell   string `toml:"timestamp_cell"`
}

// Duration reads values like "30s" or "5m" from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

const (
	envDatabaseDSN = "BATTLE_DATABASE_DSN"
	envRedisURL    = "BATTLE_REDIS_URL"
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("No .env file loaded: %v", err)
	}
	config.applyEnv()

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}
	if config.Database.DSN == "" {
		return nil, fmt.Errorf("database dsn is not specified, set [database].dsn or %s", envDatabaseDSN)
	}
	if config.Database.MigrationsDir == "" {
		config.Database.MigrationsDir = "./migrations"
	}
	if config.Auth.UserIDHeader == "" {
		config.Auth.UserIDHeader = "X-User-Id"
	}
	if config.Auth.TokenHeader == "" {
		config.Auth.TokenHeader = "Authorization"
	}
	if config.Engine.TieTolerance < 0 {
		return nil, fmt.Errorf("engine.tie_tolerance must not be negative, got %v", config.Engine.TieTolerance)
	}

	logger.Debug.Printf("Loaded engine config: %+v", config.Engine)

	return &config, nil
}

func (c *Config) applyEnv() {
	if dsn := os.Getenv(envDatabaseDSN); dsn != "" {
		c.Database.DSN = dsn
	}
	if url := os.Getenv(envRedisURL); url != "" {
		c.Auth.RedisURL = url
		c.Leaderboard.RedisURL = url
	}
}
