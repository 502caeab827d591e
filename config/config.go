package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// TrendConfig tunes the keyword trend scoring policy.
type TrendConfig struct {
	HalfLifeMinutes int     `yaml:"half_life_minutes"`
	Gain            float64 `yaml:"gain"`
	Threshold       float64 `yaml:"threshold"`
}

// DigestConfig tunes digest assembly.
type DigestConfig struct {
	MaxArticles int `yaml:"max_articles"`
}

// SearchConfig selects the Postgres text search configuration used for
// full-text queries. Must match the config the search_tsv column was
// generated with (see internal/migrate).
type SearchConfig struct {
	TextConfig string `yaml:"text_config"`
}

type Config struct {
	DB     DBConfig     `yaml:"db"`
	MQ     MQConfig     `yaml:"mq"`
	Redis  RedisConfig  `yaml:"redis"`
	Server ServerConfig `yaml:"server"`
	Trend  TrendConfig  `yaml:"trend"`
	Digest DigestConfig `yaml:"digest"`
	Search SearchConfig `yaml:"search"`
}

func Load() *Config {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode %s: %v", path, err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Trend.HalfLifeMinutes == 0 {
		cfg.Trend.HalfLifeMinutes = 360
	}
	if cfg.Trend.Gain == 0 {
		cfg.Trend.Gain = 0.2
	}
	if cfg.Trend.Threshold == 0 {
		cfg.Trend.Threshold = 0.7
	}
	if cfg.Digest.MaxArticles == 0 {
		cfg.Digest.MaxArticles = 20
	}
	if cfg.Search.TextConfig == "" {
		cfg.Search.TextConfig = "simple"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}
}
