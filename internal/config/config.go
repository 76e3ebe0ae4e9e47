package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yml"

const (
	RepositoryMongo    = "mongo"
	RepositoryPostgres = "postgres"
	RepositoryInMemory = "inmemory"
)

var repositoryTypes = []string{RepositoryMongo, RepositoryPostgres, RepositoryInMemory}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Repository RepositoryConfig `yaml:"repository"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // "mongo", "postgres" или "inmemory"
}

type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	Collection     string        `yaml:"collection"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	AutoMigrate    bool          `yaml:"auto_migrate"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RateLimitConfig struct {
	RPM int `yaml:"rpm"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "5000",
			Host:            "0.0.0.0",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Repository: RepositoryConfig{Type: RepositoryMongo},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017/task_tracker",
			Collection:     "tasks",
			ConnectTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConnections: 10,
			MinConnections: 2,
			IdleTimeout:    5 * time.Minute,
		},
		Logging:   LoggingConfig{Development: true},
		RateLimit: RateLimitConfig{RPM: 100},
	}
}

// Load читает .env, затем yml поверх значений по умолчанию, затем переменные окружения.
// Отсутствующий файл конфигурации не ошибка.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := cfg.decode(file); err != nil {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	err := yaml.NewDecoder(r).Decode(c)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REPOSITORY_TYPE"); v != "" {
		c.Repository.Type = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("LOG_DEVELOPMENT"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("неверное значение LOG_DEVELOPMENT %q: %w", v, err)
		}
		c.Logging.Development = dev
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("не задан server.port")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout должен быть больше нуля")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout должен быть больше нуля")
	}
	if !slices.Contains(repositoryTypes, c.Repository.Type) {
		return fmt.Errorf("неизвестный repository.type %q, ожидается один из %v", c.Repository.Type, repositoryTypes)
	}
	if c.Repository.Type == RepositoryMongo && c.Mongo.URI == "" {
		return errors.New("для mongo нужен mongo.uri или MONGO_URI")
	}
	if c.Repository.Type == RepositoryPostgres && c.Database.URL == "" {
		return errors.New("для postgres нужен database.url или DATABASE_URL")
	}
	if c.Database.MinConnections > c.Database.MaxConnections {
		return errors.New("database.min_connections больше max_connections")
	}
	if c.RateLimit.RPM < 0 {
		return errors.New("rate_limit.rpm не может быть отрицательным")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
