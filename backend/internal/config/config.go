package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Scraping ScrapingConfig `yaml:"scraping"`
	Database DatabaseConfig `yaml:"database"`
	Importer ImporterConfig `yaml:"importer"`
	Leads    LeadsConfig    `yaml:"leads"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Admin    AdminConfig    `yaml:"admin"`
}

type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Debug    bool   `yaml:"debug"`
	Port     int    `yaml:"port"`
	Timezone string `yaml:"timezone"`
	SiteURL  string `yaml:"site_url"`
	APIURL   string `yaml:"api_url"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

type DatabaseConfig struct {
	URI         string `yaml:"uri"`
	Name        string `yaml:"name"`
	AssetBucket string `yaml:"asset_bucket"`
}

type ScrapingConfig struct {
	UserAgent        string        `yaml:"user_agent"`
	Timeout          time.Duration `yaml:"timeout"`
	KnownCities      []string      `yaml:"known_cities"`
	FallbackLocation string        `yaml:"fallback_location"`
}

type ImporterConfig struct {
	MaxExtraImages  int `yaml:"max_extra_images"`
	ReferenceLength int `yaml:"reference_length"`
}

type LeadsConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type AlertsConfig struct {
	Path string `yaml:"path"`
}

// AdminConfig guards the operator routes. Secret signs their bearer tokens; an empty
// secret locks them.
type AdminConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// Level is the effective log level; debug mode forces "debug".
func (a AppConfig) Level() string {
	if a.Debug {
		return "debug"
	}
	return a.LogLevel
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (a AppConfig) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(a.Timezone)
}

// DefaultMongoURI points at a single-node replica set; imports and bulk actions run in
// transactions, which a standalone server rejects.
const DefaultMongoURI = "mongodb://localhost:27017/?replicaSet=rs0"

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultCities are the towns the agency covers, matched against scraped titles in this order.
var DefaultCities = []string{
	"Orange", "Caderousse", "Piolenc", "Sérignan-du-Comtat", "Camaret-sur-Aigues",
	"Jonquières", "Courthézon", "Châteauneuf-du-Pape", "Mornas", "Mondragon",
	"Uchaux", "Travaillan", "Violès", "Sainte-Cécile-les-Vignes", "Bollène",
	"Avignon", "Carpentras",
}

// Default returns a configuration that runs without any file or environment.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:     "immo-sys",
			Env:      "development",
			Port:     8080,
			Timezone: "Europe/Paris",
			SiteURL:  "http://localhost:3000",
			APIURL:   "http://localhost:8080",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			URI:         DefaultMongoURI,
			Name:        "immo",
			AssetBucket: "assets",
		},
		Scraping: ScrapingConfig{
			UserAgent:        DefaultUserAgent,
			Timeout:          30 * time.Second,
			KnownCities:      append([]string(nil), DefaultCities...),
			FallbackLocation: "Vaucluse",
		},
		Importer: ImporterConfig{
			MaxExtraImages:  5,
			ReferenceLength: 8,
		},
		Alerts: AlertsConfig{Path: filepath.Join("data", "alerts.json")},
		Admin:  AdminConfig{TokenTTL: 12 * time.Hour},
	}
}

// LoadConfig reads configs/app.yaml and configs/scraping.yaml from dir (missing files keep
// the defaults) and then applies environment overrides, loading .env when present.
func LoadConfig(dir string) (*Config, error) {
	cfg := Default()

	// Carrega arquivo YAML base
	if err := loadYAML(filepath.Join(dir, "app.yaml"), cfg); err != nil {
		return nil, err
	}

	// Carrega configurações específicas de scraping
	if err := loadYAML(filepath.Join(dir, "scraping.yaml"), &cfg.Scraping); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(cfg)

	return cfg, cfg.Validate()
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Database.URI = getEnvAsString("MONGO_URI", cfg.Database.URI)
	cfg.Database.Name = getEnvAsString("MONGO_DB_NAME", cfg.Database.Name)
	cfg.App.Port = getEnvAsInt("PORT", cfg.App.Port)
	cfg.App.SiteURL = getEnvAsString("SITE_URL", cfg.App.SiteURL)
	cfg.App.APIURL = getEnvAsString("API_URL", cfg.App.APIURL)
	cfg.App.LogLevel = getEnvAsString("LOG_LEVEL", cfg.App.LogLevel)
	cfg.Leads.Endpoint = getEnvAsString("LEADS_ENDPOINT", cfg.Leads.Endpoint)
	cfg.Admin.Secret = getEnvAsString("ADMIN_SECRET", cfg.Admin.Secret)
}

// Validate reports configuration values no component can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("app.port %d out of range", c.App.Port))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Importer.MaxExtraImages < 0 {
		errs = append(errs, errors.New("importer.max_extra_images must be >= 0"))
	}
	if c.Importer.ReferenceLength < 4 {
		errs = append(errs, errors.New("importer.reference_length must be >= 4"))
	}
	if c.Admin.TokenTTL <= 0 {
		errs = append(errs, errors.New("admin.token_ttl must be positive"))
	}
	if _, err := c.App.Location(); err != nil {
		errs = append(errs, fmt.Errorf("app.timezone: %w", err))
	}
	c.App.SiteURL = strings.TrimRight(c.App.SiteURL, "/")
	c.App.APIURL = strings.TrimRight(c.App.APIURL, "/")
	return errors.Join(errs...)
}

func getEnvAsString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	v, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return v
}
