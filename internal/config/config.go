package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"hunter/internal/models"
)

// fileConfig mirrors the optional YAML config file. Every field overrides the
// corresponding environment variable when set.
type fileConfig struct {
	Port         string `yaml:"port"`
	DBPath       string `yaml:"db_path"`
	WebDir       string `yaml:"web_dir"`
	ScannerURL   string `yaml:"scanner_url"`
	AdminUser    string `yaml:"admin_user"`
	AdminPass    string `yaml:"admin_pass"`
	AuthEnabled  *bool  `yaml:"auth_enabled"`
	FeedInterval string `yaml:"feed_interval"`
}

// Load returns the server configuration from environment variables, then
// applies the YAML file named by HUNTER_CONFIG (if any) on top.
func Load() models.Config {
	cfg := models.Config{
		Port:         getEnv("PORT", "9080"),
		DBPath:       getEnv("DB_PATH", "hunter.db"),
		WebDir:       getEnv("WEB_DIR", "./web"),
		ScannerURL:   getEnv("SCANNER_URL", "http://127.0.0.1:5001"),
		AdminUser:    getEnv("ADMIN_USER", "admin"),
		AdminPass:    getEnv("ADMIN_PASS", ""),
		AuthEnabled:  getEnv("AUTH_ENABLED", "true") == "true",
		FeedInterval: getDuration("FEED_INTERVAL_SECONDS", 3),
	}

	if path := os.Getenv("HUNTER_CONFIG"); path != "" {
		applyFile(&cfg, path)
	}
	return cfg
}

func applyFile(cfg *models.Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠️  Could not read config file %s: %v", path, err)
		return
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		log.Printf("⚠️  Could not parse config file %s: %v", path, err)
		return
	}

	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.WebDir != "" {
		cfg.WebDir = fc.WebDir
	}
	if fc.ScannerURL != "" {
		cfg.ScannerURL = fc.ScannerURL
	}
	if fc.AdminUser != "" {
		cfg.AdminUser = fc.AdminUser
	}
	if fc.AdminPass != "" {
		cfg.AdminPass = fc.AdminPass
	}
	if fc.AuthEnabled != nil {
		cfg.AuthEnabled = *fc.AuthEnabled
	}
	if fc.FeedInterval != "" {
		if d, err := time.ParseDuration(fc.FeedInterval); err == nil && d > 0 {
			cfg.FeedInterval = d
		}
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallbackSeconds int) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(fallbackSeconds) * time.Second
}
