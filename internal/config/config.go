package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration values.
type Config struct {
	AppEnv         string
	HTTPPort       string
	GRPCPort       string
	DBDriver       string
	DatabaseDSN    string
	DBMaxOpenConns int
	Secret         string
	TokenTTLHours  int
	AdminEmail     string
	AdminPassword  string
	CORSOrigins    []string
	LogLevel       string
	SeedProducts   string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	cfg := Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		GRPCPort:       os.Getenv("GRPC_PORT"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseDSN:    os.Getenv("DATABASE_DSN"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
		Secret:         getEnv("SECRET", "dev_secret"),
		TokenTTLHours:  getEnvInt("TOKEN_TTL_HOURS", 24),
		AdminEmail:     getEnv("ADMIN_EMAIL", "admin@shopkeep.local"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", "admin"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SeedProducts:   os.Getenv("SEED_PRODUCTS_CSV"),
	}

	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = defaultDSN(cfg.DBDriver)
	}

	// Validate that ports are numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}
	if cfg.GRPCPort != "" {
		if _, err := strconv.Atoi(cfg.GRPCPort); err != nil {
			log.Printf("invalid GRPC_PORT value %q, gRPC server disabled", cfg.GRPCPort)
			cfg.GRPCPort = ""
		}
	}

	return cfg
}

// IsDevelopment reports whether the process runs with developer defaults.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func defaultDSN(driver string) string {
	switch driver {
	case "postgres":
		host := getEnv("HOST", "localhost")
		user := getEnv("USER", "postgres")
		dbPort := getEnv("PORT", "5432")
		name := getEnv("NAME", "shopkeep")
		password := os.Getenv("PASSWORD")
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, dbPort, name)
	case "mysql":
		host := getEnv("HOST", "localhost")
		user := getEnv("USER", "root")
		dbPort := getEnv("PORT", "3306")
		name := getEnv("NAME", "shopkeep")
		password := os.Getenv("PASSWORD")
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, password, host, dbPort, name)
	default:
		return "shopkeep.db"
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("invalid %s value %q, defaulting to %d", key, raw, fallback)
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
