package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Session SessionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type StorageConfig struct {
	DataDir string
	Codec   string // "sealed" or "plain"
	Key     string // passphrase for the sealed codec
}

type SessionConfig struct {
	JwtSecret       string
	TokenTTLMinutes int
	ForceDownsell   bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "data"),
			Codec:   getEnv("STORAGE_CODEC", "sealed"),
			Key:     getEnv("STORAGE_KEY", "secure_db_key_2024"),
		},
		Session: SessionConfig{
			JwtSecret:       getEnv("JWT_SECRET", "default_secret"),
			TokenTTLMinutes: getEnvAsInt("SESSION_TOKEN_TTL_MINUTES", 30),
			ForceDownsell:   getEnvAsBool("FORCE_DOWNSELL", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
