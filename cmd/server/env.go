package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Environment struct {
	Environment    string
	ServerAddress  string
	SecretKey      string
	DatabaseURL    string
	MigrationsPath string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string

	AladhanURL    string
	AthanMethod   string
	NominatimURL  string
	RecomputeNext bool
}

// LoadEnvironment reads and validates env vars. A local .env file is loaded
// first when present.
func LoadEnvironment() Environment {
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("loaded .env file")
	}

	env := Environment{
		Environment:   os.Getenv("APP_ENV"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SecretKey:     os.Getenv("JWT_SECRET"),
		ServerAddress: os.Getenv("SERVER_ADDRESS"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),

		AladhanURL:    os.Getenv("ALADHAN_URL"),
		AthanMethod:   os.Getenv("ATHAN_METHOD"),
		NominatimURL:  os.Getenv("NOMINATIM_URL"),
		RecomputeNext: os.Getenv("RECOMPUTE_NEXT_ON_TICK") == "true",
	}

	if env.ServerAddress == "" {
		env.ServerAddress = ":8080"
	}
	if env.MigrationsPath == "" {
		env.MigrationsPath = "./migrations"
	}

	if env.DatabaseURL == "" || env.SecretKey == "" {
		log.Fatal().Msg("missing required environment variables")
	}

	return env
}
