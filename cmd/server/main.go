package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hilaltech/miqat/internal/athan"
	"github.com/hilaltech/miqat/internal/db"
	"github.com/hilaltech/miqat/internal/geo"
	"github.com/hilaltech/miqat/internal/mqtt"
	"github.com/hilaltech/miqat/internal/redis"
	"github.com/hilaltech/miqat/internal/session"
)

func main() {
	env := LoadEnvironment()

	// initialize PostgreSQL
	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init failed")
	}

	// run pending migrations
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	store := db.NewStore()

	if env.RedisAddress != "" {
		redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)
	}

	// geocoding, cached in redis when available
	geocoder := geo.NewCachedGeocoder(
		geo.NewNominatimClient(env.NominatimURL),
		redis.Rdb,
		24*time.Hour,
	)

	method := 0
	if env.AthanMethod != "" {
		m, err := strconv.Atoi(env.AthanMethod)
		if err != nil {
			log.Fatal().Str("method", env.AthanMethod).Msg("ATHAN_METHOD must be numeric")
		}
		method = m
	}
	calculator := athan.NewAladhanClient(env.AladhanURL, method)

	// schedule pushes to paired screens are optional
	var publisher session.Publisher
	if env.MQTTBrokerURL != "" {
		p, err := mqtt.NewSchedulePublisher(env.MQTTBrokerURL, "miqat-server")
		if err != nil {
			log.Error().Err(err).Msg("mqtt unavailable, schedule pushes disabled")
		} else {
			publisher = p
			defer p.Close()
		}
	}

	sessions := session.NewManager(geocoder, calculator, publisher, session.Options{
		RecomputeOnTick: env.RecomputeNext,
	})
	defer sessions.StopAll()

	if env.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	RegisterRoutes(r, env, store, sessions, LoadTemplates())

	go func() {
		log.Info().Str("address", env.ServerAddress).Msg("listening")
		if err := r.Run(env.ServerAddress); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
}
