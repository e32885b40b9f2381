package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/db"
	"github.com/soundcue/soundcue/internal/engine"
	"github.com/soundcue/soundcue/internal/notify"
	"github.com/soundcue/soundcue/internal/redis"
	"github.com/soundcue/soundcue/internal/spotify"
)

func main() {
	// .env is optional; real deployments set vars directly
	_ = godotenv.Load()

	env := LoadEnvironment()

	if env.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init failed")
	}
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrations failed")
	}

	redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)

	store := db.NewStore(nil)

	player := spotify.NewClient(spotify.Config{
		ClientID:     env.SpotifyClientID,
		ClientSecret: env.SpotifyClientSecret,
		RedirectURI:  env.SpotifyRedirectURI,
	}, store, redis.NewTokenCache())

	var opts []engine.Option
	if env.MQTTBrokerURL != "" {
		notifier, err := notify.NewMQTTNotifier(env.MQTTBrokerURL, "soundcue-server")
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect failed")
		}
		defer notifier.Close()
		opts = append(opts, engine.WithNotifier(notifier))
	}

	eng := engine.New(store, player, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := engine.NewRunner(eng, env.PollInterval)
	if err := runner.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("could not start schedule polling")
	}
	defer runner.Stop()

	r := gin.Default()
	RegisterRoutes(r, env, store, player, eng)

	srv := &http.Server{Addr: env.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("address", env.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
