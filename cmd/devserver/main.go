package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/trashdash/trashdash-go/internal/devserver"
	"github.com/trashdash/trashdash-go/internal/logger"
)

func main() {
	_ = godotenv.Load(".env")

	logLevel := envOr("LOG_LEVEL", "info")
	logFormat := envOr("LOG_FORMAT", "console")
	logger.Init(logLevel, logFormat)
	log := logger.GetLogger()

	cfg := devserver.Config{
		Addr:      envOr("DEVSERVER_ADDR", ":8080"),
		DBPath:    envOr("DEVSERVER_DB", "trashdash-dev.sqlite"),
		JWTSecret: envOr("DEVSERVER_JWT_SECRET", "dev-only-secret"),
		Shape:     envOr("DEVSERVER_SHAPE", devserver.ShapeEnvelope),
	}

	srv, err := devserver.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start dev backend")
	}

	if err := srv.SeedAdmin(envOr("DEVSERVER_ADMIN_EMAIL", "admin@trashdash.com"),
		envOr("DEVSERVER_ADMIN_PASSWORD", "password123")); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin account")
	}

	if err := srv.Run(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("dev backend exited")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
