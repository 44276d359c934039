package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/webpuppy/webhound-go/internal/api"
	"github.com/webpuppy/webhound-go/internal/api/middleware"
	"github.com/webpuppy/webhound-go/internal/config"
	"github.com/webpuppy/webhound-go/internal/setup"
	"github.com/webpuppy/webhound-go/internal/validation"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logger := log.Logger

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	cfg := setup.LoadConfig()

	rules, err := config.LoadRules()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load validation rules")
	}

	// Wire components
	store := api.NewStore(cfg.ProcessingDelay)
	handler := api.NewHandler(store, validation.NewValidator(rules), &logger)

	container := restful.NewContainer()
	container.Filter(middleware.Logger)
	container.Filter(middleware.RecoverPanic)
	api.RegisterRoutes(container, handler)

	// CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	addr := fmt.Sprintf(":%d", cfg.StubPort)
	log.Info().Str("address", addr).Dur("processing_delay", cfg.ProcessingDelay).Msg("Starting Webhound stub server")

	server := http.Server{
		Addr:    addr,
		Handler: corsHandler.Handler(container),
	}

	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
