package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sitedesk/backend/internal/config"
	"github.com/sitedesk/backend/internal/models"
	"github.com/sitedesk/backend/internal/router"
)

func main() {
	// Run in release mode unless GIN_MODE overrides it
	ginMode, ok := os.LookupEnv("GIN_MODE")
	if !ok {
		ginMode = "release"
	}
	gin.SetMode(ginMode)

	// Logs are JSON by default. LOG_FORMAT=human switches to the console
	// writer, debug mode does so too when LOG_FORMAT is unset.
	logFormat, ok := os.LookupEnv("LOG_FORMAT")
	output := io.Writer(os.Stdout)
	if (!ok && gin.IsDebugging()) || (ok && logFormat == "human") {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	config.Load()

	// Create the data directory for the sqlite database
	err := os.MkdirAll(filepath.Dir(config.AppConfig.DBPath), os.ModePerm)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	if err := models.Connect(config.AppConfig.DBPath); err != nil {
		log.Fatal().Msg(err.Error())
	}

	r, teardown, err := router.Config()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	defer teardown()

	router.AttachRoutes(r.Group("/"))

	if err := r.Run(config.AppConfig.ListenAddress); err != nil {
		log.Fatal().Msg(err.Error())
	}
}
