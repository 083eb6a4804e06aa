package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/yumyai/degview/cmd"
	"github.com/yumyai/degview/logger"
)

func main() {

	// Establish logger
	if err := logger.InitLogger(logger.ParseLevel(os.Getenv("DEGVIEW_LOG"))); err != nil {
		panic(err)
	}

	// Try load env
	dotenvErr := godotenv.Load()

	if dotenvErr != nil {
		logger.Warn("No .env found, using local environment")
	}

	defer logger.Sync() // Make sure that the buffered is flushed.

	cmd.Execute()
}
