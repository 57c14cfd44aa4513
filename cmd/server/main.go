package main

import (
	"log"

	"deposit-bot/internal/app"
	"deposit-bot/internal/logger"
)

func main() {
	server := app.NewServer()
	defer logger.Sync()
	log.Fatal(server.Start())
}
