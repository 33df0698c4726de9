package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"vrproute/internal/cli"
)

func main() {
	_ = godotenv.Load()
	// Solve logs are only wanted when debugging; stdout carries the answer.
	if os.Getenv("VRP_DEBUG") == "" {
		log.SetOutput(io.Discard)
	}
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}
