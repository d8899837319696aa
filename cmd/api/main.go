package main

import (
	"context"
	"log"

	"agent-rating-service/cmd/api/app"
	"agent-rating-service/cmd/api/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application exited with error: %v", err)
	}
}

func run() error {
	ctx, cancel := server.WithSignal(context.Background())
	defer cancel()

	a, err := app.New()
	if err != nil {
		return err
	}

	return a.Run(ctx)
}
