package main

import (
	"context"
	"log"

	"cancelflow-be/internal/analytics"
	"cancelflow-be/internal/bootstrap"
	"cancelflow-be/internal/config"
	"cancelflow-be/internal/server"
	"cancelflow-be/internal/tracer"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Panicf("Unable to bootstrap application: %v", err)
	}

	// 3. Start Background Services
	go func() {
		log.Println("Background: Starting Analytics Sink...")
		if err := analytics.RunSink(context.Background(), container.PubSub, container.Logger); err != nil {
			log.Printf("Background Analytics Error: %v", err)
		}
	}()

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
