package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fixtureaudit/config"
	"fixtureaudit/engine"
	"fixtureaudit/store"
	"fixtureaudit/www"
)

func main() {
	configPath := flag.String("config", "fixtureaudit.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *port > 0 {
		cfg.Web.Port = *port
	}

	// Open stores
	registry, err := store.OpenRegistry(cfg.MasterPath)
	if err != nil {
		log.Fatalf("open master registry: %v", err)
	}
	history := store.NewHistory(cfg.HistoryPath)
	evidence, err := store.NewEvidence(cfg.ImagesDir)
	if err != nil {
		log.Fatalf("open evidence store: %v", err)
	}

	// Create and start engine
	eng, err := engine.New(engine.Config{
		AppConfig: cfg,
		Registry:  registry,
		History:   history,
		Evidence:  evidence,
		LogFunc:   log.Printf,
		Debug:     *debug,
	})
	if err != nil {
		log.Fatalf("create engine: %v", err)
	}
	eng.Start()

	// Set up HTTP server
	router, stopWeb := www.NewRouter(eng)
	defer stopWeb()

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Printf("Fixture Audit listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	// Stop SSE event hub first so long-lived connections close
	stopWeb()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}
