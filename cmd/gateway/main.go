package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ethnicdev/gatehouse/internal/gateway/app"
)

func main() {
	configPath := pflag.StringP("config", "c", os.Getenv("GATEWAY_CONFIG"), "path to the gateway YAML config")
	port := pflag.IntP("port", "p", 0, "listen port, overrides config and PORT")
	identityURL := pflag.String("identity-url", "", "identity service base URL, overrides config")
	pflag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *identityURL != "" {
		cfg.Identity.URL = *identityURL
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
