package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/keepsake/keepsake/internal/app"
	log "github.com/sirupsen/logrus"
)

func init() {
	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func main() {
	configPath := flag.String("config", "./config/application.yaml", "path to the YAML configuration file")
	dispatchNow := flag.Bool("dispatch-now", false, "send today's reminders once and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(ctx, *configPath)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if *dispatchNow {
		result, err := application.DispatchNow(ctx)
		if err != nil {
			log.Fatalf("dispatch failed: %v", err)
		}
		log.Infof("Dispatch finished, %d notifications sent", result.Count)
		return
	}

	if err := application.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
