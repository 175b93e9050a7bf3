package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	radardist "github.com/DynamicDevices/radar-distance"
)

func main() {
	monitor, err := radardist.Conf("../../config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := monitor.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("monitor exited: %v", err)
	}
}
