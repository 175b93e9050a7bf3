package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	radardist "github.com/DynamicDevices/radar-distance"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "watch":
		err = watchCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("radar-monitor %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to monitor configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := radardist.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	monitor, err := radardist.NewMonitor(cfg)
	if err != nil {
		return fmt.Errorf("build monitor: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return monitor.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := radardist.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good: %d source(s)\n", *cfgPath, len(cfg.Sources))
	return nil
}

func watchCommand(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	url := fs.String("url", "http://localhost:8080/api/snapshot", "Snapshot API endpoint")
	interval := fs.Duration("interval", time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
			}
		}
	}
}

func printSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	var snap radardist.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return err
	}

	fmt.Printf("[t=%.1fs frozen=%v]", snap.Now, snap.Frozen)
	for id, view := range snap.Sources {
		last := "-"
		if s := view.LastSample; s != nil {
			if s.Presence {
				last = fmt.Sprintf("%.3fm", s.Distance)
			} else {
				last = "absent"
			}
		}
		fmt.Printf(" %s(%s)=%s status=%s points=%d", id, view.Tag, last, view.Status, len(view.Series))
	}
	fmt.Println()
	return nil
}

func printUsage() {
	fmt.Printf(`radar-monitor CLI

Usage:
  radar-monitor <command> [flags]

Commands:
  run        Start the monitor using the provided config
  validate   Load and validate a config file without starting the monitor
  watch      Poll the snapshot API and print live source states

Examples:
  radar-monitor run -config ./config.yaml
  radar-monitor validate -config ./config.yaml
  radar-monitor watch -url http://localhost:8080/api/snapshot -interval 1s
`)
}
