// Command importer copies the legacy users.json, admins.json and channels.json
// files into the storage driver named in the config.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"telegram-reward-bot/internal/config"
	"telegram-reward-bot/internal/infra/logging"
	"telegram-reward-bot/internal/infra/store"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	from := flag.String("from", "/tmp", "directory holding the legacy JSON files")
	dryRun := flag.Bool("dry-run", false, "read and count without writing")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	src, err := store.Open(ctx, config.StorageConfig{Driver: "jsonfile", Dir: *from}, config.DatabaseConfig{}, logger)
	if err != nil {
		log.Fatalf("open legacy files: %v", err)
	}
	if cfg.Storage.Driver == "jsonfile" && cfg.Storage.Dir == *from {
		log.Fatalf("source and target are the same directory: %s", *from)
	}
	dst, err := store.Open(ctx, cfg.Storage, cfg.Database, logger)
	if err != nil {
		log.Fatalf("open target: %v", err)
	}
	defer func() { _ = dst.Close() }()

	rep, err := importLegacy(ctx, src, dst, *dryRun)
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	prefix := "imported"
	if *dryRun {
		prefix = "would import"
	}
	fmt.Printf("%s into %s: %d accounts, %d admins, %d channels (%d skipped)\n",
		prefix, dst.Driver, rep.Accounts, rep.Admins, rep.Channels, rep.Skipped)
}
