package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"worker-discovery/internal/common/config"
	"worker-discovery/internal/common/database"
	"worker-discovery/internal/common/logger"
	"worker-discovery/internal/discovery/weights"
)

func main() {
	file := flag.String("file", "", "Weight-set JSON document (ranking.Config fields)")
	version := flag.String("version", "", "Version label to publish under")
	dryRun := flag.Bool("dry-run", false, "Validate the document without writing it")
	flag.Parse()

	log := logger.NewStructured("info", "console")

	if *file == "" || *version == "" {
		fmt.Println("Usage: weights-publisher -file weights.json -version tuned-2024-06 [-dry-run]")
		os.Exit(1)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Error("failed to read weight set", map[string]interface{}{"file": *file, "error": err.Error()})
		os.Exit(1)
	}
	cfg, err := weights.Decode(*version, raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Error("weight set rejected", map[string]interface{}{"version": *version, "error": err.Error()})
		os.Exit(1)
	}
	if *dryRun {
		log.Info("weight set is valid", map[string]interface{}{"version": *version})
		return
	}

	appCfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := database.NewPostgres(appCfg.Database.Postgres)
	if err != nil {
		log.Error("postgres open failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		log.Error("schema setup failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if err := weights.NewPostgresStore(pg.DB).Publish(ctx, cfg); err != nil {
		log.Error("publish failed", map[string]interface{}{"version": *version, "error": err.Error()})
		os.Exit(1)
	}
	log.Info("weight set published", map[string]interface{}{"version": *version})

	if appCfg.Database.Redis.Address == "" {
		log.Warn("redis not configured; replicas switch once their marker expires", map[string]interface{}{
			"version": *version,
		})
		return
	}
	rdb, err := database.NewRedis(appCfg.Database.Redis)
	if err != nil {
		log.Error("redis setup failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer rdb.Close()

	ttl := config.GetDuration(appCfg.Ranking.WeightsCacheTTL)
	if err := weights.Announce(ctx, rdb.Client, *version, ttl); err != nil {
		log.Error("weight set published but not announced", map[string]interface{}{
			"version": *version,
			"error":   err.Error(),
		})
		os.Exit(1)
	}
	log.Info("weight set announced", map[string]interface{}{"version": *version})
}
