package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/devscout-auth/pkg/config"
	"github.com/noah-isme/devscout-auth/pkg/database"
)

const createVersions = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func main() {
	var (
		dir     string
		timeout time.Duration
		dryRun  bool
	)
	flag.StringVar(&dir, "dir", "migrations", "Directory holding *.up.sql files")
	flag.DurationVar(&timeout, "timeout", time.Minute, "Overall timeout")
	flag.BoolVar(&dryRun, "dry-run", false, "List pending migrations without applying them")
	flag.Parse()

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if dbCfg.Driver != config.DriverPostgres {
		log.Fatalf("DB_DRIVER=%s has no schema to migrate", dbCfg.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	files, err := pendingFiles(dir)
	if err != nil {
		log.Fatalf("failed to list migrations: %v", err)
	}

	if _, err := db.ExecContext(ctx, createVersions); err != nil {
		log.Fatalf("failed to prepare schema_migrations: %v", err)
	}

	applied := 0
	for _, file := range files {
		version := strings.TrimSuffix(filepath.Base(file), ".up.sql")
		done, err := isApplied(ctx, db, version)
		if err != nil {
			log.Fatalf("failed to check %s: %v", version, err)
		}
		if done {
			continue
		}
		if dryRun {
			fmt.Printf("pending %s\n", version)
			continue
		}
		if err := apply(ctx, db, file, version); err != nil {
			log.Fatalf("failed to apply %s: %v", version, err)
		}
		fmt.Printf("applied %s\n", version)
		applied++
	}
	fmt.Printf("%d migration(s) applied\n", applied)
}

func pendingFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func isApplied(ctx context.Context, db *sqlx.DB, version string) (bool, error) {
	var exists bool
	err := db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version)
	return exists, err
}

func apply(ctx context.Context, db *sqlx.DB, file, version string) error {
	body, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return err
	}
	return tx.Commit()
}
