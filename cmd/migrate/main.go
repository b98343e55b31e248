package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/config"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("agrovetor-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		run(ctx, pool, "migrations", false)
	case "down":
		run(ctx, pool, filepath.Join("migrations", "down"), true)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// run executes every .sql file in dir, in name order, or reverse name order
// when reverse is set.
func run(ctx context.Context, pool *pgxpool.Pool, dir string, reverse bool) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		log.Fatalf("list %s: %v", dir, err)
	}
	slices.Sort(files)
	if reverse {
		slices.Reverse(files)
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		slog.Info("migration applied", "file", f)
	}

	slog.Info("migrations done", "dir", dir, "count", len(files))
}
