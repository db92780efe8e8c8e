package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/luminapos/backoffice/internal/app"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status")
	dir := flag.String("dir", "migrations", "goose migrations directory")
	flag.Parse()

	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	dbConn, err := sql.Open("pgx", cfg.PGDSN)
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		logger.Error("set dialect", slog.Any("error", err))
		os.Exit(1)
	}

	switch *cmd {
	case "up":
		err = goose.UpContext(ctx, dbConn, *dir)
	case "down":
		err = goose.DownContext(ctx, dbConn, *dir)
	case "status":
		err = goose.StatusContext(ctx, dbConn, *dir)
	default:
		logger.Error("unknown command", slog.String("cmd", *cmd))
		os.Exit(1)
	}
	if err != nil {
		logger.Error("migration failed", slog.String("cmd", *cmd), slog.Any("error", err))
		os.Exit(1)
	}
}
