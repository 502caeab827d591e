package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"newsbite/config"
	"newsbite/internal/migrate"
	"newsbite/pkg/db"
	"newsbite/pkg/logger"
)

const usage = `usage: migrate <command>

commands:
  upgrade [revision]    apply pending revisions (default: head)
  downgrade <revision>  roll back to revision ("base" unwinds everything)
  current               print the applied head revision
  history               print the revision chain
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logger.NewLogger()
	defer logger.Sync()

	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	engine, err := migrate.NewEngine(dbConn, logger)
	if err != nil {
		logger.Fatal("Revision chain invalid", zap.Error(err))
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "upgrade":
		target := ""
		if len(os.Args) > 2 {
			target = os.Args[2]
		}
		if err := engine.Upgrade(ctx, target); err != nil {
			logger.Fatal("Upgrade failed", zap.Error(err))
		}
		current, err := engine.Current(ctx)
		if err != nil {
			logger.Fatal("Failed to read current revision", zap.Error(err))
		}
		logger.Info("Upgrade complete", zap.String("current", current))

	case "downgrade":
		if len(os.Args) < 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		if err := engine.Downgrade(ctx, os.Args[2]); err != nil {
			logger.Fatal("Downgrade failed", zap.Error(err))
		}
		current, err := engine.Current(ctx)
		if err != nil {
			logger.Fatal("Failed to read current revision", zap.Error(err))
		}
		logger.Info("Downgrade complete", zap.String("current", current))

	case "current":
		current, err := engine.Current(ctx)
		if err != nil {
			logger.Fatal("Failed to read current revision", zap.Error(err))
		}
		if current == "" {
			current = "<base>"
		}
		fmt.Println(current)

	case "history":
		current, err := engine.Current(ctx)
		if err != nil {
			logger.Fatal("Failed to read current revision", zap.Error(err))
		}
		for _, rev := range engine.History() {
			marker := "  "
			if rev.ID == current {
				marker = "* "
			}
			fmt.Printf("%s%s  %s\n", marker, rev.ID, rev.Label)
		}

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}
