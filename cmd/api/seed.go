// cmd/api/seed.go
package main

import (
	"context"

	"logiledger-api-server/internal/database"
)

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	return database.SeedDemoData(ctx, st)
}
