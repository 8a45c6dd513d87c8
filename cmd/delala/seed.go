package main

import (
	"context"
	"fmt"

	"github.com/pharmarawasy-del/Delala/internal/db"
	"github.com/pharmarawasy-del/Delala/internal/seed"
	"github.com/pharmarawasy-del/Delala/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo listings",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of fake ads to create",
			Value:   30,
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Delete previously seeded ads first",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		adsRepo := store.NewAdRepository(pool)

		logrus.Info("Seeding ads...")
		if err := seed.SeedFakeAds(ctx, pool, adsRepo, c.Int("count"), c.Bool("reset")); err != nil {
			return fmt.Errorf("failed to seed ads: %w", err)
		}

		logrus.Info("Ads seeded successfully")

		return nil
	},
}
