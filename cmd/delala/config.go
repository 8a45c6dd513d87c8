package main

import (
	"fmt"

	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func loadConfig() (*types.Config, error) {
	// A missing .env is fine outside development.
	_ = godotenv.Load()

	c := new(types.Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("set DATABASE_URL")
	}

	if c.SupabaseProjectRef == "" {
		return nil, fmt.Errorf("set SUPABASE_PROJECT_REF")
	}

	if c.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("set SUPABASE_ANON_KEY")
	}

	return c, nil
}
