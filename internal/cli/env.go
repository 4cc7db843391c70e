// Package cli holds the operator commands for dispatchctl.
package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/readyresponse/dispatch/db"
	"github.com/readyresponse/dispatch/internal/config"
	"gorm.io/gorm"
)

// Env is the configuration and connection a command runs against.
type Env struct {
	Config *config.Config
	DB     *gorm.DB
}

// loadEnv is swapped out in tests.
var loadEnv = func() (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable is not set")
	}

	conn, err := db.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	return &Env{Config: cfg, DB: conn}, nil
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnText = color.New(color.FgYellow).SprintFunc()
)
