package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arnavshah/duty-roster-go/pkg/auth"
	"github.com/arnavshah/duty-roster-go/pkg/config"
	"github.com/arnavshah/duty-roster-go/pkg/database"
	"github.com/arnavshah/duty-roster-go/pkg/roster"
)

// FromConfig opens the database, makes sure a coordinator exists and wires a Handler
func FromConfig(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Handler, error) {
	if err := cfg.CheckSecrets(); err != nil {
		if cfg.Release() {
			return nil, err
		}
		log.Warn("signing secrets are not set", zap.Error(err))
	}

	persons, err := roster.FromPath(cfg.RosterFile)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		return nil, err
	}
	repo := database.NewRepository(db)

	a := auth.New(cfg.JWTSecret, cfg.APIMasterSecret, cfg.TokenTTL)
	created, err := a.EnsureCoordinator(ctx, repo, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("ensure coordinator: %w", err)
	}
	if created {
		log.Info("default coordinator created", zap.String("username", cfg.AdminUsername))
	}

	return New(repo, a, log, persons, cfg.DefaultYear, cfg.RateLimit), nil
}
