package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/observability"
	"github.com/spec-kit/blog-service/internal/persistence"
	"github.com/spec-kit/blog-service/internal/repository"
)

// seed applies migrations and ensures an administrator account exists.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	email := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")))
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	users := repository.NewUserRepository(pg.PoolHandle())
	roles := repository.NewRoleRepository(pg.PoolHandle())
	hasher := auth.NewPasswordHasher(cfg.Auth.PasswordHashAlgorithm, cfg.Auth.BcryptCost, logger)

	hash, err := hasher.Hash(password)
	if err != nil {
		logger.Fatal("failed to hash password", zap.Error(err))
	}

	existing, err := users.GetByEmailWithRole(ctx, email)
	switch {
	case err == nil:
		if err := users.UpdatePassword(ctx, existing.ID, hash); err != nil {
			logger.Fatal("failed to update admin password", zap.Error(err))
		}
		logger.Info("admin password updated", zap.String("email", email), zap.String("role", existing.RoleSlug))
		return
	case !errors.Is(err, pgx.ErrNoRows):
		logger.Fatal("failed to look up admin", zap.Error(err))
	}

	adminRole, err := roles.GetBySlug(ctx, domain.RoleSlugAdmin)
	if err != nil {
		logger.Fatal("admin role missing; migrations not applied", zap.Error(err))
	}
	user := &domain.User{Email: email, Name: "Administrator", PasswordHash: hash, RoleID: adminRole.ID}
	if err := users.Create(ctx, user); err != nil {
		logger.Fatal("failed to create admin", zap.Error(err))
	}
	logger.Info("admin created", zap.String("email", email), zap.String("user_id", user.ID))
}
