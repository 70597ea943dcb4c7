package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"roundreview/internal/auth"
	"roundreview/internal/config"
	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	"roundreview/internal/domain/repositories"
	docsysRepo "roundreview/internal/domain/repositories/docsystem"
	"roundreview/internal/repository/memory"
	"roundreview/internal/repository/postgres"
	postgresDocsys "roundreview/internal/repository/postgres/docsystem"
)

// storage bundles every repository port behind one backend
type storage struct {
	users       repositories.UserRepository
	properties  repositories.SystemPropertyRepository
	auditLogs   repositories.AuditLogRepository
	projects    docsysRepo.ProjectRepository
	memberships docsysRepo.MembershipRepository
	objects     docsysRepo.ObjectRepository
	reviews     docsysRepo.ReviewRepository
	txManager   repositories.TransactionManager

	// putUser creates or refreshes an account outside the HTTP API
	putUser func(ctx context.Context, u *models.User) error
	close   func()
}

func newPostgresStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		pool.Close()
		return nil, err
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	users := postgres.NewUserRepository(repoConfig)

	logger.Info("database connected", "table_prefix", cfg.TablePrefix)
	return &storage{
		users:       users,
		properties:  postgres.NewSystemPropertyRepository(repoConfig),
		auditLogs:   postgres.NewAuditLogRepository(repoConfig),
		projects:    postgresDocsys.NewProjectRepository(repoConfig),
		memberships: postgresDocsys.NewMembershipRepository(repoConfig),
		objects:     postgresDocsys.NewObjectRepository(repoConfig),
		reviews:     postgresDocsys.NewReviewRepository(repoConfig),
		txManager:   postgres.NewTransactionManager(pool, logger),
		putUser:     users.Upsert,
		close:       pool.Close,
	}, nil
}

func newMemoryStorage(logger *slog.Logger) *storage {
	logger.Warn("DATABASE_URL not set, using in-memory storage (data is lost on restart)")
	store := memory.NewStore()
	return &storage{
		users:       store.Users(),
		properties:  store.SystemProperties(),
		auditLogs:   store.AuditLogs(),
		projects:    store.Projects(),
		memberships: store.Memberships(),
		objects:     store.Objects(),
		reviews:     store.Reviews(),
		txManager:   store.TxManager(),
		putUser: func(ctx context.Context, u *models.User) error {
			*u = *store.PutUser(*u)
			return nil
		},
		close: func() {},
	}
}

// ensureSystemUser provisions the system actor under its configured ID
func ensureSystemUser(ctx context.Context, s *storage, cfg *config.Config) error {
	existing, err := s.users.GetByID(ctx, cfg.SystemUserID)
	if err == nil && existing.IsSystem {
		return nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("load system user: %w", err)
	}
	return s.putUser(ctx, &models.User{
		ID:       cfg.SystemUserID,
		Name:     "system",
		IsSystem: true,
	})
}

// ensureAdmin provisions the bootstrap admin and (re)binds its API key
func ensureAdmin(ctx context.Context, s *storage, cfg *config.Config, logger *slog.Logger) error {
	if cfg.AdminUsername == "" || cfg.AdminAPIKey == "" {
		return nil
	}

	admin, err := s.users.GetByName(ctx, cfg.AdminUsername)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("load admin: %w", err)
		}
		admin = &models.User{Name: cfg.AdminUsername, IsAdmin: true}
		if err := s.putUser(ctx, admin); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		logger.Info("bootstrap admin created", "user_id", admin.ID, "name", admin.Name)
	}

	hash := auth.HashAPIKey(cfg.AdminAPIKey)
	if err := s.users.SetAPIKeyHash(ctx, admin.ID, &hash); err != nil {
		return fmt.Errorf("set admin api key: %w", err)
	}
	return nil
}
