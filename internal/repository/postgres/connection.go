package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roundreview/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Users            string
	Projects         string
	ProjectUsers     string
	Objects          string
	Reviews          string
	SystemProperties string
	AuditLogs        string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Users:            fmt.Sprintf("%susers", prefix),
		Projects:         fmt.Sprintf("%sprojects", prefix),
		ProjectUsers:     fmt.Sprintf("%sproject_users", prefix),
		Objects:          fmt.Sprintf("%sobjects", prefix),
		Reviews:          fmt.Sprintf("%sreviews", prefix),
		SystemProperties: fmt.Sprintf("%ssystem_properties", prefix),
		AuditLogs:        fmt.Sprintf("%saudit_logs", prefix),
	}
}

// All returns every table in dependency order, parents first.
func (t *TableNames) All() []string {
	return []string{
		t.Users,
		t.Projects,
		t.ProjectUsers,
		t.Objects,
		t.Reviews,
		t.SystemProperties,
		t.AuditLogs,
	}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// Port 6543 is treated as a transaction-mode PgBouncer, which cannot hold
// prepared statements; the pool switches to QueryExecModeCacheDescribe there
// unless default_query_exec_mode is set in the connection string.
//
// Table prefixes are interpolated with fmt.Sprintf before statements reach the
// server, so each environment caches its own statements.
func CreateConnectionPool(ctx context.Context, databaseURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		logger.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there is none.
// Repositories call it on every statement so they join an ExecTx transaction
// automatically.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
