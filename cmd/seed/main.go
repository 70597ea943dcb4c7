package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"roundreview/internal/auth"
	"roundreview/internal/capabilities"
	"roundreview/internal/config"
	"roundreview/internal/domain/models"
	docsysSvc "roundreview/internal/domain/services/docsystem"
	"roundreview/internal/repository/postgres"
	postgresDocsys "roundreview/internal/repository/postgres/docsystem"
	"roundreview/internal/service/audit"
	serviceDocsys "roundreview/internal/service/docsystem"
	"roundreview/internal/service/policy"
	"roundreview/internal/service/sysprop"
)

type seedUser struct {
	name    string
	email   string
	isAdmin bool
	role    models.Role
}

var seedUsers = []seedUser{
	{name: "alice", email: "alice@example.com", role: models.Owner},
	{name: "bob", email: "bob@example.com", role: models.Reviewer},
	{name: "carol", email: "carol@example.com", role: models.Member},
	{name: "admin", email: "admin@example.com", isAdmin: true},
}

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema and system properties, don't seed users")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: Cannot run --drop-tables in production environment")
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() { _ = closeLog() }()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if *dropTables {
		log.Println("Dropping all tables...")
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Printf("Ensuring schema (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	users := postgres.NewUserRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	props := sysprop.NewStore(postgres.NewSystemPropertyRepository(repoConfig), txManager, 0, cfg.SystemMaxUploadSizeMB, logger)
	if err := props.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed system properties: %v", err)
	}
	if err := users.Upsert(ctx, &models.User{ID: cfg.SystemUserID, Name: "system", IsSystem: true}); err != nil {
		log.Fatalf("Failed to provision system user: %v", err)
	}

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	caps, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load capability table: %v", err)
	}
	projects := postgresDocsys.NewProjectRepository(repoConfig)
	memberships := postgresDocsys.NewMembershipRepository(repoConfig)
	facts := policy.NewFactLoader(
		projects,
		memberships,
		postgresDocsys.NewObjectRepository(repoConfig),
		postgresDocsys.NewReviewRepository(repoConfig),
		users,
		props,
	)
	projectService := serviceDocsys.NewProjectService(
		projects,
		memberships,
		txManager,
		policy.NewEvaluator(caps),
		facts,
		audit.NewLog(postgres.NewAuditLogRepository(repoConfig), logger),
		logger,
	)

	actors := make(map[string]models.Actor, len(seedUsers))
	for _, su := range seedUsers {
		key, hash := auth.NewAPIKey()
		u := &models.User{Name: su.name, Email: su.email, IsAdmin: su.isAdmin, APIKeyHash: &hash}
		if err := users.Upsert(ctx, u); err != nil {
			existing, getErr := users.GetByName(ctx, su.name)
			if getErr != nil {
				log.Printf("Skipping user %s: %v", su.name, err)
				continue
			}
			u = existing
		}
		if err := users.SetAPIKeyHash(ctx, u.ID, &hash); err != nil {
			log.Fatalf("Failed to set API key for %s: %v", su.name, err)
		}
		actors[su.name] = u.Actor()
		fmt.Printf("%-8s id=%s api_key=%s\n", su.name, u.ID, key)
	}

	owner, ok := actors["alice"]
	if !ok {
		log.Fatalf("Owner account missing, cannot create demo project")
	}
	project, err := projectService.CreateProject(ctx, owner, &docsysSvc.CreateProjectRequest{Title: "Demo Project"})
	if err != nil {
		log.Fatalf("Failed to create demo project: %v", err)
	}
	for _, su := range seedUsers {
		if su.role == models.Owner || su.role == models.NoRole {
			continue
		}
		if _, ok := actors[su.name]; !ok {
			continue
		}
		err := projectService.JoinProject(ctx, owner, project.ID, &docsysSvc.JoinProjectRequest{
			Username: su.name,
			Role:     su.role.String(),
		})
		if err != nil {
			log.Printf("Failed to add %s to demo project: %v", su.name, err)
		}
	}

	log.Printf("Seeding complete (project %s)", project.ID)
}
